package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WIRECHAT"
	envConfigDefaultPath = envPrefix + "_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load resolves configuration and returns it together with the config file path.
// Precedence: defaults < config file < WIRECHAT_* env vars. Callers apply
// flag overrides on top with UpdateFrom. A missing config file is created
// from the defaults.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	cfg := Default()
	v := newViper(cfg)

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, configPath, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil {
			logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
		} else {
			logger.Info().Str("path", configPath).Msg("created default config")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	if cfg.JWTSecret == Default().JWTSecret {
		logger.Warn().Msg("jwt_secret is the built-in default; set WIRECHAT_JWT_SECRET")
	}

	return cfg, configPath, nil
}

// newViper registers every key with its default so env vars resolve even
// when the config file omits them.
func newViper(defaults Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range map[string]any{
		"addr":                defaults.Addr,
		"read_header_timeout": defaults.ReadHeaderTimeout,
		"shutdown_timeout":    defaults.ShutdownTimeout,
		"log_level":           defaults.LogLevel,
		"database_path":       defaults.DatabasePath,
		"jwt_secret":          defaults.JWTSecret,
		"jwt_issuer":          defaults.JWTIssuer,
		"jwt_audience":        defaults.JWTAudience,
		"token_ttl":           defaults.TokenTTL,
		"max_message_bytes":   defaults.MaxMessageBytes,
		"session_buffer":      defaults.SessionBuffer,
		"commands_per_minute": defaults.CommandsPerMinute,
	} {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
