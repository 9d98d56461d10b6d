package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-router/internal/app"
	"github.com/vovakirdan/wirechat-router/internal/auth"
	"github.com/vovakirdan/wirechat-router/internal/config"
	"github.com/vovakirdan/wirechat-router/internal/log"
	"github.com/vovakirdan/wirechat-router/internal/store/sqlite"
)

type rootFlags struct {
	configPath string
	addr       string
	logLevel   string
	dbPath     string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "wirechat-router",
		Short:        "Session-bound command router for wirechat",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "sqlite database path")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	serve.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address")

	var login string
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an existing login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd.Context(), flags, login)
		},
	}
	token.Flags().StringVar(&login, "login", "", "login to issue the token for")
	_ = token.MarkFlagRequired("login")

	root.AddCommand(serve, token)
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	bootstrap := log.New("info")

	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		return config.Config{}, err
	}

	cfg.UpdateFrom(config.Config{
		Addr:         flags.addr,
		LogLevel:     flags.logLevel,
		DatabasePath: flags.dbPath,
	})

	bootstrap.Debug().Str("config_path", path).Msg("configuration loaded")
	return cfg, nil
}

func runServe(parent context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting wirechat router")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runToken(ctx context.Context, flags *rootFlags, login string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cred, err := st.GetCredentialByLogin(ctx, login)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", login, err)
	}
	identity, err := st.GetIdentity(ctx, cred.IdentityID)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	token, err := auth.NewService(st, app.JWTConfig(&cfg)).IssueToken(identity)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
