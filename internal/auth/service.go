package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-router/internal/store"
	"github.com/vovakirdan/wirechat-router/internal/utils"
)

var (
	// ErrInvalidCredentials is returned when login/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing login.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidLogin is returned when the login doesn't meet constraints.
	ErrInvalidLogin = errors.New("invalid login")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidToken is returned when a session token cannot be resolved to a live identity.
	ErrInvalidToken = errors.New("invalid session token")
)

// Backend is the persistence the auth service needs.
type Backend interface {
	store.IdentityStore
	store.CredentialStore
}

// Service issues and resolves session tokens.
type Service struct {
	store     Backend
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(backend Backend, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     backend,
		jwtConfig: jwtConfig,
	}
}

// Register creates an identity with empty contact and chat sets plus a
// password credential, and returns a session token for it.
func (s *Service) Register(ctx context.Context, login, name, password string) (string, *store.Identity, error) {
	login = strings.TrimSpace(login)
	if len(login) < 3 || len(login) > 32 {
		return "", nil, ErrInvalidLogin
	}
	if err := checkPassword(password); err != nil {
		return "", nil, err
	}

	if _, err := s.store.GetCredentialByLogin(ctx, login); err == nil {
		return "", nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", nil, fmt.Errorf("check login: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = login
	}
	identity := &store.Identity{
		ID:        utils.NewID(),
		Login:     login,
		Name:      name,
		Avatar:    AvatarRef(login),
		Contacts:  []string{},
		Chats:     []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveIdentity(ctx, identity); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", nil, ErrUserExists
		}
		return "", nil, fmt.Errorf("create identity: %w", err)
	}

	cred := &store.Credential{
		Login:        login,
		PasswordHash: hashedPassword,
		IdentityID:   identity.ID,
	}
	if err := s.store.CreateCredential(ctx, cred); err != nil {
		return "", nil, fmt.Errorf("create credential: %w", err)
	}

	token, err := s.IssueToken(identity)
	if err != nil {
		return "", nil, err
	}

	return token, identity, nil
}

// Login validates credentials and returns a session token.
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	cred, err := s.store.GetCredentialByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(cred.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	identity, err := s.store.GetIdentity(ctx, cred.IdentityID)
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}

	return s.IssueToken(identity)
}

// IssueToken signs a session token for identity.
func (s *Service) IssueToken(identity *store.Identity) (string, error) {
	token, err := GenerateToken(s.jwtConfig, identity.ID, identity.Login)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a session token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Authenticate resolves a session token to the id of an existing identity.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := s.store.GetIdentity(ctx, claims.IdentityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: identity %s no longer exists", ErrInvalidToken, claims.IdentityID)
		}
		return "", fmt.Errorf("load identity: %w", err)
	}

	return claims.IdentityID, nil
}

// AvatarRef derives the identicon reference for a login.
func AvatarRef(login string) string {
	sum := md5.Sum([]byte(login))
	return "identicon:" + hex.EncodeToString(sum[:])
}
