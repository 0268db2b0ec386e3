package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/auth"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

// AuthService handles the single admin account: bootstrap, password login,
// and the optional GitHub login.
type AuthService struct {
	admins       repository.AdminRepository
	tokens       *auth.TokenService
	passwords    *auth.PasswordService
	allowedLogin string
	logger       *slog.Logger
}

func NewAuthService(admins repository.AdminRepository, tokens *auth.TokenService, passwords *auth.PasswordService, allowedLogin string, logger *slog.Logger) *AuthService {
	return &AuthService{
		admins:       admins,
		tokens:       tokens,
		passwords:    passwords,
		allowedLogin: allowedLogin,
		logger:       logger,
	}
}

// Bootstrap ensures the admin account exists. On first start it creates the
// account from the configured credentials; afterwards it is a no-op so a
// changed config password does not silently overwrite the stored one.
func (s *AuthService) Bootstrap(ctx context.Context, username, password string) error {
	if _, err := s.admins.GetAdmin(ctx); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking admin account: %w", err)
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("auth: admin username and password are required for first start")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := s.admins.UpsertAdmin(ctx, admin); err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	s.logger.Info("admin account created", slog.String("username", username))
	return nil
}

// LoginPassword verifies credentials and returns a session token. Wrong
// username and wrong password produce the same error.
func (s *AuthService) LoginPassword(ctx context.Context, username, password string) (string, error) {
	admin, err := s.admins.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Forbidden("invalid credentials")
		}
		return "", fmt.Errorf("loading admin account: %w", err)
	}

	if admin.Username != strings.TrimSpace(username) {
		return "", apperror.Forbidden("invalid credentials")
	}
	if err := s.passwords.Verify(admin.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("username", username))
		return "", apperror.Forbidden("invalid credentials")
	}

	token, err := s.tokens.Generate(admin.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("admin logged in", slog.String("username", admin.Username))
	return token, nil
}

// LoginGitHub completes a GitHub OAuth login. Only the configured GitHub
// login may authenticate; there is exactly one admin.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if s.allowedLogin == "" || !strings.EqualFold(ghUser.Login, s.allowedLogin) {
		s.logger.Warn("rejected github login", slog.String("login", ghUser.Login))
		return "", apperror.Forbidden("github account is not authorized")
	}

	admin, err := s.admins.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Forbidden("admin account is not initialized")
		}
		return "", fmt.Errorf("loading admin account: %w", err)
	}

	if admin.GitHubLogin != ghUser.Login {
		admin.GitHubLogin = ghUser.Login
		if err := s.admins.UpsertAdmin(ctx, admin); err != nil {
			return "", fmt.Errorf("linking github account: %w", err)
		}
	}

	token, err := s.tokens.Generate(admin.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("admin logged in via github", slog.String("login", ghUser.Login))
	return token, nil
}
