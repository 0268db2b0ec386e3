package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/auth"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository/sqlite"
)

func newAuthTestEnv(t *testing.T, allowedLogin string) (*AuthService, *auth.TokenService) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	return NewAuthService(db, tokens, passwords, allowedLogin, discardLogger()), tokens
}

func TestBootstrapAndLogin(t *testing.T) {
	svc, tokens := newAuthTestEnv(t, "")
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "admin", "hunter22"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	token, err := svc.LoginPassword(ctx, "admin", "hunter22")
	if err != nil {
		t.Fatalf("LoginPassword() error = %v", err)
	}
	if _, err := tokens.Validate(token); err != nil {
		t.Errorf("issued token does not validate: %v", err)
	}
}

func TestLoginPassword_WrongCredentials(t *testing.T) {
	svc, _ := newAuthTestEnv(t, "")
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "admin", "hunter22"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if _, err := svc.LoginPassword(ctx, "admin", "wrong"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("wrong password error = %v, want ErrForbidden", err)
	}
	if _, err := svc.LoginPassword(ctx, "nobody", "hunter22"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("wrong username error = %v, want ErrForbidden", err)
	}
}

// A second start with a different configured password must not rotate the
// stored credentials.
func TestBootstrap_DoesNotOverwrite(t *testing.T) {
	svc, _ := newAuthTestEnv(t, "")
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "admin", "original"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := svc.Bootstrap(ctx, "admin", "changed"); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}

	if _, err := svc.LoginPassword(ctx, "admin", "original"); err != nil {
		t.Errorf("original password stopped working: %v", err)
	}
	if _, err := svc.LoginPassword(ctx, "admin", "changed"); err == nil {
		t.Error("changed config password overwrote the stored credentials")
	}
}

func TestLoginGitHub(t *testing.T) {
	svc, tokens := newAuthTestEnv(t, "octocat")
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "admin", "hunter22"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	token, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "Octocat"})
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	if _, err := tokens.Validate(token); err != nil {
		t.Errorf("issued token does not validate: %v", err)
	}

	if _, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 2, Login: "intruder"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("unauthorized login error = %v, want ErrForbidden", err)
	}
}

func TestLoginGitHub_NoAllowedLoginConfigured(t *testing.T) {
	svc, _ := newAuthTestEnv(t, "")
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "admin", "hunter22"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "anyone"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, github login must be closed by default", err)
	}
}
