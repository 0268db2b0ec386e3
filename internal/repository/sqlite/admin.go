package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

var _ repository.AdminRepository = (*DB)(nil)

// GetAdmin returns the single administrator row.
// Returns apperror.ErrNotFound before the first bootstrap.
func (db *DB) GetAdmin(ctx context.Context) (*model.Admin, error) {
	var a model.Admin
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, github_login, created_at, updated_at
		 FROM admin LIMIT 1`,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.GitHubLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("admin", "singleton")
		}
		return nil, fmt.Errorf("sqlite: getting admin: %w", err)
	}
	return &a, nil
}

// UpsertAdmin creates or updates the administrator row keyed by username.
func (db *DB) UpsertAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now()
	if admin.ID == "" {
		admin.ID = xid.New().String()
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO admin (id, username, password_hash, github_login, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			github_login  = excluded.github_login,
			updated_at    = excluded.updated_at`,
		admin.ID, admin.Username, admin.PasswordHash, admin.GitHubLogin,
		admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting admin: %w", err)
	}
	return nil
}
