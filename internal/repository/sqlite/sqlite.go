// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// The driver is modernc.org/sqlite, a pure Go translation of SQLite, so the
// binary cross-compiles without CGo. The database is a single file next to
// the binary (or ":memory:" in tests).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for a throwaway database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent (every pool
	// connection would otherwise get its own empty database) and removes
	// SQLITE_BUSY from the write path. database/sql queues the rest.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows reads to proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the shared-view cascades
	// (access log, overlays) depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS groups (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			icon       TEXT NOT NULL DEFAULT '',
			color      TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			icon         TEXT NOT NULL DEFAULT '',
			group_id     TEXT NOT NULL DEFAULT '',
			environment  TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '[]',
			click_count  INTEGER NOT NULL DEFAULT 0,
			source       TEXT NOT NULL DEFAULT 'manual',
			container_id TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_group_id ON bookmarks(group_id);

		CREATE TABLE IF NOT EXISTS shared_views (
			id                    TEXT PRIMARY KEY,
			uid                   TEXT NOT NULL UNIQUE,
			name                  TEXT NOT NULL,
			description           TEXT NOT NULL DEFAULT '',
			access_type           TEXT NOT NULL DEFAULT 'public',
			expires_at            DATETIME,
			max_uses              INTEGER,
			current_uses          INTEGER NOT NULL DEFAULT 0,
			last_accessed_at      DATETIME,
			included_groups       TEXT NOT NULL DEFAULT '[]',
			excluded_groups       TEXT NOT NULL DEFAULT '[]',
			included_tags         TEXT NOT NULL DEFAULT '[]',
			included_environments TEXT NOT NULL DEFAULT '[]',
			theme                 TEXT NOT NULL DEFAULT '',
			layout                TEXT NOT NULL DEFAULT '',
			permissions           TEXT NOT NULL DEFAULT '{}',
			branding              TEXT,
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS shared_view_access (
			id             TEXT PRIMARY KEY,
			shared_view_id TEXT NOT NULL REFERENCES shared_views(id) ON DELETE CASCADE,
			session_id     TEXT NOT NULL DEFAULT 'anonymous',
			ip             TEXT NOT NULL DEFAULT '',
			user_agent     TEXT NOT NULL DEFAULT '',
			accessed_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_access_view_time
			ON shared_view_access(shared_view_id, accessed_at);

		CREATE TABLE IF NOT EXISTS personal_overlays (
			id                 TEXT PRIMARY KEY,
			shared_view_id     TEXT NOT NULL REFERENCES shared_views(id) ON DELETE CASCADE,
			session_id         TEXT NOT NULL,
			personal_bookmarks TEXT NOT NULL DEFAULT '[]',
			personal_groups    TEXT NOT NULL DEFAULT '[]',
			hidden_bookmarks   TEXT NOT NULL DEFAULT '[]',
			favorite_bookmarks TEXT NOT NULL DEFAULT '[]',
			custom_tags        TEXT NOT NULL DEFAULT '{}',
			view_mode          TEXT NOT NULL DEFAULT 'grid',
			sort_preference    TEXT NOT NULL DEFAULT 'name',
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(shared_view_id, session_id)
		);

		CREATE TABLE IF NOT EXISTS admin (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			github_login  TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// encodeJSON serializes list/map columns. A nil slice encodes as "[]" and a
// nil map as "{}" via the caller passing the right zero value.
func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding json column: %w", err)
	}
	return string(raw), nil
}

// decodeJSON deserializes a JSON column, treating the empty string like the
// type's zero value.
func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("sqlite: decoding json column: %w", err)
	}
	return nil
}
