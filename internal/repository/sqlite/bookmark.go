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

var _ repository.BookmarkRepository = (*DB)(nil)

const bookmarkColumns = `id, title, url, description, icon, group_id,
	environment, tags, click_count, source, container_id, created_at, updated_at`

// Create inserts a new bookmark, filling in its id and timestamps.
func (db *DB) Create(ctx context.Context, bookmark *model.Bookmark) error {
	bookmark.ID = xid.New().String()
	now := time.Now()
	bookmark.CreatedAt = now
	bookmark.UpdatedAt = now
	if bookmark.Source == "" {
		bookmark.Source = model.SourceManual
	}

	tags, err := encodeJSON(tagsOrEmpty(bookmark.Tags))
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (id, title, url, description, icon, group_id,
			environment, tags, click_count, source, container_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookmark.ID,
		bookmark.Title,
		bookmark.URL,
		bookmark.Description,
		bookmark.Icon,
		bookmark.GroupID,
		bookmark.Environment,
		tags,
		bookmark.ClickCount,
		bookmark.Source,
		bookmark.ContainerID,
		bookmark.CreatedAt,
		bookmark.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating bookmark: %w", err)
	}
	return nil
}

// GetByID retrieves a single bookmark.
// Returns apperror.ErrNotFound if no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Bookmark, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)

	bookmark, err := scanBookmark(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("bookmark", id)
		}
		return nil, fmt.Errorf("sqlite: getting bookmark %s: %w", id, err)
	}
	return bookmark, nil
}

// List returns the full bookmark catalog, newest first.
func (db *DB) List(ctx context.Context) ([]model.Bookmark, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookmarks: %w", err)
	}
	defer rows.Close()

	return collectBookmarks(rows)
}

// Update modifies an existing bookmark.
func (db *DB) Update(ctx context.Context, bookmark *model.Bookmark) error {
	bookmark.UpdatedAt = time.Now()

	tags, err := encodeJSON(tagsOrEmpty(bookmark.Tags))
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE bookmarks
		 SET title = ?, url = ?, description = ?, icon = ?, group_id = ?,
		     environment = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		bookmark.Title,
		bookmark.URL,
		bookmark.Description,
		bookmark.Icon,
		bookmark.GroupID,
		bookmark.Environment,
		tags,
		bookmark.UpdatedAt,
		bookmark.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating bookmark %s: %w", bookmark.ID, err)
	}
	return notFoundOnZeroRows(result, "bookmark", bookmark.ID)
}

// Delete removes a bookmark.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting bookmark %s: %w", id, err)
	}
	return notFoundOnZeroRows(result, "bookmark", id)
}

// IncrementClicks bumps the click counter with a store-side increment, so
// concurrent clicks never lose updates.
func (db *DB) IncrementClicks(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE bookmarks SET click_count = click_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing clicks for %s: %w", id, err)
	}
	return notFoundOnZeroRows(result, "bookmark", id)
}

// TopByClicks returns the most-clicked bookmarks for the analytics summary.
func (db *DB) TopByClicks(ctx context.Context, limit int) ([]model.Bookmark, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks
		 WHERE click_count > 0
		 ORDER BY click_count DESC, title ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing top bookmarks: %w", err)
	}
	defer rows.Close()

	return collectBookmarks(rows)
}

// ContainerIDs lists container ids of docker-sourced bookmarks.
func (db *DB) ContainerIDs(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT container_id FROM bookmarks WHERE source = ? AND container_id != ''`,
		model.SourceDocker)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing container ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning container id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating container ids: %w", err)
	}
	return ids, nil
}

func collectBookmarks(rows *sql.Rows) ([]model.Bookmark, error) {
	bookmarks := make([]model.Bookmark, 0, 32)
	for rows.Next() {
		b, err := scanBookmark(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning bookmark row: %w", err)
		}
		bookmarks = append(bookmarks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

// scanBookmark reads one row's columns in bookmarkColumns order. Taking the
// Scan function lets it serve both QueryRow and Rows.
func scanBookmark(scan func(...any) error) (*model.Bookmark, error) {
	var b model.Bookmark
	var tags string
	if err := scan(
		&b.ID, &b.Title, &b.URL, &b.Description, &b.Icon, &b.GroupID,
		&b.Environment, &tags, &b.ClickCount, &b.Source, &b.ContainerID,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &b.Tags); err != nil {
		return nil, err
	}
	return &b, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// notFoundOnZeroRows translates a 0-row write into the domain NotFound error.
func notFoundOnZeroRows(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
