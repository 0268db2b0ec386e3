package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

var _ repository.SharedViewRepository = (*DB)(nil)

const sharedViewColumns = `id, uid, name, description, access_type, expires_at,
	max_uses, current_uses, last_accessed_at, included_groups, excluded_groups,
	included_tags, included_environments, theme, layout, permissions, branding,
	created_at, updated_at`

// CreateSharedView inserts a new shared view. The caller provides the uid
// (already checked for uniqueness); id and timestamps are filled in here.
// A uid collision that slipped past the check surfaces as ErrConflict so the
// service's retry loop can draw again.
func (db *DB) CreateSharedView(ctx context.Context, view *model.SharedView) error {
	view.ID = xid.New().String()
	now := time.Now()
	view.CreatedAt = now
	view.UpdatedAt = now

	cols, err := encodeSharedViewColumns(view)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO shared_views (id, uid, name, description, access_type,
			expires_at, max_uses, current_uses, last_accessed_at,
			included_groups, excluded_groups, included_tags, included_environments,
			theme, layout, permissions, branding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		view.ID, view.UID, view.Name, view.Description, view.AccessType,
		view.ExpiresAt, view.MaxUses, view.CurrentUses, view.LastAccessedAt,
		cols.includedGroups, cols.excludedGroups, cols.includedTags, cols.includedEnvironments,
		view.Theme, view.Layout, cols.permissions, cols.branding,
		view.CreatedAt, view.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("shared view", view.UID)
		}
		return fmt.Errorf("sqlite: creating shared view: %w", err)
	}
	return nil
}

func (db *DB) GetSharedViewByID(ctx context.Context, id string) (*model.SharedView, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+sharedViewColumns+` FROM shared_views WHERE id = ?`, id)
	view, err := scanSharedView(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("shared view", id)
		}
		return nil, fmt.Errorf("sqlite: getting shared view %s: %w", id, err)
	}
	return view, nil
}

func (db *DB) GetSharedViewByUID(ctx context.Context, uid string) (*model.SharedView, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+sharedViewColumns+` FROM shared_views WHERE uid = ?`, uid)
	view, err := scanSharedView(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("shared view", uid)
		}
		return nil, fmt.Errorf("sqlite: getting shared view by uid %s: %w", uid, err)
	}
	return view, nil
}

// ListSharedViews returns views newest first with limit/offset pagination.
func (db *DB) ListSharedViews(ctx context.Context, opts repository.ListOptions) ([]model.SharedView, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+sharedViewColumns+` FROM shared_views
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing shared views: %w", err)
	}
	defer rows.Close()

	views := make([]model.SharedView, 0, limit)
	for rows.Next() {
		v, err := scanSharedView(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning shared view row: %w", err)
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating shared views: %w", err)
	}
	return views, nil
}

func (db *DB) CountSharedViews(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shared_views`).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting shared views: %w", err)
	}
	return count, nil
}

// UpdateSharedView writes the mutable fields. The uid, usage counter and
// last-accessed timestamp are not touched here; the counter only moves
// through IncrementUsage.
func (db *DB) UpdateSharedView(ctx context.Context, view *model.SharedView) error {
	view.UpdatedAt = time.Now()

	cols, err := encodeSharedViewColumns(view)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE shared_views
		 SET name = ?, description = ?, access_type = ?, expires_at = ?,
		     max_uses = ?, included_groups = ?, excluded_groups = ?,
		     included_tags = ?, included_environments = ?, theme = ?,
		     layout = ?, permissions = ?, branding = ?, updated_at = ?
		 WHERE id = ?`,
		view.Name, view.Description, view.AccessType, view.ExpiresAt,
		view.MaxUses, cols.includedGroups, cols.excludedGroups,
		cols.includedTags, cols.includedEnvironments, view.Theme,
		view.Layout, cols.permissions, cols.branding, view.UpdatedAt,
		view.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating shared view %s: %w", view.ID, err)
	}
	return notFoundOnZeroRows(result, "shared view", view.ID)
}

// DeleteSharedView removes a view; the ON DELETE CASCADE constraints take
// its access-log rows and overlays with it.
func (db *DB) DeleteSharedView(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM shared_views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting shared view %s: %w", id, err)
	}
	return notFoundOnZeroRows(result, "shared view", id)
}

func (db *DB) UIDExists(ctx context.Context, uid string) (bool, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shared_views WHERE uid = ?`, uid).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlite: checking uid %s: %w", uid, err)
	}
	return count > 0, nil
}

// IncrementUsage bumps current_uses with a store-side increment guarded by
// the usage cap, so two racing resolutions can never lose an update or push
// the counter past max_uses. A zero-row update means either the view is gone
// (NotFound) or a concurrent request consumed the last use (AccessDenied).
func (db *DB) IncrementUsage(ctx context.Context, id string, now time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE shared_views
		 SET current_uses = current_uses + 1, last_accessed_at = ?
		 WHERE id = ? AND (max_uses IS NULL OR current_uses < max_uses)`,
		now, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing usage for %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// One row read disambiguates exactly: ErrNoRows means the view is
		// gone; an existing row means the cap clause blocked the update.
		var one int
		err := db.conn.QueryRowContext(ctx,
			`SELECT 1 FROM shared_views WHERE id = ?`, id).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return apperror.NotFound("shared view", id)
		case err != nil:
			return fmt.Errorf("sqlite: re-checking shared view %s: %w", id, err)
		}
		return apperror.AccessDenied(apperror.ReasonUsageLimit,
			"this share is no longer available")
	}
	return nil
}

// InsertAccessLog appends one immutable access-log row.
func (db *DB) InsertAccessLog(ctx context.Context, entry *model.AccessLogEntry) error {
	entry.ID = xid.New().String()
	if entry.AccessedAt.IsZero() {
		entry.AccessedAt = time.Now()
	}
	if entry.SessionID == "" {
		entry.SessionID = "anonymous"
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shared_view_access (id, shared_view_id, session_id, ip, user_agent, accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SharedViewID, entry.SessionID, entry.IP, entry.UserAgent, entry.AccessedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting access log: %w", err)
	}
	return nil
}

// AccessCounts returns total access counts keyed by view id. viewIDs narrows
// the result; passing nil returns counts for every view.
func (db *DB) AccessCounts(ctx context.Context, viewIDs []string) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT shared_view_id, COUNT(*) FROM shared_view_access GROUP BY shared_view_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting accesses: %w", err)
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(viewIDs))
	for _, id := range viewIDs {
		wanted[id] = true
	}

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning access count: %w", err)
		}
		if len(wanted) == 0 || wanted[id] {
			counts[id] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating access counts: %w", err)
	}
	return counts, nil
}

// DailyAccessCounts buckets a view's accesses by day over the trailing
// window. Days with no accesses are absent from the result.
func (db *DB) DailyAccessCounts(ctx context.Context, viewID string, days int) ([]model.DailyAccessCount, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT date(accessed_at), COUNT(*)
		 FROM shared_view_access
		 WHERE shared_view_id = ? AND accessed_at >= ?
		 GROUP BY date(accessed_at)
		 ORDER BY date(accessed_at) ASC`,
		viewID, since)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bucketing accesses for %s: %w", viewID, err)
	}
	defer rows.Close()

	buckets := make([]model.DailyAccessCount, 0, days)
	for rows.Next() {
		var b model.DailyAccessCount
		if err := rows.Scan(&b.Day, &b.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning access bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating access buckets: %w", err)
	}
	return buckets, nil
}

// sharedViewJSON carries the JSON-encoded columns of one view row.
type sharedViewJSON struct {
	includedGroups       string
	excludedGroups       string
	includedTags         string
	includedEnvironments string
	permissions          string
	branding             sql.NullString
}

func encodeSharedViewColumns(view *model.SharedView) (*sharedViewJSON, error) {
	var cols sharedViewJSON
	var err error
	if cols.includedGroups, err = encodeJSON(tagsOrEmpty(view.Filter.IncludedGroups)); err != nil {
		return nil, err
	}
	if cols.excludedGroups, err = encodeJSON(tagsOrEmpty(view.Filter.ExcludedGroups)); err != nil {
		return nil, err
	}
	if cols.includedTags, err = encodeJSON(tagsOrEmpty(view.Filter.IncludedTags)); err != nil {
		return nil, err
	}
	if cols.includedEnvironments, err = encodeJSON(tagsOrEmpty(view.Filter.IncludedEnvironments)); err != nil {
		return nil, err
	}
	if cols.permissions, err = encodeJSON(view.Permissions); err != nil {
		return nil, err
	}
	if view.Branding != nil {
		raw, err := encodeJSON(view.Branding)
		if err != nil {
			return nil, err
		}
		cols.branding = sql.NullString{String: raw, Valid: true}
	}
	return &cols, nil
}

func scanSharedView(scan func(...any) error) (*model.SharedView, error) {
	var v model.SharedView
	var expiresAt, lastAccessedAt sql.NullTime
	var maxUses sql.NullInt64
	var cols sharedViewJSON

	if err := scan(
		&v.ID, &v.UID, &v.Name, &v.Description, &v.AccessType, &expiresAt,
		&maxUses, &v.CurrentUses, &lastAccessedAt,
		&cols.includedGroups, &cols.excludedGroups,
		&cols.includedTags, &cols.includedEnvironments,
		&v.Theme, &v.Layout, &cols.permissions, &cols.branding,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		v.ExpiresAt = &t
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		v.LastAccessedAt = &t
	}
	if maxUses.Valid {
		n := maxUses.Int64
		v.MaxUses = &n
	}

	if err := decodeJSON(cols.includedGroups, &v.Filter.IncludedGroups); err != nil {
		return nil, err
	}
	if err := decodeJSON(cols.excludedGroups, &v.Filter.ExcludedGroups); err != nil {
		return nil, err
	}
	if err := decodeJSON(cols.includedTags, &v.Filter.IncludedTags); err != nil {
		return nil, err
	}
	if err := decodeJSON(cols.includedEnvironments, &v.Filter.IncludedEnvironments); err != nil {
		return nil, err
	}
	if err := decodeJSON(cols.permissions, &v.Permissions); err != nil {
		return nil, err
	}
	if cols.branding.Valid && cols.branding.String != "" {
		v.Branding = &model.ShareBranding{}
		if err := decodeJSON(cols.branding.String, v.Branding); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

// isUniqueViolation matches sqlite's unique-constraint errors without
// importing driver internals.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
