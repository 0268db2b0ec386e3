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

var _ repository.OverlayRepository = (*DB)(nil)

const overlayColumns = `id, shared_view_id, session_id, personal_bookmarks,
	personal_groups, hidden_bookmarks, favorite_bookmarks, custom_tags,
	view_mode, sort_preference, created_at, updated_at`

// GetOrCreateOverlay returns the overlay for (view, session), creating an
// empty one on first use.
//
// The insert uses ON CONFLICT DO NOTHING against the (shared_view_id,
// session_id) unique constraint, then re-reads, so two concurrent first
// requests from the same session converge on one row instead of forking the
// visitor's personalization state.
func (db *DB) GetOrCreateOverlay(ctx context.Context, sharedViewID, sessionID string) (*model.PersonalOverlay, error) {
	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO personal_overlays (id, shared_view_id, session_id,
			view_mode, sort_preference, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(shared_view_id, session_id) DO NOTHING`,
		xid.New().String(), sharedViewID, sessionID,
		model.DefaultViewMode, model.DefaultSort, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating overlay: %w", err)
	}

	return db.GetOverlay(ctx, sharedViewID, sessionID)
}

// GetOverlay fetches the overlay for (view, session).
// Returns apperror.ErrNotFound when the session has none yet.
func (db *DB) GetOverlay(ctx context.Context, sharedViewID, sessionID string) (*model.PersonalOverlay, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+overlayColumns+` FROM personal_overlays
		 WHERE shared_view_id = ? AND session_id = ?`,
		sharedViewID, sessionID)

	overlay, err := scanOverlay(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("overlay", sharedViewID+"/"+sessionID)
		}
		return nil, fmt.Errorf("sqlite: getting overlay: %w", err)
	}
	return overlay, nil
}

// SaveOverlay replace-writes the whole overlay document. The lists are small
// per-session blobs; there is nothing to merge at the row level.
func (db *DB) SaveOverlay(ctx context.Context, overlay *model.PersonalOverlay) error {
	overlay.UpdatedAt = time.Now()

	// Encode nil lists as empty JSON collections so a save/fetch round-trip
	// never degrades [] to null.
	if overlay.PersonalBookmarks == nil {
		overlay.PersonalBookmarks = []model.PersonalBookmark{}
	}
	if overlay.PersonalGroups == nil {
		overlay.PersonalGroups = []model.PersonalGroup{}
	}
	if overlay.CustomTags == nil {
		overlay.CustomTags = map[string][]string{}
	}

	personalBookmarks, err := encodeJSON(overlay.PersonalBookmarks)
	if err != nil {
		return err
	}
	personalGroups, err := encodeJSON(overlay.PersonalGroups)
	if err != nil {
		return err
	}
	hidden, err := encodeJSON(tagsOrEmpty(overlay.HiddenBookmarks))
	if err != nil {
		return err
	}
	favorites, err := encodeJSON(tagsOrEmpty(overlay.FavoriteBookmarks))
	if err != nil {
		return err
	}
	customTags, err := encodeJSON(overlay.CustomTags)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE personal_overlays
		 SET personal_bookmarks = ?, personal_groups = ?, hidden_bookmarks = ?,
		     favorite_bookmarks = ?, custom_tags = ?, view_mode = ?,
		     sort_preference = ?, updated_at = ?
		 WHERE id = ?`,
		personalBookmarks, personalGroups, hidden, favorites, customTags,
		overlay.ViewMode, overlay.SortPreference, overlay.UpdatedAt,
		overlay.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving overlay %s: %w", overlay.ID, err)
	}
	return notFoundOnZeroRows(result, "overlay", overlay.ID)
}

func scanOverlay(scan func(...any) error) (*model.PersonalOverlay, error) {
	var o model.PersonalOverlay
	var personalBookmarks, personalGroups, hidden, favorites, customTags string

	if err := scan(
		&o.ID, &o.SharedViewID, &o.SessionID, &personalBookmarks,
		&personalGroups, &hidden, &favorites, &customTags,
		&o.ViewMode, &o.SortPreference, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	o.PersonalBookmarks = []model.PersonalBookmark{}
	o.PersonalGroups = []model.PersonalGroup{}
	o.HiddenBookmarks = []string{}
	o.FavoriteBookmarks = []string{}
	o.CustomTags = map[string][]string{}

	if err := decodeJSON(personalBookmarks, &o.PersonalBookmarks); err != nil {
		return nil, err
	}
	if err := decodeJSON(personalGroups, &o.PersonalGroups); err != nil {
		return nil, err
	}
	if err := decodeJSON(hidden, &o.HiddenBookmarks); err != nil {
		return nil, err
	}
	if err := decodeJSON(favorites, &o.FavoriteBookmarks); err != nil {
		return nil, err
	}
	if err := decodeJSON(customTags, &o.CustomTags); err != nil {
		return nil, err
	}
	return &o, nil
}
