package model

import "time"

// Overlay presentation defaults applied on first creation.
const (
	DefaultViewMode = "grid"
	DefaultSort     = "name"
)

// PersonalBookmark is a full ad-hoc bookmark record owned by one session's
// overlay. It is not a reference into the shared catalog.
type PersonalBookmark struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Icon        string    `json:"icon,omitempty"`
	GroupName   string    `json:"groupName,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PersonalGroup is an ad-hoc group that exists only inside one overlay.
type PersonalGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PersonalOverlay is the session-scoped personalization layer over exactly
// one SharedView. There is at most one overlay per (shared view, session)
// pair; the store enforces that with a unique constraint and upserts.
//
// The list fields are small per-session documents, stored JSON-encoded and
// replace-written as a whole on every update.
type PersonalOverlay struct {
	ID                string              `json:"id"                db:"id"`
	SharedViewID      string              `json:"sharedViewId"      db:"shared_view_id"`
	SessionID         string              `json:"sessionId"         db:"session_id"`
	PersonalBookmarks []PersonalBookmark  `json:"personalBookmarks"`
	PersonalGroups    []PersonalGroup     `json:"personalGroups"`
	HiddenBookmarks   []string            `json:"hiddenBookmarks"`
	FavoriteBookmarks []string            `json:"favoriteBookmarks"`
	CustomTags        map[string][]string `json:"customTags"`
	ViewMode          string              `json:"viewMode"          db:"view_mode"`
	SortPreference    string              `json:"sortPreference"    db:"sort_preference"`
	CreatedAt         time.Time           `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time           `json:"updatedAt"         db:"updated_at"`
}

// IsHidden reports whether the overlay hides the given shared bookmark id.
func (o *PersonalOverlay) IsHidden(bookmarkID string) bool {
	for _, id := range o.HiddenBookmarks {
		if id == bookmarkID {
			return true
		}
	}
	return false
}
