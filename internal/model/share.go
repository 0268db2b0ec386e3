package model

import "time"

// Access types for a SharedView.
//
// Restricted shares are never publicly resolvable; the branch exists in the
// data model but there is deliberately no credential mechanism behind it.
const (
	AccessPublic     = "public"
	AccessRestricted = "restricted"
	AccessExpiring   = "expiring"
)

// SharePermissions are the per-view flags governing what a visitor's session
// overlay is allowed to do.
type SharePermissions struct {
	CanAddBookmarks    bool `json:"canAddBookmarks"`
	CanEditBookmarks   bool `json:"canEditBookmarks"`
	CanDeleteBookmarks bool `json:"canDeleteBookmarks"`
	CanCreateGroups    bool `json:"canCreateGroups"`
	CanSeeAnalytics    bool `json:"canSeeAnalytics"`
}

// ShareBranding is the optional appearance override for a shared view.
type ShareBranding struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
	Color    string `json:"color,omitempty"`
}

// ShareFilter holds the four bookmark filter dimensions of a shared view.
// An empty set imposes no constraint on its dimension.
type ShareFilter struct {
	IncludedGroups       []string `json:"includedGroups"`
	ExcludedGroups       []string `json:"excludedGroups"`
	IncludedTags         []string `json:"includedTags"`
	IncludedEnvironments []string `json:"includedEnvironments"`
}

// SharedView is a named, publicly-addressable projection of the bookmark
// catalog.
//
// ID is the owner-facing identifier; UID is the 8-character public share
// identifier humans transcribe, drawn from an alphabet without visually
// ambiguous characters. CurrentUses only ever increases.
type SharedView struct {
	ID             string           `json:"id"             db:"id"`
	UID            string           `json:"uid"            db:"uid"`
	Name           string           `json:"name"           db:"name"`
	Description    string           `json:"description"    db:"description"`
	AccessType     string           `json:"accessType"     db:"access_type"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	MaxUses        *int64           `json:"maxUses,omitempty"   db:"max_uses"`
	CurrentUses    int64            `json:"currentUses"    db:"current_uses"`
	LastAccessedAt *time.Time       `json:"lastAccessedAt,omitempty" db:"last_accessed_at"`
	Filter         ShareFilter      `json:"filter"`
	Theme          string           `json:"theme"          db:"theme"`
	Layout         string           `json:"layout"         db:"layout"`
	Permissions    SharePermissions `json:"permissions"`
	Branding       *ShareBranding   `json:"branding,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt"      db:"updated_at"`
}

// AccessLogEntry is one immutable record of a successful public resolution
// of a shared view. Rows are never updated; they disappear only when the
// parent view is deleted.
type AccessLogEntry struct {
	ID           string    `json:"id"           db:"id"`
	SharedViewID string    `json:"sharedViewId" db:"shared_view_id"`
	SessionID    string    `json:"sessionId"    db:"session_id"`
	IP           string    `json:"ip"           db:"ip"`
	UserAgent    string    `json:"userAgent"    db:"user_agent"`
	AccessedAt   time.Time `json:"accessedAt"   db:"accessed_at"`
}

// DailyAccessCount is one bucket of the admin-side access breakdown.
type DailyAccessCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
