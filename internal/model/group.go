package model

import "time"

// Group is a named collection of bookmarks. SortOrder controls dashboard
// ordering; bookmarks inside a group are ordered by title.
type Group struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Icon      string    `json:"icon"      db:"icon"`
	Color     string    `json:"color"     db:"color"`
	SortOrder int       `json:"sortOrder" db:"sort_order"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
