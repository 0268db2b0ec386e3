// Package model defines the data structures used throughout the application.
package model

import "time"

// Bookmark sources. Discovered bookmarks remember the container they came
// from so a re-discovery can recognise them.
const (
	SourceManual = "manual"
	SourceDocker = "docker"
)

// Bookmark is one entry on the dashboard.
//
// GroupID is empty for ungrouped bookmarks and Environment is empty when the
// bookmark is not tied to any environment; both empties mean "unconstrained"
// to the sharing filters, never "invisible". Tags are stored JSON-encoded in
// the database but always handled as a parsed list in code.
type Bookmark struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	URL         string    `json:"url"         db:"url"`
	Description string    `json:"description" db:"description"`
	Icon        string    `json:"icon"        db:"icon"`
	GroupID     string    `json:"groupId"     db:"group_id"`
	Environment string    `json:"environment" db:"environment"`
	Tags        []string  `json:"tags"        db:"tags"`
	ClickCount  int64     `json:"clickCount"  db:"click_count"`
	Source      string    `json:"source"      db:"source"`
	ContainerID string    `json:"containerId,omitempty" db:"container_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// HasTag reports whether the bookmark carries the given tag exactly.
// Matching is against the parsed tag list, not the serialized blob, so
// "api" never matches a bookmark tagged only "apitest".
func (b *Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
