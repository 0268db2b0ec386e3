// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *model.Bookmark) error
	GetByID(ctx context.Context, id string) (*model.Bookmark, error)
	// List returns the full catalog snapshot. The sharing filters operate
	// in memory over this snapshot.
	List(ctx context.Context) ([]model.Bookmark, error)
	Update(ctx context.Context, bookmark *model.Bookmark) error
	Delete(ctx context.Context, id string) error
	// IncrementClicks bumps the click counter atomically at the store level.
	IncrementClicks(ctx context.Context, id string) error
	TopByClicks(ctx context.Context, limit int) ([]model.Bookmark, error)
	// ContainerIDs lists the container ids of docker-sourced bookmarks, so
	// discovery can skip containers that are already on the dashboard.
	ContainerIDs(ctx context.Context) ([]string, error)
}

// Method names are entity-prefixed (CreateGroup, GetSharedViewByUID, ...)
// because the sqlite DB type implements every interface here on one receiver;
// the bookmark repository keeps the bare names as the primary entity.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
	UpdateGroup(ctx context.Context, group *model.Group) error
	// DeleteGroup removes the group and detaches its bookmarks; it does not
	// delete them.
	DeleteGroup(ctx context.Context, id string) error
}

type SharedViewRepository interface {
	CreateSharedView(ctx context.Context, view *model.SharedView) error
	GetSharedViewByID(ctx context.Context, id string) (*model.SharedView, error)
	GetSharedViewByUID(ctx context.Context, uid string) (*model.SharedView, error)
	ListSharedViews(ctx context.Context, opts ListOptions) ([]model.SharedView, error)
	CountSharedViews(ctx context.Context) (int64, error)
	UpdateSharedView(ctx context.Context, view *model.SharedView) error
	// DeleteSharedView cascades to the view's access-log rows and overlays.
	DeleteSharedView(ctx context.Context, id string) error
	UIDExists(ctx context.Context, uid string) (bool, error)

	// IncrementUsage atomically bumps current_uses and stamps
	// last_accessed_at. Returns NotFound when the view vanished mid-request
	// and AccessDenied when the usage cap was hit by a concurrent request.
	IncrementUsage(ctx context.Context, id string, now time.Time) error
	InsertAccessLog(ctx context.Context, entry *model.AccessLogEntry) error
	AccessCounts(ctx context.Context, viewIDs []string) (map[string]int64, error)
	DailyAccessCounts(ctx context.Context, viewID string, days int) ([]model.DailyAccessCount, error)
}

type OverlayRepository interface {
	// GetOrCreateOverlay returns the overlay for the pair, creating an empty
	// one if none exists. Concurrent first calls must resolve to one row.
	GetOrCreateOverlay(ctx context.Context, sharedViewID, sessionID string) (*model.PersonalOverlay, error)
	// GetOverlay returns NotFound when the session has no overlay yet.
	GetOverlay(ctx context.Context, sharedViewID, sessionID string) (*model.PersonalOverlay, error)
	// SaveOverlay replace-writes the whole overlay document.
	SaveOverlay(ctx context.Context, overlay *model.PersonalOverlay) error
}

type AdminRepository interface {
	// GetAdmin returns the single admin row, or NotFound before first bootstrap.
	GetAdmin(ctx context.Context) (*model.Admin, error)
	UpsertAdmin(ctx context.Context, admin *model.Admin) error
}
