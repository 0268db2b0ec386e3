package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
)

func createTestBookmark(t *testing.T, db *DB, title, groupID string, tags []string) *model.Bookmark {
	t.Helper()
	b := &model.Bookmark{
		Title:       title,
		URL:         "https://example.com/" + title,
		GroupID:     groupID,
		Environment: "prod",
		Tags:        tags,
	}
	if err := db.Create(context.Background(), b); err != nil {
		t.Fatalf("failed to create test bookmark: %v", err)
	}
	return b
}

func TestBookmarkCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestBookmark(t, db, "grafana", "g1", []string{"monitoring", "ops"})

	if created.ID == "" {
		t.Fatal("expected bookmark to have an ID")
	}
	if created.Source != model.SourceManual {
		t.Errorf("Source = %q, want %q", created.Source, model.SourceManual)
	}

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "grafana" || found.GroupID != "g1" || found.Environment != "prod" {
		t.Errorf("round trip lost fields: %+v", found)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "monitoring" {
		t.Errorf("Tags = %v, want [monitoring ops]", found.Tags)
	}
}

func TestBookmarkCreate_NilTagsBecomeEmpty(t *testing.T) {
	db := newTestDB(t)
	created := createTestBookmark(t, db, "plain", "", nil)

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Tags == nil {
		t.Error("Tags = nil, want empty slice")
	}
}

func TestBookmarkGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestBookmarkUpdate(t *testing.T) {
	db := newTestDB(t)
	b := createTestBookmark(t, db, "old", "g1", []string{"a"})

	b.Title = "new"
	b.Tags = []string{"a", "b"}
	if err := db.Update(context.Background(), b); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, _ := db.GetByID(context.Background(), b.ID)
	if found.Title != "new" || len(found.Tags) != 2 {
		t.Errorf("update not persisted: %+v", found)
	}
}

func TestBookmarkDelete(t *testing.T) {
	db := newTestDB(t)
	b := createTestBookmark(t, db, "gone", "", nil)

	if err := db.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := db.GetByID(context.Background(), b.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error after delete = %v, want ErrNotFound", err)
	}

	err = db.Delete(context.Background(), b.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestIncrementClicks(t *testing.T) {
	db := newTestDB(t)
	b := createTestBookmark(t, db, "clicky", "", nil)

	for i := 0; i < 3; i++ {
		if err := db.IncrementClicks(context.Background(), b.ID); err != nil {
			t.Fatalf("IncrementClicks() error = %v", err)
		}
	}

	found, _ := db.GetByID(context.Background(), b.ID)
	if found.ClickCount != 3 {
		t.Errorf("ClickCount = %d, want 3", found.ClickCount)
	}
}

func TestTopByClicks(t *testing.T) {
	db := newTestDB(t)
	low := createTestBookmark(t, db, "low", "", nil)
	high := createTestBookmark(t, db, "high", "", nil)
	_ = low

	for i := 0; i < 5; i++ {
		if err := db.IncrementClicks(context.Background(), high.ID); err != nil {
			t.Fatalf("IncrementClicks() error = %v", err)
		}
	}

	top, err := db.TopByClicks(context.Background(), 1)
	if err != nil {
		t.Fatalf("TopByClicks() error = %v", err)
	}
	if len(top) != 1 || top[0].ID != high.ID {
		t.Errorf("TopByClicks() = %v, want just %q", top, high.ID)
	}
}

func TestDeleteGroup_DetachesBookmarks(t *testing.T) {
	db := newTestDB(t)
	group := &model.Group{Name: "infra", SortOrder: 1}
	if err := db.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	b := createTestBookmark(t, db, "attached", group.ID, nil)

	if err := db.DeleteGroup(context.Background(), group.ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.GroupID != "" {
		t.Errorf("GroupID = %q, the bookmark should survive ungrouped", found.GroupID)
	}
}

func TestListGroups_Ordering(t *testing.T) {
	db := newTestDB(t)
	for _, g := range []*model.Group{
		{Name: "zeta", SortOrder: 1},
		{Name: "alpha", SortOrder: 1},
		{Name: "first", SortOrder: 0},
	} {
		if err := db.CreateGroup(context.Background(), g); err != nil {
			t.Fatalf("CreateGroup() error = %v", err)
		}
	}

	groups, err := db.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(groups))
	}
	if groups[0].Name != "first" || groups[1].Name != "alpha" || groups[2].Name != "zeta" {
		t.Errorf("order = %q %q %q, want first alpha zeta",
			groups[0].Name, groups[1].Name, groups[2].Name)
	}
}

func TestContainerIDs(t *testing.T) {
	db := newTestDB(t)
	b := &model.Bookmark{
		Title:       "svc",
		URL:         "http://localhost:9000",
		Source:      model.SourceDocker,
		ContainerID: "c-123",
	}
	if err := db.Create(context.Background(), b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	createTestBookmark(t, db, "manual", "", nil)

	ids, err := db.ContainerIDs(context.Background())
	if err != nil {
		t.Fatalf("ContainerIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "c-123" {
		t.Errorf("ContainerIDs() = %v, want [c-123]", ids)
	}
}
