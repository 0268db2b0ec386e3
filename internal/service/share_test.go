package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository/sqlite"
	"github.com/48Nauts-Operator/hubble-sub000/internal/share"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newShareTestEnv(t *testing.T) (*ShareService, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewShareService(db, db, db, db, nil, "http://hubble.local", discardLogger()), db
}

func seedCatalog(t *testing.T, db *sqlite.DB) (groups map[string]string, bookmarks map[string]string) {
	t.Helper()
	ctx := context.Background()
	groups = map[string]string{}
	bookmarks = map[string]string{}

	for _, name := range []string{"Infra", "Internal"} {
		g := &model.Group{Name: name}
		if err := db.CreateGroup(ctx, g); err != nil {
			t.Fatalf("seeding group %s: %v", name, err)
		}
		groups[name] = g.ID
	}

	seed := []struct {
		key         string
		title       string
		group       string
		environment string
		tags        []string
	}{
		{"grafana", "Grafana", "Infra", "prod", []string{"metrics"}},
		{"prometheus", "Prometheus", "Infra", "staging", []string{"metrics"}},
		{"wiki", "Wiki", "Internal", "", []string{"docs"}},
		{"pad", "Scratchpad", "", "", nil},
	}
	for _, s := range seed {
		b := &model.Bookmark{
			Title:       s.title,
			URL:         "https://example.com/" + s.key,
			GroupID:     groups[s.group],
			Environment: s.environment,
			Tags:        s.tags,
		}
		if err := db.Create(ctx, b); err != nil {
			t.Fatalf("seeding bookmark %s: %v", s.key, err)
		}
		bookmarks[s.key] = b.ID
	}
	return groups, bookmarks
}

func TestCreateShare_GeneratesValidUID(t *testing.T) {
	svc, _ := newShareTestEnv(t)

	view, err := svc.Create(context.Background(), ShareInput{Name: "team"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !share.ValidUID(view.UID) {
		t.Errorf("UID = %q, not a valid share uid", view.UID)
	}
	if view.AccessType != model.AccessPublic {
		t.Errorf("AccessType = %q, want public default", view.AccessType)
	}
	if want := "http://hubble.local/share/" + view.UID; view.ShareURL != want {
		t.Errorf("ShareURL = %q, want %q", view.ShareURL, want)
	}
}

func TestCreateShare_Validation(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ShareInput{Name: "  "}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty name error = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(ctx, ShareInput{Name: "x", AccessType: "vip"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad access type error = %v, want ErrValidation", err)
	}
	bad := int64(0)
	if _, err := svc.Create(ctx, ShareInput{Name: "x", MaxUses: &bad}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("zero max uses error = %v, want ErrValidation", err)
	}
}

func TestResolve_FiltersAndRecords(t *testing.T) {
	svc, db := newShareTestEnv(t)
	groups, _ := seedCatalog(t, db)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{
		Name: "prod metrics",
		Filter: model.ShareFilter{
			IncludedGroups:       []string{groups["Infra"]},
			IncludedEnvironments: []string{"prod"},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resolved, err := svc.Resolve(ctx, view.UID, RequestInfo{SessionID: "s1", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved.Bookmarks) != 1 || resolved.Bookmarks[0].Title != "Grafana" {
		t.Errorf("bookmarks = %v, want just Grafana", resolved.Bookmarks)
	}
	if resolved.View.UID != view.UID || resolved.View.Name != "prod metrics" {
		t.Errorf("public view = %+v", resolved.View)
	}
	if resolved.Overlay != nil {
		t.Error("overlay present on first anonymous resolve")
	}

	// The resolution recorded an access and bumped the counter.
	stored, err := db.GetSharedViewByID(ctx, view.ID)
	if err != nil {
		t.Fatalf("GetSharedViewByID() error = %v", err)
	}
	if stored.CurrentUses != 1 {
		t.Errorf("CurrentUses = %d, want 1", stored.CurrentUses)
	}
	counts, _ := db.AccessCounts(ctx, []string{view.ID})
	if counts[view.ID] != 1 {
		t.Errorf("access count = %d, want 1", counts[view.ID])
	}
}

func TestResolve_InvalidUID(t *testing.T) {
	svc, _ := newShareTestEnv(t)

	_, err := svc.Resolve(context.Background(), "0O1l!", RequestInfo{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for a malformed uid", err)
	}
}

func TestResolve_ExpiredShare(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	view, err := svc.Create(ctx, ShareInput{
		Name: "old", AccessType: model.AccessExpiring, ExpiresAt: &past,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Resolve(ctx, view.UID, RequestInfo{})
	if !errors.Is(err, apperror.ErrAccessDenied) {
		t.Fatalf("error = %v, want ErrAccessDenied", err)
	}
	if got := apperror.DenyReason(err); got != apperror.ReasonExpired {
		t.Errorf("reason = %q, want %q", got, apperror.ReasonExpired)
	}
}

func TestResolve_UsageCap(t *testing.T) {
	svc, db := newShareTestEnv(t)
	ctx := context.Background()

	maxUses := int64(2)
	view, err := svc.Create(ctx, ShareInput{Name: "limited", MaxUses: &maxUses})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Resolve(ctx, view.UID, RequestInfo{}); err != nil {
			t.Fatalf("Resolve() #%d error = %v", i+1, err)
		}
	}

	_, err = svc.Resolve(ctx, view.UID, RequestInfo{})
	if !errors.Is(err, apperror.ErrAccessDenied) {
		t.Fatalf("error = %v, want ErrAccessDenied after cap", err)
	}
	if got := apperror.DenyReason(err); got != apperror.ReasonUsageLimit {
		t.Errorf("reason = %q, want %q", got, apperror.ReasonUsageLimit)
	}

	stored, _ := db.GetSharedViewByID(ctx, view.ID)
	if stored.CurrentUses != 2 {
		t.Errorf("CurrentUses = %d, the cap must hold", stored.CurrentUses)
	}

	// The denied attempt must not leave a log row; access counts track
	// current_uses exactly on capped views.
	counts, err := db.AccessCounts(ctx, []string{view.ID})
	if err != nil {
		t.Fatalf("AccessCounts() error = %v", err)
	}
	if counts[view.ID] != 2 {
		t.Errorf("access count = %d, want 2", counts[view.ID])
	}
}

func TestResolve_RestrictedAlwaysDenied(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "private", AccessType: model.AccessRestricted})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Resolve(ctx, view.UID, RequestInfo{SessionID: "s1"})
	if !errors.Is(err, apperror.ErrAccessDenied) {
		t.Fatalf("error = %v, want ErrAccessDenied", err)
	}
	if got := apperror.DenyReason(err); got != apperror.ReasonRestricted {
		t.Errorf("reason = %q, want %q", got, apperror.ReasonRestricted)
	}
}

func TestResolve_ConcurrentUnderCap(t *testing.T) {
	svc, db := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "busy"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Resolve(ctx, view.UID, RequestInfo{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}

	stored, _ := db.GetSharedViewByID(ctx, view.ID)
	if stored.CurrentUses != n {
		t.Errorf("CurrentUses = %d, want exactly %d", stored.CurrentUses, n)
	}
}

func TestOverlay_HiddenBookmarksAffectResolve(t *testing.T) {
	svc, db := newShareTestEnv(t)
	_, bookmarkIDs := seedCatalog(t, db)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "all"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.UpdateOverlay(ctx, view.UID, "visitor-1", OverlayUpdate{
		HiddenBookmarks: []string{bookmarkIDs["wiki"]},
	}); err != nil {
		t.Fatalf("UpdateOverlay() error = %v", err)
	}

	resolved, err := svc.Resolve(ctx, view.UID, RequestInfo{SessionID: "visitor-1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for _, b := range resolved.Bookmarks {
		if b.ID == bookmarkIDs["wiki"] {
			t.Error("hidden bookmark appeared in merged result")
		}
	}

	// Another session is unaffected.
	other, err := svc.Resolve(ctx, view.UID, RequestInfo{SessionID: "visitor-2"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	found := false
	for _, b := range other.Bookmarks {
		if b.ID == bookmarkIDs["wiki"] {
			found = true
		}
	}
	if !found {
		t.Error("another session lost a bookmark it never hid")
	}
}

func TestOverlay_RequiresSession(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "x"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Overlay(ctx, view.UID, "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation for blank session", err)
	}
}

func TestAddPersonalBookmark_PermissionGate(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	locked, err := svc.Create(ctx, ShareInput{Name: "read only"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err = svc.AddPersonalBookmark(ctx, locked.UID, "s1", PersonalBookmarkInput{
		Title: "mine", URL: "https://example.com",
	})
	if !errors.Is(err, apperror.ErrAccessDenied) {
		t.Fatalf("error = %v, want ErrAccessDenied", err)
	}
	if got := apperror.DenyReason(err); got != apperror.ReasonPermissionDenied {
		t.Errorf("reason = %q, want %q", got, apperror.ReasonPermissionDenied)
	}

	open, err := svc.Create(ctx, ShareInput{
		Name:        "editable",
		Permissions: model.SharePermissions{CanAddBookmarks: true},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	overlay, err := svc.AddPersonalBookmark(ctx, open.UID, "s1", PersonalBookmarkInput{
		Title: "mine", URL: "https://example.com", GroupName: "Scratch",
	})
	if err != nil {
		t.Fatalf("AddPersonalBookmark() error = %v", err)
	}
	if len(overlay.PersonalBookmarks) != 1 || overlay.PersonalBookmarks[0].Title != "mine" {
		t.Errorf("PersonalBookmarks = %v", overlay.PersonalBookmarks)
	}
	if len(overlay.PersonalGroups) != 1 || overlay.PersonalGroups[0].Name != "Scratch" {
		t.Errorf("PersonalGroups = %v, want auto-created Scratch", overlay.PersonalGroups)
	}

	// A second bookmark into the same group must not duplicate the group.
	overlay, err = svc.AddPersonalBookmark(ctx, open.UID, "s1", PersonalBookmarkInput{
		Title: "more", URL: "https://example.com/2", GroupName: "scratch",
	})
	if err != nil {
		t.Fatalf("AddPersonalBookmark() error = %v", err)
	}
	if len(overlay.PersonalGroups) != 1 {
		t.Errorf("PersonalGroups = %v, group was duplicated", overlay.PersonalGroups)
	}
}

func TestList_IncludesAccessCounts(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "counted"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Resolve(ctx, view.UID, RequestInfo{}); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}

	summaries, total, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(summaries) != 1 {
		t.Fatalf("total = %d, len = %d, want 1/1", total, len(summaries))
	}
	if summaries[0].AccessCount != 3 {
		t.Errorf("AccessCount = %d, want 3", summaries[0].AccessCount)
	}
	if summaries[0].ShareURL != "http://hubble.local/share/"+view.UID {
		t.Errorf("ShareURL = %q", summaries[0].ShareURL)
	}
}

func TestGet_IncludesDailyCounts(t *testing.T) {
	svc, _ := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "detail"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Resolve(ctx, view.UID, RequestInfo{}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	detail, err := svc.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(detail.DailyCounts) != 1 || detail.DailyCounts[0].Count != 1 {
		t.Errorf("DailyCounts = %v", detail.DailyCounts)
	}
}

func TestUpdate_PreservesUIDAndCounter(t *testing.T) {
	svc, db := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "before"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Resolve(ctx, view.UID, RequestInfo{}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	updated, err := svc.Update(ctx, view.ID, ShareInput{Name: "after"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.UID != view.UID {
		t.Errorf("UID changed from %q to %q", view.UID, updated.UID)
	}

	stored, _ := db.GetSharedViewByID(ctx, view.ID)
	if stored.Name != "after" || stored.CurrentUses != 1 {
		t.Errorf("stored = %+v, update must keep the counter", stored)
	}
}

func TestDelete_RemovesOverlays(t *testing.T) {
	svc, db := newShareTestEnv(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, ShareInput{Name: "doomed"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Overlay(ctx, view.UID, "s1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Overlay() before any write error = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateOverlay(ctx, view.UID, "s1", OverlayUpdate{
		HiddenBookmarks: []string{},
	}); err != nil {
		t.Fatalf("UpdateOverlay() error = %v", err)
	}
	if _, err := svc.Overlay(ctx, view.UID, "s1"); err != nil {
		t.Fatalf("Overlay() after write error = %v", err)
	}

	if err := svc.Delete(ctx, view.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err = db.GetOverlay(ctx, view.ID, "s1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("overlay survived share deletion: %v", err)
	}
	_, err = svc.Resolve(ctx, view.UID, RequestInfo{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Resolve() after delete error = %v, want ErrNotFound", err)
	}
}
