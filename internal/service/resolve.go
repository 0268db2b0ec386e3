package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/share"
)

// PublicView is the visitor-facing subset of a shared view. Filter internals
// and usage bookkeeping stay server-side.
type PublicView struct {
	UID         string                  `json:"uid"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Theme       string                  `json:"theme,omitempty"`
	Layout      string                  `json:"layout,omitempty"`
	Permissions model.SharePermissions  `json:"permissions"`
	Branding    *model.ShareBranding    `json:"branding,omitempty"`
}

// ResolvedShare is the full payload a visitor receives for one share access.
type ResolvedShare struct {
	View      PublicView             `json:"view"`
	Bookmarks []share.MergedBookmark `json:"bookmarks"`
	Groups    []model.Group          `json:"groups"`
	Overlay   *model.PersonalOverlay `json:"overlay,omitempty"`
}

// RequestInfo carries the access-log fields of the incoming request.
type RequestInfo struct {
	SessionID string
	IP        string
	UserAgent string
}

// Resolve performs one public share access: accessibility check, usage
// increment, access recording, filter evaluation, and overlay merge.
//
// The access log insert is best-effort; a failed analytics write must not
// block a visitor. The usage increment is not: it enforces the usage cap
// store-side, so its failure fails the resolution.
func (s *ShareService) Resolve(ctx context.Context, uid string, req RequestInfo) (*ResolvedShare, error) {
	if !share.ValidUID(uid) {
		return nil, apperror.ValidationFailed("uid", "malformed share uid")
	}

	view, err := s.shares.GetSharedViewByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if reason, ok := share.Evaluate(view, time.Now()); !ok {
		return nil, apperror.AccessDenied(reason, "this share is not accessible")
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "anonymous"
	}

	// The increment is the authoritative gate: a request that loses the race
	// for the last permitted use is denied here and leaves no log row, so
	// access counts never exceed current_uses on capped views.
	if err := s.shares.IncrementUsage(ctx, view.ID, time.Now()); err != nil {
		return nil, err
	}

	if err := s.shares.InsertAccessLog(ctx, &model.AccessLogEntry{
		SharedViewID: view.ID,
		SessionID:    sessionID,
		IP:           req.IP,
		UserAgent:    req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record share access",
			slog.String("uid", uid), slog.String("error", err.Error()))
	}

	bookmarks, groups, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	visible, visibleGroups := share.FilterBookmarks(view.Filter, bookmarks, groups)

	overlay, err := s.overlays.GetOverlay(ctx, view.ID, sessionID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("loading overlay: %w", err)
		}
		overlay = nil
	}

	return &ResolvedShare{
		View:      publicView(view),
		Bookmarks: share.Merge(visible, overlay),
		Groups:    visibleGroups,
		Overlay:   overlay,
	}, nil
}

// Overlay returns the session's existing overlay for a share. Overlays are
// created lazily by the first personalization write, so a session that has
// never written one gets not-found here. Unlike Resolve this does not count
// as a share access, but the share must still be accessible.
func (s *ShareService) Overlay(ctx context.Context, uid, sessionID string) (*model.PersonalOverlay, error) {
	view, err := s.accessibleView(ctx, uid, &sessionID)
	if err != nil {
		return nil, err
	}
	return s.overlays.GetOverlay(ctx, view.ID, sessionID)
}

// OverlayUpdate carries a partial overlay update. Nil fields are untouched.
type OverlayUpdate struct {
	PersonalBookmarks []model.PersonalBookmark
	PersonalGroups    []model.PersonalGroup
	HiddenBookmarks   []string
	FavoriteBookmarks []string
	CustomTags        map[string][]string
	ViewMode          *string
	SortPreference    *string
}

// UpdateOverlay applies a partial update to the session's overlay.
func (s *ShareService) UpdateOverlay(ctx context.Context, uid, sessionID string, update OverlayUpdate) (*model.PersonalOverlay, error) {
	view, err := s.accessibleView(ctx, uid, &sessionID)
	if err != nil {
		return nil, err
	}

	overlay, err := s.overlays.GetOrCreateOverlay(ctx, view.ID, sessionID)
	if err != nil {
		return nil, err
	}

	if update.PersonalBookmarks != nil {
		overlay.PersonalBookmarks = update.PersonalBookmarks
	}
	if update.PersonalGroups != nil {
		overlay.PersonalGroups = update.PersonalGroups
	}
	if update.HiddenBookmarks != nil {
		overlay.HiddenBookmarks = update.HiddenBookmarks
	}
	if update.FavoriteBookmarks != nil {
		overlay.FavoriteBookmarks = update.FavoriteBookmarks
	}
	if update.CustomTags != nil {
		overlay.CustomTags = update.CustomTags
	}
	if update.ViewMode != nil {
		overlay.ViewMode = *update.ViewMode
	}
	if update.SortPreference != nil {
		overlay.SortPreference = *update.SortPreference
	}

	if err := s.overlays.SaveOverlay(ctx, overlay); err != nil {
		s.logger.Error("failed to save overlay",
			slog.String("uid", uid), slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving overlay: %w", err)
	}
	return overlay, nil
}

// PersonalBookmarkInput carries the fields of a visitor-added bookmark.
type PersonalBookmarkInput struct {
	Title       string
	URL         string
	Icon        string
	GroupName   string
	Environment string
	Tags        []string
}

// AddPersonalBookmark appends a bookmark to the session's overlay. The share
// must grant canAddBookmarks. A named overlay group is created on demand.
func (s *ShareService) AddPersonalBookmark(ctx context.Context, uid, sessionID string, input PersonalBookmarkInput) (*model.PersonalOverlay, error) {
	view, err := s.accessibleView(ctx, uid, &sessionID)
	if err != nil {
		return nil, err
	}
	if !view.Permissions.CanAddBookmarks {
		return nil, apperror.AccessDenied(apperror.ReasonPermissionDenied,
			"this share does not allow adding bookmarks")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.URL = strings.TrimSpace(input.URL)
	if input.Title == "" {
		return nil, apperror.ValidationFailed("title", "bookmark title is required")
	}
	if input.URL == "" {
		return nil, apperror.ValidationFailed("url", "bookmark url is required")
	}

	overlay, err := s.overlays.GetOrCreateOverlay(ctx, view.ID, sessionID)
	if err != nil {
		return nil, err
	}

	groupName := strings.TrimSpace(input.GroupName)
	if groupName != "" && !overlayHasGroup(overlay, groupName) {
		overlay.PersonalGroups = append(overlay.PersonalGroups, model.PersonalGroup{
			ID:        xid.New().String(),
			Name:      groupName,
			CreatedAt: time.Now().UTC(),
		})
	}

	overlay.PersonalBookmarks = append(overlay.PersonalBookmarks, model.PersonalBookmark{
		ID:          xid.New().String(),
		Title:       input.Title,
		URL:         input.URL,
		Icon:        strings.TrimSpace(input.Icon),
		GroupName:   groupName,
		Environment: input.Environment,
		Tags:        input.Tags,
		CreatedAt:   time.Now().UTC(),
	})

	if err := s.overlays.SaveOverlay(ctx, overlay); err != nil {
		s.logger.Error("failed to save overlay",
			slog.String("uid", uid), slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving overlay: %w", err)
	}

	s.logger.Info("personal bookmark added",
		slog.String("uid", uid), slog.String("session", sessionID))
	return overlay, nil
}

// accessibleView loads a view by uid and checks accessibility without
// touching the usage counter. Overlay writes require an explicit session.
func (s *ShareService) accessibleView(ctx context.Context, uid string, sessionID *string) (*model.SharedView, error) {
	*sessionID = strings.TrimSpace(*sessionID)
	if *sessionID == "" {
		return nil, apperror.ValidationFailed("session_id", "session id is required")
	}
	if !share.ValidUID(uid) {
		return nil, apperror.ValidationFailed("uid", "malformed share uid")
	}

	view, err := s.shares.GetSharedViewByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if reason, ok := share.Evaluate(view, time.Now()); !ok {
		return nil, apperror.AccessDenied(reason, "this share is not accessible")
	}
	return view, nil
}

func (s *ShareService) catalog(ctx context.Context) ([]model.Bookmark, []model.Group, error) {
	bookmarks, err := s.bookmarks.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading bookmarks: %w", err)
	}
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading groups: %w", err)
	}
	return bookmarks, groups, nil
}

func publicView(v *model.SharedView) PublicView {
	return PublicView{
		UID:         v.UID,
		Name:        v.Name,
		Description: v.Description,
		Theme:       v.Theme,
		Layout:      v.Layout,
		Permissions: v.Permissions,
		Branding:    v.Branding,
	}
}

func overlayHasGroup(overlay *model.PersonalOverlay, name string) bool {
	for _, g := range overlay.PersonalGroups {
		if strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}
