package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/events"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
	"github.com/48Nauts-Operator/hubble-sub000/internal/share"
)

const (
	MaxShareNameLength = 200
	DefaultListLimit   = 20
	MaxListLimit       = 100

	// uidAttempts bounds the generate-check loop. With 57^8 possible uids a
	// second collision in a row is effectively impossible.
	uidAttempts = 5
)

// ShareService owns shared view lifecycle, public resolution, and overlays.
type ShareService struct {
	shares    repository.SharedViewRepository
	bookmarks repository.BookmarkRepository
	groups    repository.GroupRepository
	overlays  repository.OverlayRepository
	hub       *events.Hub
	baseURL   string
	logger    *slog.Logger
}

func NewShareService(
	shares repository.SharedViewRepository,
	bookmarks repository.BookmarkRepository,
	groups repository.GroupRepository,
	overlays repository.OverlayRepository,
	hub *events.Hub,
	baseURL string,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		shares:    shares,
		bookmarks: bookmarks,
		groups:    groups,
		overlays:  overlays,
		hub:       hub,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// ShareInput carries the writable fields of a shared view.
type ShareInput struct {
	Name        string
	Description string
	AccessType  string
	ExpiresAt   *time.Time
	MaxUses     *int64
	Filter      model.ShareFilter
	Theme       string
	Layout      string
	Permissions model.SharePermissions
	Branding    *model.ShareBranding
}

func (in *ShareInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "share name is required")
	}
	if len(in.Name) > MaxShareNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("share name must be %d characters or less", MaxShareNameLength))
	}
	switch in.AccessType {
	case model.AccessPublic, model.AccessRestricted, model.AccessExpiring:
	case "":
		in.AccessType = model.AccessPublic
	default:
		return apperror.ValidationFailed("access_type",
			"access type must be public, restricted, or expiring")
	}
	if in.MaxUses != nil && *in.MaxUses <= 0 {
		return apperror.ValidationFailed("max_uses", "max uses must be positive")
	}
	return nil
}

// ShareSummary is one row of the admin share list.
type ShareSummary struct {
	model.SharedView
	ShareURL    string `json:"shareUrl"`
	AccessCount int64  `json:"accessCount"`
}

// ShareDetail is the admin view of one share with its access breakdown.
type ShareDetail struct {
	model.SharedView
	ShareURL    string                   `json:"shareUrl"`
	DailyCounts []model.DailyAccessCount `json:"dailyCounts"`
}

// Create validates the input, generates a collision-checked public uid, and
// saves the view. The response carries the computed public share URL.
func (s *ShareService) Create(ctx context.Context, input ShareInput) (*ShareSummary, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	view := &model.SharedView{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		AccessType:  input.AccessType,
		ExpiresAt:   input.ExpiresAt,
		MaxUses:     input.MaxUses,
		Filter:      input.Filter,
		Theme:       input.Theme,
		Layout:      input.Layout,
		Permissions: input.Permissions,
		Branding:    input.Branding,
	}

	var lastErr error
	for attempt := 0; attempt < uidAttempts; attempt++ {
		uid, err := share.NewUID()
		if err != nil {
			return nil, fmt.Errorf("generating share uid: %w", err)
		}
		exists, err := s.shares.UIDExists(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("checking share uid: %w", err)
		}
		if exists {
			continue
		}

		view.UID = uid
		lastErr = s.shares.CreateSharedView(ctx, view)
		if lastErr == nil {
			s.logger.Info("share created",
				slog.String("id", view.ID), slog.String("uid", view.UID))
			s.publish(events.EventShareCreated, view)
			return &ShareSummary{
				SharedView: *view,
				ShareURL:   s.shareURL(view.UID),
			}, nil
		}
		// A conflict here means the uid raced another create; retry with a
		// fresh one. Anything else is a real failure.
		if !errors.Is(lastErr, apperror.ErrConflict) {
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("exhausted uid attempts")
	}
	s.logger.Error("failed to create share", slog.String("error", lastErr.Error()))
	return nil, fmt.Errorf("creating share: %w", lastErr)
}

// List returns shares with their total access counts.
func (s *ShareService) List(ctx context.Context, limit, offset int) ([]ShareSummary, int64, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	views, err := s.shares.ListSharedViews(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list shares", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing shares: %w", err)
	}
	total, err := s.shares.CountSharedViews(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting shares: %w", err)
	}

	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	counts, err := s.shares.AccessCounts(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("loading access counts: %w", err)
	}

	summaries := make([]ShareSummary, len(views))
	for i := range views {
		summaries[i] = ShareSummary{
			SharedView:  views[i],
			ShareURL:    s.shareURL(views[i].UID),
			AccessCount: counts[views[i].ID],
		}
	}
	return summaries, total, nil
}

// Get returns one share with its 30-day daily access breakdown.
func (s *ShareService) Get(ctx context.Context, id string) (*ShareDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "share id is required")
	}

	view, err := s.shares.GetSharedViewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	daily, err := s.shares.DailyAccessCounts(ctx, id, 30)
	if err != nil {
		return nil, fmt.Errorf("loading daily access counts: %w", err)
	}

	return &ShareDetail{
		SharedView:  *view,
		ShareURL:    s.shareURL(view.UID),
		DailyCounts: daily,
	}, nil
}

// Update modifies a share's settings. The uid and usage counter are
// untouched by updates.
func (s *ShareService) Update(ctx context.Context, id string, input ShareInput) (*model.SharedView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "share id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	view, err := s.shares.GetSharedViewByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view.Name = input.Name
	view.Description = strings.TrimSpace(input.Description)
	view.AccessType = input.AccessType
	view.ExpiresAt = input.ExpiresAt
	view.MaxUses = input.MaxUses
	view.Filter = input.Filter
	view.Theme = input.Theme
	view.Layout = input.Layout
	view.Permissions = input.Permissions
	view.Branding = input.Branding

	if err := s.shares.UpdateSharedView(ctx, view); err != nil {
		s.logger.Error("failed to update share",
			slog.String("id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("updating share: %w", err)
	}

	s.logger.Info("share updated", slog.String("id", view.ID))
	s.publish(events.EventShareUpdated, view)
	return view, nil
}

// Delete removes a share. Access records and overlays go with it.
func (s *ShareService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "share id is required")
	}
	if err := s.shares.DeleteSharedView(ctx, id); err != nil {
		return err
	}

	s.logger.Info("share deleted", slog.String("id", id))
	s.publish(events.EventShareDeleted, map[string]string{"id": id})
	return nil
}

func (s *ShareService) shareURL(uid string) string {
	return s.baseURL + "/share/" + uid
}

func (s *ShareService) publish(eventType string, payload any) {
	if s.hub != nil {
		s.hub.Publish(eventType, payload)
	}
}
