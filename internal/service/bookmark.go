// Package service contains the business logic layer. Handlers parse HTTP and
// delegate here; services validate, enforce rules, and call the repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/events"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxTagCount          = 20
)

// IconResolver looks up an icon URL for a bookmark URL. Satisfied by
// favicon.Resolver; nil disables icon enrichment.
type IconResolver interface {
	Resolve(ctx context.Context, bookmarkURL string) string
}

// BookmarkService handles bookmark CRUD and click recording.
type BookmarkService struct {
	repo   repository.BookmarkRepository
	groups repository.GroupRepository
	icons  IconResolver
	hub    *events.Hub
	logger *slog.Logger
}

func NewBookmarkService(repo repository.BookmarkRepository, groups repository.GroupRepository, icons IconResolver, hub *events.Hub, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{repo: repo, groups: groups, icons: icons, hub: hub, logger: logger}
}

// BookmarkInput carries the writable bookmark fields.
type BookmarkInput struct {
	Title       string
	URL         string
	Description string
	Icon        string
	GroupID     string
	Environment string
	Tags        []string
}

func (in *BookmarkInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Description = strings.TrimSpace(in.Description)
	in.Icon = strings.TrimSpace(in.Icon)

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]bool, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	in.Tags = tags
}

func (in *BookmarkInput) validate() error {
	if in.Title == "" {
		return apperror.ValidationFailed("title", "bookmark title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("bookmark title must be %d characters or less", MaxTitleLength))
	}
	if in.URL == "" {
		return apperror.ValidationFailed("url", "bookmark url is required")
	}
	parsed, err := url.Parse(in.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperror.ValidationFailed("url", "bookmark url must be a valid http(s) URL")
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(in.Tags) > MaxTagCount {
		return apperror.ValidationFailed("tags",
			fmt.Sprintf("at most %d tags are allowed", MaxTagCount))
	}
	return nil
}

// Create validates and saves a new bookmark. When no icon is provided the
// resolver fills one in best-effort.
func (s *BookmarkService) Create(ctx context.Context, input BookmarkInput) (*model.Bookmark, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, input.GroupID); err != nil {
		return nil, err
	}

	if input.Icon == "" && s.icons != nil {
		input.Icon = s.icons.Resolve(ctx, input.URL)
	}

	bookmark := &model.Bookmark{
		Title:       input.Title,
		URL:         input.URL,
		Description: input.Description,
		Icon:        input.Icon,
		GroupID:     input.GroupID,
		Environment: input.Environment,
		Tags:        input.Tags,
		Source:      model.SourceManual,
	}

	if err := s.repo.Create(ctx, bookmark); err != nil {
		s.logger.Error("failed to create bookmark",
			slog.String("title", input.Title), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating bookmark: %w", err)
	}

	s.logger.Info("bookmark created",
		slog.String("id", bookmark.ID), slog.String("title", bookmark.Title))
	s.publish(events.EventBookmarkCreated, bookmark)
	return bookmark, nil
}

// GetByID retrieves a bookmark by its id.
func (s *BookmarkService) GetByID(ctx context.Context, id string) (*model.Bookmark, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "bookmark id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns all bookmarks.
func (s *BookmarkService) List(ctx context.Context) ([]model.Bookmark, error) {
	bookmarks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list bookmarks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Update modifies an existing bookmark. Discovery-sourced bookmarks keep
// their source and container id across edits.
func (s *BookmarkService) Update(ctx context.Context, id string, input BookmarkInput) (*model.Bookmark, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "bookmark id is required")
	}

	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, input.GroupID); err != nil {
		return nil, err
	}

	bookmark, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bookmark.Title = input.Title
	bookmark.URL = input.URL
	bookmark.Description = input.Description
	bookmark.Icon = input.Icon
	bookmark.GroupID = input.GroupID
	bookmark.Environment = input.Environment
	bookmark.Tags = input.Tags

	if err := s.repo.Update(ctx, bookmark); err != nil {
		s.logger.Error("failed to update bookmark",
			slog.String("id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("updating bookmark: %w", err)
	}

	s.logger.Info("bookmark updated", slog.String("id", bookmark.ID))
	s.publish(events.EventBookmarkUpdated, bookmark)
	return bookmark, nil
}

// Delete removes a bookmark.
func (s *BookmarkService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "bookmark id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("bookmark deleted", slog.String("id", id))
	s.publish(events.EventBookmarkDeleted, map[string]string{"id": id})
	return nil
}

// RecordClick bumps the click counter for a bookmark.
func (s *BookmarkService) RecordClick(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "bookmark id is required")
	}
	return s.repo.IncrementClicks(ctx, id)
}

// checkGroup verifies a referenced group exists. Empty means ungrouped.
func (s *BookmarkService) checkGroup(ctx context.Context, groupID string) error {
	if groupID == "" {
		return nil
	}
	if _, err := s.groups.GetGroupByID(ctx, groupID); err != nil {
		return apperror.ValidationFailed("group_id", "group does not exist")
	}
	return nil
}

func (s *BookmarkService) publish(eventType string, payload any) {
	if s.hub != nil {
		s.hub.Publish(eventType, payload)
	}
}
