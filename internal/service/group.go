package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/48Nauts-Operator/hubble-sub000/internal/apperror"
	"github.com/48Nauts-Operator/hubble-sub000/internal/events"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

const MaxGroupNameLength = 100

// GroupService handles group CRUD.
type GroupService struct {
	repo   repository.GroupRepository
	hub    *events.Hub
	logger *slog.Logger
}

func NewGroupService(repo repository.GroupRepository, hub *events.Hub, logger *slog.Logger) *GroupService {
	return &GroupService{repo: repo, hub: hub, logger: logger}
}

// GroupInput carries the writable group fields.
type GroupInput struct {
	Name      string
	Icon      string
	Color     string
	SortOrder int
}

func (in *GroupInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "group name is required")
	}
	if len(in.Name) > MaxGroupNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("group name must be %d characters or less", MaxGroupNameLength))
	}
	return nil
}

// Create validates and saves a new group.
func (s *GroupService) Create(ctx context.Context, input GroupInput) (*model.Group, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	group := &model.Group{
		Name:      input.Name,
		Icon:      strings.TrimSpace(input.Icon),
		Color:     strings.TrimSpace(input.Color),
		SortOrder: input.SortOrder,
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		s.logger.Error("failed to create group",
			slog.String("name", input.Name), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating group: %w", err)
	}

	s.logger.Info("group created", slog.String("id", group.ID), slog.String("name", group.Name))
	s.publish(events.EventGroupCreated, group)
	return group, nil
}

// GetByID retrieves a group by its id.
func (s *GroupService) GetByID(ctx context.Context, id string) (*model.Group, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "group id is required")
	}
	return s.repo.GetGroupByID(ctx, id)
}

// List returns all groups in display order.
func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		s.logger.Error("failed to list groups", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// Update modifies an existing group.
func (s *GroupService) Update(ctx context.Context, id string, input GroupInput) (*model.Group, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "group id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	group, err := s.repo.GetGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	group.Name = input.Name
	group.Icon = strings.TrimSpace(input.Icon)
	group.Color = strings.TrimSpace(input.Color)
	group.SortOrder = input.SortOrder

	if err := s.repo.UpdateGroup(ctx, group); err != nil {
		s.logger.Error("failed to update group",
			slog.String("id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("updating group: %w", err)
	}

	s.logger.Info("group updated", slog.String("id", group.ID))
	s.publish(events.EventGroupUpdated, group)
	return group, nil
}

// Delete removes a group. Its bookmarks survive as ungrouped.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "group id is required")
	}
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}

	s.logger.Info("group deleted", slog.String("id", id))
	s.publish(events.EventGroupDeleted, map[string]string{"id": id})
	return nil
}

func (s *GroupService) publish(eventType string, payload any) {
	if s.hub != nil {
		s.hub.Publish(eventType, payload)
	}
}
