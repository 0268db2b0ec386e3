package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

const topBookmarkCount = 10

// AnalyticsService aggregates usage numbers for the admin dashboard.
type AnalyticsService struct {
	bookmarks repository.BookmarkRepository
	groups    repository.GroupRepository
	shares    repository.SharedViewRepository
	logger    *slog.Logger
}

func NewAnalyticsService(bookmarks repository.BookmarkRepository, groups repository.GroupRepository, shares repository.SharedViewRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{bookmarks: bookmarks, groups: groups, shares: shares, logger: logger}
}

// Summary is the admin analytics payload.
type Summary struct {
	BookmarkCount    int              `json:"bookmarkCount"`
	GroupCount       int              `json:"groupCount"`
	ShareCount       int64            `json:"shareCount"`
	TotalShareAccess int64            `json:"totalShareAccess"`
	TopBookmarks     []model.Bookmark `json:"topBookmarks"`
}

// Summary computes the dashboard numbers in one pass.
func (s *AnalyticsService) Summary(ctx context.Context) (*Summary, error) {
	bookmarks, err := s.bookmarks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading bookmarks: %w", err)
	}
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}
	shareCount, err := s.shares.CountSharedViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting shares: %w", err)
	}
	accessCounts, err := s.shares.AccessCounts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading access counts: %w", err)
	}
	top, err := s.bookmarks.TopByClicks(ctx, topBookmarkCount)
	if err != nil {
		return nil, fmt.Errorf("loading top bookmarks: %w", err)
	}

	var totalAccess int64
	for _, n := range accessCounts {
		totalAccess += n
	}

	s.logger.Debug("analytics summary computed",
		slog.Int("bookmarks", len(bookmarks)), slog.Int64("shares", shareCount))
	return &Summary{
		BookmarkCount:    len(bookmarks),
		GroupCount:       len(groups),
		ShareCount:       shareCount,
		TotalShareAccess: totalAccess,
		TopBookmarks:     top,
	}, nil
}
