// Package discovery scans local Docker containers and registers labeled
// services as bookmarks. Containers opt in with the hubble.enable label:
//
//	labels:
//	  hubble.enable: "true"
//	  hubble.url: "http://grafana.local:3000"   # optional, port fallback
//	  hubble.name: "Grafana"                    # optional, container name fallback
//	  hubble.group: "Monitoring"                # optional, group created on demand
//	  hubble.environment: "prod"                # optional
//	  hubble.tags: "metrics,ops"                # optional, comma-separated
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/48Nauts-Operator/hubble-sub000/internal/events"
	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/repository"
)

const (
	labelEnable      = "hubble.enable"
	labelURL         = "hubble.url"
	labelName        = "hubble.name"
	labelGroup       = "hubble.group"
	labelEnvironment = "hubble.environment"
	labelTags        = "hubble.tags"
)

// ContainerLister abstracts the Docker API call so tests can substitute a
// fixed container list.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Service periodically syncs labeled containers into the bookmark store.
type Service struct {
	lister    ContainerLister
	bookmarks repository.BookmarkRepository
	groups    repository.GroupRepository
	hub       *events.Hub
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a discovery Service backed by the local Docker daemon.
// Fails when the daemon is unreachable so the caller can log and continue
// without discovery.
func New(bookmarks repository.BookmarkRepository, groups repository.GroupRepository, hub *events.Hub, interval time.Duration, logger *slog.Logger) (*Service, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("discovery: creating docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("discovery: pinging docker daemon: %w", err)
	}

	return NewWithLister(cli, bookmarks, groups, hub, interval, logger), nil
}

// NewWithLister creates a Service with an explicit lister. Used by New and
// by tests.
func NewWithLister(lister ContainerLister, bookmarks repository.BookmarkRepository, groups repository.GroupRepository, hub *events.Hub, interval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		lister:    lister,
		bookmarks: bookmarks,
		groups:    groups,
		hub:       hub,
		interval:  interval,
		logger:    logger,
	}
}

// Run syncs immediately and then on every tick until ctx is canceled.
// A failed sync is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) {
	if err := s.Sync(ctx); err != nil {
		s.logger.Warn("container sync failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.Warn("container sync failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sync registers a bookmark for every labeled container that is not yet
// tracked. Bookmarks for stopped or removed containers are left in place so
// curated edits survive container churn.
func (s *Service) Sync(ctx context.Context) error {
	containers, err := s.lister.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return fmt.Errorf("discovery: listing containers: %w", err)
	}

	known, err := s.bookmarks.ContainerIDs(ctx)
	if err != nil {
		return fmt.Errorf("discovery: loading tracked containers: %w", err)
	}
	tracked := make(map[string]bool, len(known))
	for _, id := range known {
		tracked[id] = true
	}

	for _, c := range containers {
		if c.Labels[labelEnable] != "true" || tracked[c.ID] {
			continue
		}

		bookmark, err := s.bookmarkFor(ctx, c)
		if err != nil {
			s.logger.Warn("skipping container",
				slog.String("container_id", c.ID), slog.String("error", err.Error()))
			continue
		}

		if err := s.bookmarks.Create(ctx, bookmark); err != nil {
			s.logger.Warn("failed to register discovered bookmark",
				slog.String("container_id", c.ID), slog.String("error", err.Error()))
			continue
		}

		s.logger.Info("registered discovered bookmark",
			slog.String("title", bookmark.Title), slog.String("url", bookmark.URL))
		if s.hub != nil {
			s.hub.Publish(events.EventBookmarkCreated, bookmark)
		}
	}
	return nil
}

// ContainerInfo is the admin-facing summary of one running container.
type ContainerInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url,omitempty"`
	Group       string   `json:"group,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// Containers lists running containers with their label mapping, including
// ones that have not opted in. Used by the admin discovery endpoint.
func (s *Service) Containers(ctx context.Context) ([]ContainerInfo, error) {
	containers, err := s.lister.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("discovery: listing containers: %w", err)
	}

	infos := make([]ContainerInfo, 0, len(containers))
	for _, c := range containers {
		url := c.Labels[labelURL]
		if url == "" {
			if port := firstPublishedPort(c.Ports); port != 0 {
				url = fmt.Sprintf("http://localhost:%d", port)
			}
		}
		name := c.Labels[labelName]
		if name == "" {
			name = containerName(c)
		}
		infos = append(infos, ContainerInfo{
			ID:          c.ID,
			Name:        name,
			URL:         url,
			Group:       c.Labels[labelGroup],
			Environment: c.Labels[labelEnvironment],
			Tags:        splitTags(c.Labels[labelTags]),
			Enabled:     c.Labels[labelEnable] == "true",
		})
	}
	return infos, nil
}

// bookmarkFor maps container labels onto a bookmark.
func (s *Service) bookmarkFor(ctx context.Context, c container.Summary) (*model.Bookmark, error) {
	url := c.Labels[labelURL]
	if url == "" {
		port := firstPublishedPort(c.Ports)
		if port == 0 {
			return nil, fmt.Errorf("no hubble.url label and no published port")
		}
		url = fmt.Sprintf("http://localhost:%d", port)
	}

	name := c.Labels[labelName]
	if name == "" {
		name = containerName(c)
	}
	if name == "" {
		return nil, fmt.Errorf("container has no usable name")
	}

	groupID := ""
	if groupName := c.Labels[labelGroup]; groupName != "" {
		id, err := s.resolveGroup(ctx, groupName)
		if err != nil {
			return nil, err
		}
		groupID = id
	}

	return &model.Bookmark{
		Title:       name,
		URL:         url,
		GroupID:     groupID,
		Environment: c.Labels[labelEnvironment],
		Tags:        splitTags(c.Labels[labelTags]),
		Source:      model.SourceDocker,
		ContainerID: c.ID,
	}, nil
}

// resolveGroup returns the id of the named group, creating it when absent.
func (s *Service) resolveGroup(ctx context.Context, name string) (string, error) {
	existing, err := s.groups.ListGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery: listing groups: %w", err)
	}
	for _, g := range existing {
		if strings.EqualFold(g.Name, name) {
			return g.ID, nil
		}
	}

	group := &model.Group{Name: name}
	if err := s.groups.CreateGroup(ctx, group); err != nil {
		return "", fmt.Errorf("discovery: creating group %q: %w", name, err)
	}
	if s.hub != nil {
		s.hub.Publish(events.EventGroupCreated, group)
	}
	return group.ID, nil
}

func firstPublishedPort(ports []container.Port) uint16 {
	for _, p := range ports {
		if p.PublicPort != 0 {
			return p.PublicPort
		}
	}
	return 0
}

func containerName(c container.Summary) string {
	if len(c.Names) == 0 {
		return ""
	}
	return strings.TrimPrefix(c.Names[0], "/")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
