// Package favicon resolves icon URLs for bookmarks. Lookups probe the site's
// /favicon.ico and fall back to a public icon service; results are held in a
// bounded TTL cache so repeated bookmark saves don't hammer target sites.
package favicon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const iconServiceFormat = "https://www.google.com/s2/favicons?domain=%s&sz=64"

type cacheEntry struct {
	iconURL   string
	expiresAt time.Time
}

// Resolver caches favicon lookups per host.
type Resolver struct {
	client  *http.Client
	ttl     time.Duration
	maxSize int
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New creates a Resolver with the given cache bounds.
func New(maxSize int, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  &http.Client{Timeout: 5 * time.Second},
		ttl:     ttl,
		maxSize: maxSize,
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}
}

// SetClient overrides the HTTP client. Used by tests.
func (r *Resolver) SetClient(c *http.Client) {
	r.client = c
}

// Resolve returns an icon URL for the bookmark URL, or "" when the URL is
// unparseable. The result is cached per host.
func (r *Resolver) Resolve(ctx context.Context, bookmarkURL string) string {
	parsed, err := url.Parse(bookmarkURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := parsed.Host

	if icon, ok := r.cached(host); ok {
		return icon
	}

	icon := r.lookup(ctx, parsed)
	r.store(host, icon)
	return icon
}

// Len returns the number of cached hosts.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) cached(host string) (string, bool) {
	r.mu.RLock()
	entry, ok := r.cache[host]
	r.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.iconURL, true
}

func (r *Resolver) store(host, iconURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Full cache: drop expired entries first, then evict arbitrarily. The
	// cache is small enough that precise LRU isn't worth the bookkeeping.
	if len(r.cache) >= r.maxSize {
		now := time.Now()
		for k, v := range r.cache {
			if now.After(v.expiresAt) {
				delete(r.cache, k)
			}
		}
		for k := range r.cache {
			if len(r.cache) < r.maxSize {
				break
			}
			delete(r.cache, k)
		}
	}

	r.cache[host] = cacheEntry{iconURL: iconURL, expiresAt: time.Now().Add(r.ttl)}
}

// lookup probes the site's own favicon and falls back to the icon service.
func (r *Resolver) lookup(ctx context.Context, site *url.URL) string {
	direct := fmt.Sprintf("%s://%s/favicon.ico", site.Scheme, site.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, direct, nil)
	if err == nil {
		resp, err := r.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return direct
			}
		}
	}

	return fmt.Sprintf(iconServiceFormat, site.Hostname())
}
