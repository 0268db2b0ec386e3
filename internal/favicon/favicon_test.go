package favicon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestResolver(t *testing.T, maxSize int, ttl time.Duration) *Resolver {
	t.Helper()
	return New(maxSize, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve_DirectFavicon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/favicon.ico" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := newTestResolver(t, 16, time.Minute)
	r.SetClient(srv.Client())

	icon := r.Resolve(context.Background(), srv.URL+"/dashboard")
	if icon != srv.URL+"/favicon.ico" {
		t.Errorf("Resolve() = %q, want the site's own favicon", icon)
	}
}

func TestResolve_FallbackToIconService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := newTestResolver(t, 16, time.Minute)
	r.SetClient(srv.Client())

	icon := r.Resolve(context.Background(), srv.URL)
	if !strings.Contains(icon, "s2/favicons") {
		t.Errorf("Resolve() = %q, want icon service fallback", icon)
	}
}

func TestResolve_CachesPerHost(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newTestResolver(t, 16, time.Minute)
	r.SetClient(srv.Client())

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), srv.URL+"/page")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("origin hits = %d, want 1 (cache miss only on first lookup)", got)
	}
}

func TestResolve_ExpiredEntryRefetches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newTestResolver(t, 16, time.Nanosecond)
	r.SetClient(srv.Client())

	r.Resolve(context.Background(), srv.URL)
	time.Sleep(time.Millisecond)
	r.Resolve(context.Background(), srv.URL)

	if got := hits.Load(); got != 2 {
		t.Errorf("origin hits = %d, want 2 after expiry", got)
	}
}

func TestResolve_BoundedCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := newTestResolver(t, 4, time.Minute)
	r.SetClient(&http.Client{Timeout: 100 * time.Millisecond})

	for i := 0; i < 10; i++ {
		// Unresolvable hosts still cache the fallback result per host.
		r.Resolve(context.Background(), fmt.Sprintf("http://host-%d.invalid", i))
	}
	if r.Len() > 4 {
		t.Errorf("cache size = %d, want at most 4", r.Len())
	}
}

func TestResolve_UnparseableURL(t *testing.T) {
	r := newTestResolver(t, 16, time.Minute)

	if icon := r.Resolve(context.Background(), "not a url"); icon != "" {
		t.Errorf("Resolve() = %q, want empty for junk input", icon)
	}
}
