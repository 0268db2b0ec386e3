package handler

import (
	"log/slog"
	"net/http"

	"github.com/48Nauts-Operator/hubble-sub000/internal/discovery"
)

// DiscoveryHandler serves the admin container discovery endpoints. svc is
// nil when discovery is disabled or the Docker daemon was unreachable at
// startup; the endpoints then answer 503.
type DiscoveryHandler struct {
	svc    *discovery.Service
	logger *slog.Logger
}

func NewDiscoveryHandler(svc *discovery.Service, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc, logger: logger}
}

// HandleContainers handles GET /api/discovery/containers.
func (h *DiscoveryHandler) HandleContainers(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		h.unavailable(w)
		return
	}

	containers, err := h.svc.Containers(r.Context())
	if err != nil {
		h.logger.Error("failed to list containers", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

// HandleSync handles POST /api/discovery/sync.
func (h *DiscoveryHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		h.unavailable(w)
		return
	}

	if err := h.svc.Sync(r.Context()); err != nil {
		h.logger.Error("manual sync failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DiscoveryHandler) unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
		Error:   "unavailable",
		Message: "container discovery is not enabled",
	})
}
