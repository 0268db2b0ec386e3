package handler

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/service"
)

// SharePublicHandler serves the unauthenticated visitor endpoints: share
// resolution and overlay personalization.
type SharePublicHandler struct {
	shares *service.ShareService
	logger *slog.Logger
}

func NewSharePublicHandler(shares *service.ShareService, logger *slog.Logger) *SharePublicHandler {
	return &SharePublicHandler{shares: shares, logger: logger}
}

// HandleResolve handles GET /api/public/shares/{uid}.
func (h *SharePublicHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.shares.Resolve(r.Context(), r.PathValue("uid"), service.RequestInfo{
		SessionID: sessionID(r),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// HandleGetOverlay handles GET /api/public/shares/{uid}/overlay.
func (h *SharePublicHandler) HandleGetOverlay(w http.ResponseWriter, r *http.Request) {
	overlay, err := h.shares.Overlay(r.Context(), r.PathValue("uid"), sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}

type overlayRequest struct {
	PersonalBookmarks []model.PersonalBookmark `json:"personalBookmarks"`
	PersonalGroups    []model.PersonalGroup    `json:"personalGroups"`
	HiddenBookmarks   []string                 `json:"hiddenBookmarks"`
	FavoriteBookmarks []string                 `json:"favoriteBookmarks"`
	CustomTags        map[string][]string      `json:"customTags"`
	ViewMode          *string                  `json:"viewMode" validate:"omitempty,oneof=grid list compact"`
	SortPreference    *string                  `json:"sortPreference" validate:"omitempty,oneof=name recent clicks"`
}

// HandleUpdateOverlay handles PUT /api/public/shares/{uid}/overlay.
func (h *SharePublicHandler) HandleUpdateOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	overlay, err := h.shares.UpdateOverlay(r.Context(), r.PathValue("uid"), sessionID(r),
		service.OverlayUpdate{
			PersonalBookmarks: req.PersonalBookmarks,
			PersonalGroups:    req.PersonalGroups,
			HiddenBookmarks:   req.HiddenBookmarks,
			FavoriteBookmarks: req.FavoriteBookmarks,
			CustomTags:        req.CustomTags,
			ViewMode:          req.ViewMode,
			SortPreference:    req.SortPreference,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}

type personalBookmarkRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	URL         string   `json:"url" validate:"required,url"`
	Icon        string   `json:"icon"`
	GroupName   string   `json:"groupName" validate:"max=100"`
	Environment string   `json:"environment"`
	Tags        []string `json:"tags" validate:"max=20"`
}

// HandleAddPersonalBookmark handles POST /api/public/shares/{uid}/overlay/bookmarks.
func (h *SharePublicHandler) HandleAddPersonalBookmark(w http.ResponseWriter, r *http.Request) {
	var req personalBookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	overlay, err := h.shares.AddPersonalBookmark(r.Context(), r.PathValue("uid"), sessionID(r),
		service.PersonalBookmarkInput{
			Title:       req.Title,
			URL:         req.URL,
			Icon:        req.Icon,
			GroupName:   req.GroupName,
			Environment: req.Environment,
			Tags:        req.Tags,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	// The newly appended bookmark is the created record.
	created := overlay.PersonalBookmarks[len(overlay.PersonalBookmarks)-1]
	writeJSON(w, http.StatusCreated, created)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
