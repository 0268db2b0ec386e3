package handler

import (
	"log/slog"
	"net/http"

	"github.com/48Nauts-Operator/hubble-sub000/internal/service"
)

// BookmarkHandler serves the admin bookmark CRUD endpoints.
type BookmarkHandler struct {
	bookmarks *service.BookmarkService
	logger    *slog.Logger
}

func NewBookmarkHandler(bookmarks *service.BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, logger: logger}
}

type bookmarkRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	URL         string   `json:"url" validate:"required,url"`
	Description string   `json:"description" validate:"max=2000"`
	Icon        string   `json:"icon"`
	GroupID     string   `json:"groupId"`
	Environment string   `json:"environment"`
	Tags        []string `json:"tags" validate:"max=20"`
}

func (req *bookmarkRequest) input() service.BookmarkInput {
	return service.BookmarkInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Icon:        req.Icon,
		GroupID:     req.GroupID,
		Environment: req.Environment,
		Tags:        req.Tags,
	}
}

// HandleList handles GET /api/bookmarks.
func (h *BookmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.bookmarks.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// HandleGet handles GET /api/bookmarks/{id}.
func (h *BookmarkHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bookmark, err := h.bookmarks.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmark)
}

// HandleCreate handles POST /api/bookmarks.
func (h *BookmarkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	bookmark, err := h.bookmarks.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookmark)
}

// HandleUpdate handles PUT /api/bookmarks/{id}.
func (h *BookmarkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	bookmark, err := h.bookmarks.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmark)
}

// HandleDelete handles DELETE /api/bookmarks/{id}.
func (h *BookmarkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.bookmarks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClick handles POST /api/public/bookmarks/{id}/click. Click recording
// is public so shared dashboards count too.
func (h *BookmarkHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	if err := h.bookmarks.RecordClick(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
