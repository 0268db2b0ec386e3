package handler

import (
	"log/slog"
	"net/http"

	"github.com/48Nauts-Operator/hubble-sub000/internal/service"
)

// GroupHandler serves the admin group CRUD endpoints.
type GroupHandler struct {
	groups *service.GroupService
	logger *slog.Logger
}

func NewGroupHandler(groups *service.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

type groupRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder"`
}

func (req *groupRequest) input() service.GroupInput {
	return service.GroupInput{
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	}
}

// HandleList handles GET /api/groups.
func (h *GroupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleGet handles GET /api/groups/{id}.
func (h *GroupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleCreate handles POST /api/groups.
func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// HandleUpdate handles PUT /api/groups/{id}.
func (h *GroupHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleDelete handles DELETE /api/groups/{id}.
func (h *GroupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
