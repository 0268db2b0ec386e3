package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/48Nauts-Operator/hubble-sub000/internal/model"
	"github.com/48Nauts-Operator/hubble-sub000/internal/service"
)

// ShareAdminHandler serves the authenticated share management endpoints.
type ShareAdminHandler struct {
	shares *service.ShareService
	logger *slog.Logger
}

func NewShareAdminHandler(shares *service.ShareService, logger *slog.Logger) *ShareAdminHandler {
	return &ShareAdminHandler{shares: shares, logger: logger}
}

type shareRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	AccessType  string                  `json:"accessType" validate:"omitempty,oneof=public restricted expiring"`
	ExpiresAt   *time.Time              `json:"expiresAt"`
	MaxUses     *int64                  `json:"maxUses"`
	Filter      model.ShareFilter       `json:"filter"`
	Theme       string                  `json:"theme"`
	Layout      string                  `json:"layout"`
	Permissions model.SharePermissions  `json:"permissions"`
	Branding    *model.ShareBranding    `json:"branding"`
}

func (req *shareRequest) input() service.ShareInput {
	return service.ShareInput{
		Name:        req.Name,
		Description: req.Description,
		AccessType:  req.AccessType,
		ExpiresAt:   req.ExpiresAt,
		MaxUses:     req.MaxUses,
		Filter:      req.Filter,
		Theme:       req.Theme,
		Layout:      req.Layout,
		Permissions: req.Permissions,
		Branding:    req.Branding,
	}
}

// HandleList handles GET /api/shares.
func (h *ShareAdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	summaries, total, err := h.shares.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shares": summaries,
		"total":  total,
	})
}

// HandleGet handles GET /api/shares/{id}.
func (h *ShareAdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.shares.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleCreate handles POST /api/shares.
func (h *ShareAdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.shares.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleUpdate handles PUT /api/shares/{id}.
func (h *ShareAdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.shares.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /api/shares/{id}.
func (h *ShareAdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.shares.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
