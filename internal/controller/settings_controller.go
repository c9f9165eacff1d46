package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sahelpay/momo/internal/settings"
)

// SettingsController handles settings CRUD.
type SettingsController struct {
	store settings.Store
}

// NewSettingsController creates a new SettingsController.
func NewSettingsController(store settings.Store) *SettingsController {
	return &SettingsController{store: store}
}

// List handles GET /api/v1/settings
func (h *SettingsController) List(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]SettingResponse, 0, len(values))
	for k, v := range values {
		resp = append(resp, SettingResponse{Key: k, Value: v})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/settings/{key}
func (h *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

// Set handles PUT /api/v1/settings/{key}
func (h *SettingsController) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetSettingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.Set(r.Context(), key, req.Value); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: req.Value})
}

// Delete handles DELETE /api/v1/settings/{key}
func (h *SettingsController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
