package api

import (
	"net/http"

	"github.com/erazemk/shramba/internal/pantry"
)

// SettingsHandler handles UI preference endpoints.
type SettingsHandler struct {
	Service *pantry.Service
}

type themeBody struct {
	Theme string `json:"theme"`
}

// GetTheme handles GET /api/settings/theme.
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.Service.Theme(r.Context())
	if err != nil {
		appError(w, err, "failed to get theme")
		return
	}
	jsonResponse(w, http.StatusOK, themeBody{Theme: theme})
}

// SetTheme handles PUT /api/settings/theme.
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Service.SetTheme(r.Context(), req.Theme); err != nil {
		appError(w, err, "failed to set theme")
		return
	}
	jsonResponse(w, http.StatusOK, req)
}
