package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/shramba/internal/store"
)

// ThemeSubmit handles POST /settings/theme. Without an explicit theme value
// it toggles between light and dark.
func (s *Server) ThemeSubmit(w http.ResponseWriter, r *http.Request) {
	theme := r.FormValue("theme")
	if theme == "" {
		current, err := s.Service.Theme(r.Context())
		if err != nil {
			slog.Error("failed to load theme", "error", err)
			redirectBack(w, r, "/")
			return
		}
		theme = store.ThemeDark
		if current == store.ThemeDark {
			theme = store.ThemeLight
		}
	}

	if err := s.Service.SetTheme(r.Context(), theme); err != nil {
		slog.Warn("failed to set theme", "theme", theme, "error", err)
	}
	redirectBack(w, r, "/")
}
