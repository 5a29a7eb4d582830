package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/shramba/internal/metrics"
	"github.com/erazemk/shramba/internal/pantry"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *pantry.Service) http.Handler {
	itemsHandler := &ItemsHandler{Service: svc}
	settingsHandler := &SettingsHandler{Service: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		// Items.
		r.Get("/items", itemsHandler.List)
		r.Post("/items", itemsHandler.Create)
		r.Get("/items/{id}", itemsHandler.Get)
		r.Patch("/items/{id}", itemsHandler.Update)
		r.Delete("/items/{id}", itemsHandler.Delete)
		r.Post("/items/{id}/adjust", itemsHandler.Adjust)
		r.Put("/items/{id}/image", itemsHandler.UploadImage)
		r.Get("/items/{id}/image", itemsHandler.GetImage)
		r.Get("/tags", itemsHandler.Tags)

		// Bulk writes.
		r.Post("/seed", itemsHandler.Seed)
		r.Post("/import", itemsHandler.Import)

		// Preferences.
		r.Get("/settings/theme", settingsHandler.GetTheme)
		r.Put("/settings/theme", settingsHandler.SetTheme)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
