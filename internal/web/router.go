package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/erazemk/shramba/internal/metrics"
	"github.com/erazemk/shramba/internal/pantry"
	webembed "github.com/erazemk/shramba/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(svc *pantry.Service, isDevelopment bool) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Service:   svc,
		Templates: templates,
	}

	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:",
		IsDevelopment:         isDevelopment,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, metrics.Middleware, sec.Handler)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	r.Get("/", s.ItemsPage)
	r.Post("/items", s.ItemCreateSubmit)
	r.Get("/items/{id}", s.ItemDetailPage)
	r.Post("/items/{id}", s.ItemUpdateSubmit)
	r.Post("/items/{id}/adjust", s.ItemAdjustSubmit)
	r.Post("/items/{id}/delete", s.ItemDeleteSubmit)
	r.Post("/items/{id}/image", s.ItemImageSubmit)
	r.Get("/items/{id}/image", s.ItemImageGet)
	r.Post("/seed", s.SeedSubmit)
	r.Post("/settings/theme", s.ThemeSubmit)

	return r, nil
}
