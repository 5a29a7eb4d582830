package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/filter"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/pantry"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Service *pantry.Service
}

type adjustRequest struct {
	Delta float64 `json:"delta"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.View(r.Context(), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		appError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req pantry.NewItem
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Add(r.Context(), req)
	if err != nil {
		appError(w, err, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, filter.Annotate(*item, h.Service.Now()))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		appError(w, err, "failed to get item")
		return
	}
	if item == nil {
		appError(w, apperr.NotFound("item not found"), "")
		return
	}
	jsonResponse(w, http.StatusOK, filter.Annotate(*item, h.Service.Now()))
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req pantry.Patch
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Edit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		appError(w, err, "failed to update item")
		return
	}
	if item == nil {
		appError(w, apperr.NotFound("item not found"), "")
		return
	}
	jsonResponse(w, http.StatusOK, filter.Annotate(*item, h.Service.Now()))
}

// Adjust handles POST /api/items/{id}/adjust.
func (h *ItemsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == 0 {
		jsonError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	item, err := h.Service.Adjust(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		appError(w, err, "failed to adjust item")
		return
	}
	if item == nil {
		appError(w, apperr.NotFound("item not found"), "")
		return
	}
	jsonResponse(w, http.StatusOK, filter.Annotate(*item, h.Service.Now()))
}

// Delete handles DELETE /api/items/{id}. Deleting a missing item succeeds.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		appError(w, err, "failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	ok, err := h.Service.SetImage(r.Context(), chi.URLParam(r, "id"), file)
	if err != nil {
		appError(w, err, "failed to save image")
		return
	}
	if !ok {
		appError(w, apperr.NotFound("item not found"), "")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.Service.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		appError(w, err, "failed to get image")
		return
	}
	if data == nil {
		appError(w, apperr.NotFound("no image"), "")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Tags handles GET /api/tags.
func (h *ItemsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		appError(w, err, "failed to list tags")
		return
	}
	tags := filter.Tags(items)
	if tags == nil {
		tags = []string{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// Seed handles POST /api/seed and returns the resulting listing.
func (h *ItemsHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.SeedDemo(r.Context()); err != nil {
		appError(w, err, "failed to seed demo items")
		return
	}
	h.List(w, r)
}

// Import handles POST /api/import. The body is a JSON array of exported
// records, or YAML when the content type says so.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	format := pantry.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = pantry.FormatYAML
	}

	records, err := pantry.DecodeRecords(http.MaxBytesReader(w, r.Body, 10<<20), format)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid import body")
		return
	}

	items, err := h.Service.Import(r.Context(), records)
	if err != nil {
		appError(w, err, "failed to import items")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"imported": len(items)})
}
