package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/filter"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/pantry"
)

type itemsPage struct {
	PageData
	Criteria filter.Criteria
	Items    []filter.View
	Tags     []string
	Statuses []model.Status
	Form     pantry.NewItem
}

type itemPage struct {
	PageData
	Item filter.View
}

// ItemsPage handles GET /.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	s.renderItems(w, r, http.StatusOK, s.page(r, "Pantry"), pantry.NewItem{})
}

func (s *Server) renderItems(w http.ResponseWriter, r *http.Request, status int, pd PageData, form pantry.NewItem) {
	criteria := filter.ParseCriteria(r.URL.Query())
	items, err := s.Service.List(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	s.Templates.Render(w, status, "items.html", &itemsPage{
		PageData: pd,
		Criteria: criteria,
		Items:    filter.Apply(items, criteria, s.Service.Now()),
		Tags:     filter.Tags(items),
		Statuses: []model.Status{model.StatusOK, model.StatusLow, model.StatusExpired},
		Form:     form,
	})
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	item, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	s.Templates.Render(w, http.StatusOK, "item_detail.html", &itemPage{
		PageData: s.page(r, item.Name),
		Item:     filter.Annotate(*item, s.Service.Now()),
	})
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in, fields := parseNewItem(r)
	if len(fields) == 0 {
		_, err := s.Service.Add(r.Context(), in)
		if err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if !errors.Is(err, apperr.ErrValidation) {
			slog.Error("failed to create item", "error", err)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		fields = apperr.FieldsOf(err)
	}

	pd := s.page(r, "Pantry")
	pd.Error = "The item could not be added."
	pd.Fields = fields
	s.renderItems(w, r, http.StatusBadRequest, pd, in)
}

// ItemUpdateSubmit handles POST /items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, fields := parsePatch(r)
	if len(fields) == 0 {
		item, err := s.Service.Edit(r.Context(), id, p)
		switch {
		case err == nil && item == nil:
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		case err == nil:
			http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
			return
		case !errors.Is(err, apperr.ErrValidation):
			slog.Error("failed to update item", "id", id, "error", err)
			http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
			return
		}
		fields = apperr.FieldsOf(err)
	}

	item, err := s.Service.Get(r.Context(), id)
	if err != nil || item == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	pd := s.page(r, item.Name)
	pd.Error = "The changes could not be saved."
	pd.Fields = fields
	s.Templates.Render(w, http.StatusBadRequest, "item_detail.html", &itemPage{
		PageData: pd,
		Item:     filter.Annotate(*item, s.Service.Now()),
	})
}

// ItemAdjustSubmit handles POST /items/{id}/adjust.
func (s *Server) ItemAdjustSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	delta, err := strconv.ParseFloat(r.FormValue("delta"), 64)
	if err != nil || delta == 0 || !model.Finite(delta) {
		http.Error(w, "invalid delta", http.StatusBadRequest)
		return
	}

	if _, err := s.Service.Adjust(r.Context(), id, delta); err != nil {
		slog.Error("failed to adjust item", "id", id, "error", err)
	}
	redirectBack(w, r, "/items/"+id)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Service.Remove(r.Context(), id); err != nil {
		slog.Error("failed to delete item", "id", id, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ItemImageSubmit handles POST /items/{id}/image.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if _, err := s.Service.SetImage(r.Context(), id, file); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			http.Error(w, apperr.FieldsOf(err)["image"], http.StatusBadRequest)
			return
		}
		slog.Error("failed to save image", "id", id, "error", err)
	}
	http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := s.Service.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// SeedSubmit handles POST /seed.
func (s *Server) SeedSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.SeedDemo(r.Context()); err != nil {
		slog.Error("failed to seed demo items", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// redirectBack sends the browser to the local path in the "next" form value,
// or to fallback when there is none.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	next := r.FormValue("next")
	if !localPath(next) {
		next = fallback
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// localPath reports whether next is a path on this site. Browsers read a
// backslash as a slash, so "/\host" would leave the site.
func localPath(next string) bool {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// parseNewItem reads the add form. Fields that do not parse are reported
// with the same keys the validator uses.
func parseNewItem(r *http.Request) (pantry.NewItem, map[string]string) {
	fields := map[string]string{}
	in := pantry.NewItem{
		Name:  r.FormValue("name"),
		Tags:  splitTags(r.FormValue("tags")),
		Unit:  r.FormValue("unit"),
		Notes: r.FormValue("notes"),
	}
	if q, _ := parseNumber(r.FormValue("quantity"), "quantity", fields); q != nil {
		in.Quantity = *q
	}
	in.Needed, _ = parseNumber(r.FormValue("needed"), "needed", fields)
	in.ExpiresAt, _ = parseDate(r.FormValue("expires_at"), fields)
	return in, fields
}

// parsePatch reads the edit form, which always carries every field. Empty
// needed and expiry inputs clear the stored values.
func parsePatch(r *http.Request) (pantry.Patch, map[string]string) {
	fields := map[string]string{}
	name := r.FormValue("name")
	unit := r.FormValue("unit")
	notes := r.FormValue("notes")
	p := pantry.Patch{
		Name:  &name,
		Tags:  splitTags(r.FormValue("tags")),
		Unit:  &unit,
		Notes: &notes,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if q, ok := parseNumber(r.FormValue("quantity"), "quantity", fields); ok {
		if q == nil {
			zero := 0.0
			q = &zero
		}
		p.Quantity = q
	}
	if n, ok := parseNumber(r.FormValue("needed"), "needed", fields); ok {
		p.Needed = n
		p.ClearNeeded = n == nil
	}
	if e, ok := parseDate(r.FormValue("expires_at"), fields); ok {
		p.ExpiresAt = e
		p.ClearExpiresAt = e == nil
	}
	return p, fields
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return model.NormalizeTags(strings.Split(s, ","))
}

// parseNumber returns nil for an empty input. ok is false when the input is
// not a finite number, in which case the problem is recorded in fields.
func parseNumber(s, field string, fields map[string]string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !model.Finite(v) {
		fields[field] = "Must be a number"
		return nil, false
	}
	return &v, true
}

func parseDate(s string, fields map[string]string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		fields["expires_at"] = "Must be a date"
		return nil, false
	}
	return &t, true
}
