// Package pantry implements the pantry operations on top of the item store:
// it assigns IDs and timestamps, validates input and writes through to SQLite.
package pantry

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/filter"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/metrics"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// Service holds the dependencies of the pantry operations.
type Service struct {
	DB    *sql.DB
	Now   func() time.Time
	NewID func() string
}

// NewService returns a Service using the wall clock and random UUIDs.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db, Now: time.Now, NewID: uuid.NewString}
}

// NewItem is the caller-supplied part of a new item.
type NewItem struct {
	Name      string     `json:"name"`
	Tags      []string   `json:"tags"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	Needed    *float64   `json:"needed"`
	ExpiresAt *time.Time `json:"expires_at"`
	Notes     string     `json:"notes"`
}

// Patch is a partial update. Nil fields are left unchanged; a nil Tags slice
// keeps the tags while an empty one clears them.
type Patch struct {
	Name           *string    `json:"name"`
	Tags           []string   `json:"tags"`
	Quantity       *float64   `json:"quantity"`
	Unit           *string    `json:"unit"`
	Needed         *float64   `json:"needed"`
	ClearNeeded    bool       `json:"clear_needed"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiresAt bool       `json:"clear_expires_at"`
	Notes          *string    `json:"notes"`
}

func (p *Patch) apply(item *model.Item) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Tags != nil {
		item.Tags = model.NormalizeTags(p.Tags)
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.ClearNeeded {
		item.Needed = nil
	} else if p.Needed != nil {
		n := *p.Needed
		item.Needed = &n
	}
	if p.ClearExpiresAt {
		item.ExpiresAt = nil
	} else if p.ExpiresAt != nil {
		e := *p.ExpiresAt
		item.ExpiresAt = &e
	}
	if p.Notes != nil {
		item.Notes = strings.TrimSpace(*p.Notes)
	}
}

// Add validates and stores a new item with a fresh ID and timestamps.
func (s *Service) Add(ctx context.Context, in NewItem) (item *model.Item, err error) {
	defer func() { metrics.ObserveMutation("add", err) }()

	now := s.Now().UTC()
	item = &model.Item{
		ID:        s.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Tags:      model.NormalizeTags(in.Tags),
		Quantity:  in.Quantity,
		Unit:      strings.TrimSpace(in.Unit),
		Needed:    in.Needed,
		ExpiresAt: in.ExpiresAt,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := store.PutItem(ctx, s.DB, item); err != nil {
		return nil, fmt.Errorf("adding item: %w", err)
	}

	slog.Info("item added", "id", item.ID, "item", item.Name)
	return item, nil
}

// Get returns an item by ID, or nil if it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*model.Item, error) {
	return store.GetItem(ctx, s.DB, id)
}

// Edit merges p over the stored item and refreshes UpdatedAt. If no item has
// the given ID, Edit returns nil without an error and changes nothing.
func (s *Service) Edit(ctx context.Context, id string, p Patch) (item *model.Item, err error) {
	defer func() { metrics.ObserveMutation("edit", err) }()

	item, err = store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("editing item: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	p.apply(item)
	item.Touch(s.Now().UTC())
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := store.PutItem(ctx, s.DB, item); err != nil {
		return nil, fmt.Errorf("editing item: %w", err)
	}

	slog.Info("item updated", "id", item.ID, "item", item.Name)
	return item, nil
}

// Adjust adds delta to an item's quantity, never going below zero.
// Returns nil if the item does not exist.
func (s *Service) Adjust(ctx context.Context, id string, delta float64) (item *model.Item, err error) {
	defer func() { metrics.ObserveMutation("adjust", err) }()

	if !model.Finite(delta) {
		return nil, apperr.Validation(map[string]string{"delta": "Must be a finite number"})
	}
	item, err = store.AdjustItemQuantity(ctx, s.DB, id, delta, s.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("adjusting item: %w", err)
	}
	if item != nil {
		slog.Info("item quantity adjusted", "id", item.ID, "item", item.Name, "delta", delta, "quantity", item.Quantity)
	}
	return item, nil
}

// Remove deletes an item. Removing a missing item is not an error.
func (s *Service) Remove(ctx context.Context, id string) (err error) {
	defer func() { metrics.ObserveMutation("remove", err) }()

	if err := store.DeleteItem(ctx, s.DB, id); err != nil {
		return fmt.Errorf("removing item: %w", err)
	}
	slog.Info("item removed", "id", id)
	return nil
}

// List returns every item in unspecified order.
func (s *Service) List(ctx context.Context) ([]model.Item, error) {
	items, err := store.ListItems(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	metrics.SetItemCount(len(items))
	return items, nil
}

// View re-reads the full collection and applies c at the current time.
func (s *Service) View(ctx context.Context, c filter.Criteria) ([]filter.View, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items, c, s.Now()), nil
}

// SetImage processes an uploaded photo and attaches it to an item.
// Returns false if the item does not exist.
func (s *Service) SetImage(ctx context.Context, id string, r io.Reader) (ok bool, err error) {
	defer func() { metrics.ObserveMutation("set_image", err) }()

	result, err := imaging.Process(r)
	if err != nil {
		return false, apperr.Validation(map[string]string{"image": err.Error()})
	}
	ok, err = store.SetItemImage(ctx, s.DB, id, result.Data, result.MIME, s.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("setting image: %w", err)
	}
	if ok {
		slog.Info("item image uploaded", "id", id, "bytes", len(result.Data))
	}
	return ok, nil
}

// Image returns an item's photo, or nil data if there is none.
func (s *Service) Image(ctx context.Context, id string) ([]byte, string, error) {
	return store.GetItemImage(ctx, s.DB, id)
}

// Theme returns the stored UI theme.
func (s *Service) Theme(ctx context.Context) (string, error) {
	return store.GetTheme(ctx, s.DB)
}

// SetTheme stores the UI theme.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	if err := store.SetTheme(ctx, s.DB, theme); err != nil {
		return err
	}
	slog.Info("theme changed", "theme", theme)
	return nil
}
