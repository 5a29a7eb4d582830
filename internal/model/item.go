package model

import (
	"math"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/apperr"
)

// Item represents a single pantry entry.
type Item struct {
	ID        string     `json:"id"`
	Name      string     `json:"name" validate:"required,max=200"`
	Tags      []string   `json:"tags" validate:"max=32,dive,required,max=64"`
	Quantity  float64    `json:"quantity" validate:"finite,gte=0"`
	Unit      string     `json:"unit,omitempty" validate:"max=32"`
	Needed    *float64   `json:"needed,omitempty" validate:"omitempty,finite,gte=0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Notes     string     `json:"notes,omitempty" validate:"max=2000"`
	ImageMime string     `json:"image_mime,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Status is the derived stock status of an item.
type Status string

// Item statuses.
const (
	StatusOK      Status = "ok"
	StatusLow     Status = "low"
	StatusExpired Status = "expired"
)

// LowStockRatio is the share of the needed amount at or below which an item
// counts as low.
const LowStockRatio = 0.4

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	return s == StatusOK || s == StatusLow || s == StatusExpired
}

// Expired reports whether the item's expiry is strictly before now.
func (i *Item) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

// Low reports whether the quantity is at or below LowStockRatio of Needed.
// Items without a needed amount are never low.
func (i *Item) Low() bool {
	if i.Needed == nil {
		return false
	}
	return i.Quantity <= *i.Needed*LowStockRatio
}

// StatusAt returns the item's status at now. Expired takes precedence over low.
func (i *Item) StatusAt(now time.Time) Status {
	switch {
	case i.Expired(now):
		return StatusExpired
	case i.Low():
		return StatusLow
	default:
		return StatusOK
	}
}

// AddQuantity adds delta to the quantity, clamping the result at zero.
// A non-finite delta or a sum that overflows is rejected and leaves the
// quantity unchanged.
func (i *Item) AddQuantity(delta float64) error {
	if !Finite(delta) {
		return apperr.Validation(map[string]string{"delta": msgFinite})
	}
	q := i.Quantity + delta
	if !Finite(q) {
		return apperr.Validation(map[string]string{"quantity": msgFinite})
	}
	i.Quantity = max(q, 0)
	return nil
}

// Finite reports whether v is neither infinite nor NaN.
func Finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Touch sets UpdatedAt to now, never earlier than CreatedAt.
func (i *Item) Touch(now time.Time) {
	if now.Before(i.CreatedAt) {
		now = i.CreatedAt
	}
	i.UpdatedAt = now
}

// NormalizeTags trims tags, drops empty ones and removes duplicates
// while keeping the first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

// SearchText returns the lowercased text that free-text queries match against.
func (i *Item) SearchText() string {
	return strings.ToLower(i.Name + " " + i.Notes + " " + strings.Join(i.Tags, " "))
}
