package pantry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/shramba/internal/metrics"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// demoItems returns the sample pantry: Milk is already expired, Pasta is low
// and Tomato Sauce expires in 90 days.
func (s *Service) demoItems() []model.Item {
	now := s.Now().UTC()
	day := 24 * time.Hour

	item := func(name, tag string, quantity float64, unit string, needed float64, expiresIn time.Duration) model.Item {
		n := needed
		it := model.Item{
			ID:        s.NewID(),
			Name:      name,
			Tags:      []string{tag},
			Quantity:  quantity,
			Unit:      unit,
			Needed:    &n,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if expiresIn != 0 {
			e := now.Add(expiresIn)
			it.ExpiresAt = &e
		}
		return it
	}

	return []model.Item{
		item("Rice", "grains", 2, "kg", 2, 0),
		item("Pasta", "grains", 1, "box", 3, 0),
		item("Tomato Sauce", "canned", 4, "can", 2, 90*day),
		item("Milk", "dairy", 1, "L", 1, -day),
	}
}

// SeedDemo writes the sample items in one batch.
func (s *Service) SeedDemo(ctx context.Context) (err error) {
	defer func() { metrics.ObserveMutation("seed", err) }()

	items := s.demoItems()
	if err := store.BulkUpsertItems(ctx, s.DB, items); err != nil {
		return fmt.Errorf("seeding demo items: %w", err)
	}
	slog.Info("demo items seeded", "count", len(items))
	return nil
}
