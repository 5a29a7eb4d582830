package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/model"
)

// AdjustItemQuantity adds delta (which may be negative) to an item's quantity
// inside a transaction. The result is clamped at zero; a non-finite delta or
// result is a validation error. Returns nil if the item does not exist.
func AdjustItemQuantity(ctx context.Context, db *sql.DB, id string, delta float64, now time.Time) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable("checking current quantity", err)
	}

	if err := item.AddQuantity(delta); err != nil {
		return nil, err
	}
	item.Touch(now)

	if err := putItem(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Unavailable("committing adjustment", err)
	}
	return item, nil
}
