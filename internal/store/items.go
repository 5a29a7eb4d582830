package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/model"
)

const itemColumns = `id, name, tags, quantity, unit, needed, expires_at, notes, image_mime, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PutItem inserts or replaces an item by ID. The image columns are left alone.
func PutItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	if item.ID == "" {
		return apperr.Validation(map[string]string{"id": "This field is required"})
	}
	return putItem(ctx, db, item)
}

func putItem(ctx context.Context, ex execer, item *model.Item) error {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	var expiresAt sql.NullTime
	if item.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: item.ExpiresAt.UTC(), Valid: true}
	}
	var needed sql.NullFloat64
	if item.Needed != nil {
		needed = sql.NullFloat64{Float64: *item.Needed, Valid: true}
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO items (id, name, tags, quantity, unit, needed, expires_at, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     tags = excluded.tags,
		     quantity = excluded.quantity,
		     unit = excluded.unit,
		     needed = excluded.needed,
		     expires_at = excluded.expires_at,
		     notes = excluded.notes,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at`,
		item.ID, item.Name, string(tagsJSON), item.Quantity, nullString(item.Unit), needed,
		expiresAt, nullString(item.Notes), item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	if err != nil {
		return apperr.Unavailable("putting item", err)
	}
	return nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable("getting item", err)
	}
	return item, nil
}

// ListItems returns every stored item. Order is unspecified; callers sort.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items`)
	if err != nil {
		return nil, apperr.Unavailable("listing items", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Unavailable("scanning item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("listing items", err)
	}
	return items, nil
}

// DeleteItem removes an item. Deleting a missing ID is a no-op.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return apperr.Unavailable("deleting item", err)
	}
	return nil
}

// BulkUpsertItems puts all items in a single transaction.
func BulkUpsertItems(ctx context.Context, db *sql.DB, items []model.Item) error {
	for i := range items {
		if items[i].ID == "" {
			return apperr.Validation(map[string]string{
				fmt.Sprintf("items[%d].id", i): "This field is required",
			})
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	for i := range items {
		if err := putItem(ctx, tx, &items[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("committing bulk upsert", err)
	}
	return nil
}

// SetItemImage sets an item's image data. Returns false if the item does not exist.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string, now time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = MAX(created_at, ?) WHERE id = ?`,
		image, mime, now.UTC(), id,
	)
	if err != nil {
		return false, apperr.Unavailable("setting item image", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, apperr.Unavailable("setting item image", err)
	}
	return n > 0, nil
}

// GetItemImage returns an item's image data and MIME type.
// A nil slice means the item has no image or does not exist.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", apperr.Unavailable("getting item image", err)
	}
	return image, mime.String, nil
}

func scanItem(s rowScanner) (*model.Item, error) {
	var (
		item                   model.Item
		tagsJSON               string
		unit, notes, imageMime sql.NullString
		needed                 sql.NullFloat64
		expiresAt              sql.NullTime
	)
	err := s.Scan(&item.ID, &item.Name, &tagsJSON, &item.Quantity, &unit, &needed,
		&expiresAt, &notes, &imageMime, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of item %s: %w", item.ID, err)
	}
	item.Unit = unit.String
	item.Notes = notes.String
	item.ImageMime = imageMime.String
	if needed.Valid {
		item.Needed = &needed.Float64
	}
	if expiresAt.Valid {
		item.ExpiresAt = &expiresAt.Time
	}
	return &item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
