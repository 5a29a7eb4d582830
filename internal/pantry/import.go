package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/shramba/internal/apperr"
	"github.com/erazemk/shramba/internal/metrics"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
)

// Record is an item as exported by the browser version of the pantry. Older
// exports carry category instead of tags and minThreshold instead of needed.
type Record struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Quantity     float64  `json:"quantity" yaml:"quantity"`
	Unit         string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Needed       *float64 `json:"needed,omitempty" yaml:"needed,omitempty"`
	MinThreshold *float64 `json:"minThreshold,omitempty" yaml:"minThreshold,omitempty"`
	ExpiresAt    string   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Notes        string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Format is an import file encoding.
type Format string

// Import formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeRecords reads a list of records in the given format.
func DecodeRecords(r io.Reader, format Format) ([]Record, error) {
	var records []Record
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding JSON records: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decoding YAML records: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
	return records, nil
}

// ReadRecordsFile opens path and decodes the records it holds.
func ReadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()
	return DecodeRecords(f, FormatFromPath(path))
}

// Import converts records to items and stores them in one batch. Legacy
// category values become tags and minThreshold stands in for a missing
// needed amount. Records without an ID get a new one. The original creation
// time is kept when it is valid and not in the future; UpdatedAt is always
// the import time.
func (s *Service) Import(ctx context.Context, records []Record) (items []model.Item, err error) {
	defer func() { metrics.ObserveMutation("import", err) }()

	now := s.Now().UTC()
	items = make([]model.Item, 0, len(records))
	for i, rec := range records {
		item, err := s.fromRecord(rec, now)
		if err != nil {
			return nil, prefixFields(err, fmt.Sprintf("records[%d].", i))
		}
		items = append(items, *item)
	}

	if err := store.BulkUpsertItems(ctx, s.DB, items); err != nil {
		return nil, fmt.Errorf("importing items: %w", err)
	}
	slog.Info("items imported", "count", len(items))
	return items, nil
}

func (s *Service) fromRecord(rec Record, now time.Time) (*model.Item, error) {
	item := &model.Item{
		ID:        strings.TrimSpace(rec.ID),
		Name:      strings.TrimSpace(rec.Name),
		Tags:      model.NormalizeTags(append(append([]string{}, rec.Tags...), rec.Category)),
		Quantity:  rec.Quantity,
		Unit:      strings.TrimSpace(rec.Unit),
		Needed:    rec.Needed,
		Notes:     strings.TrimSpace(rec.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if item.ID == "" {
		item.ID = s.NewID()
	}
	if item.Needed == nil {
		item.Needed = rec.MinThreshold
	}

	if rec.ExpiresAt != "" {
		t, err := parseTimestamp(rec.ExpiresAt)
		if err != nil {
			return nil, apperr.Validation(map[string]string{"expiresAt": "Must be an ISO 8601 timestamp"})
		}
		item.ExpiresAt = &t
	}
	if rec.CreatedAt != "" {
		if t, err := parseTimestamp(rec.CreatedAt); err == nil && !t.After(now) {
			item.CreatedAt = t
		}
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// parseTimestamp accepts RFC 3339 timestamps and plain dates.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// prefixFields returns err with every validation field key prefixed.
func prefixFields(err error, prefix string) error {
	fields := apperr.FieldsOf(err)
	if fields == nil {
		return err
	}
	prefixed := make(map[string]string, len(fields))
	for k, v := range fields {
		prefixed[prefix+k] = v
	}
	return apperr.Validation(prefixed)
}
