package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns a fresh in-memory pantry database with the items and
// settings tables created and user_version stamped to SchemaVersion. The
// database is closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
