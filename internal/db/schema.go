package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the single supported schema version, stored in
// PRAGMA user_version.
const SchemaVersion = 1

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]',
    quantity   REAL NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    unit       TEXT,
    needed     REAL,
    expires_at DATETIME,
    notes      TEXT,
    image      BLOB,
    image_mime TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist and
// stamps the schema version. A database written by a newer version is rejected.
func EnsureSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	if version < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
	}
	return nil
}
