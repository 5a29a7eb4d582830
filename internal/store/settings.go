package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/shramba/internal/apperr"
)

// Setting keys.
const (
	SettingTheme = "theme"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// GetSetting returns the value stored under key and whether it exists.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Unavailable("getting setting "+key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return apperr.Unavailable("storing setting "+key, err)
	}
	return nil
}

// GetTheme returns the stored UI theme, defaulting to light.
func GetTheme(ctx context.Context, db *sql.DB) (string, error) {
	theme, ok, err := GetSetting(ctx, db, SettingTheme)
	if err != nil {
		return "", err
	}
	if !ok || !validTheme(theme) {
		return ThemeLight, nil
	}
	return theme, nil
}

// SetTheme stores the UI theme. Only light and dark are accepted.
func SetTheme(ctx context.Context, db *sql.DB, theme string) error {
	if !validTheme(theme) {
		return apperr.Validation(map[string]string{"theme": "Must be one of light, dark"})
	}
	return SetSetting(ctx, db, SettingTheme, theme)
}

func validTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}
