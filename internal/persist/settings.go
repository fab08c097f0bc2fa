package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveSetting stores value under key, replacing any previous value.
func (d *DB) SaveSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("save setting: empty key")
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(d.now()))
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// LoadSetting returns the value stored under key.
// Returns ok=false if the key has never been saved.
func (d *DB) LoadSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = d.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load setting %s: %w", key, err)
	}
	return value, true, nil
}
