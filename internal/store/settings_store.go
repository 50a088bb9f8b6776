package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Audit actions.
const (
	ActionPut    = "put"
	ActionDelete = "delete"
)

// Change is one audited settings write.
type Change struct {
	ID     int64     `json:"id"`
	Action string    `json:"action"`
	Path   string    `json:"path,omitempty"`
	At     time.Time `json:"at"`
}

// SettingsStore keeps one JSON settings document per plugin.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a settings store.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored document, or "" when none is stored.
func (s *SettingsStore) Get(ctx context.Context, pluginID string) (string, error) {
	var doc string
	err := s.db.sql.QueryRowContext(ctx,
		"SELECT document FROM plugin_settings WHERE plugin_id = ?", pluginID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting settings for %s: %w", pluginID, err)
	}
	return doc, nil
}

// Put stores doc, which must be valid JSON. path names the key that
// changed, for the audit trail; it may be empty.
func (s *SettingsStore) Put(ctx context.Context, pluginID, doc, path string) error {
	if !gjson.Valid(doc) {
		return fmt.Errorf("settings for %s are not valid JSON", pluginID)
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plugin_settings (plugin_id, document, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(plugin_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
		`, pluginID, doc); err != nil {
			return fmt.Errorf("storing settings for %s: %w", pluginID, err)
		}
		return audit(ctx, tx, pluginID, ActionPut, path)
	})
}

// Delete removes the stored document. Deleting a missing document is not
// an error.
func (s *SettingsStore) Delete(ctx context.Context, pluginID string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM plugin_settings WHERE plugin_id = ?", pluginID); err != nil {
			return fmt.Errorf("deleting settings for %s: %w", pluginID, err)
		}
		return audit(ctx, tx, pluginID, ActionDelete, "")
	})
}

// History returns up to limit changes for pluginID, newest first.
func (s *SettingsStore) History(ctx context.Context, pluginID string, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT id, action, path, changed_at FROM settings_audit
		WHERE plugin_id = ? ORDER BY id DESC LIMIT ?
	`, pluginID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying settings history: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c  Change
			at string
		)
		if err := rows.Scan(&c.ID, &c.Action, &c.Path, &at); err != nil {
			return nil, fmt.Errorf("scanning settings history: %w", err)
		}
		c.At, _ = time.Parse("2006-01-02T15:04:05.999Z", at)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SettingsStore) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func audit(ctx context.Context, tx *sql.Tx, pluginID, action, path string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO settings_audit (plugin_id, action, path) VALUES (?, ?, ?)",
		pluginID, action, path,
	); err != nil {
		return fmt.Errorf("recording settings audit: %w", err)
	}
	return nil
}
