package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)
`

const currentProfileKey = "current_profile_id"

// Cache durable on-device record set. It never talks to the network and is only read at
// reconciliation time; the detector also reads the persisted current profile from it.
type Cache struct {
	db     *sql.DB
	logger *zap.Logger
}

// New applies the schema and returns the cache
func New(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Cache, error) {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply cache schema: %w", err)
		}
	}
	return &Cache{db: db, logger: logger}, nil
}

// GetAll returns cached records, newest first
func (c *Cache) GetAll(ctx context.Context) ([]models.Record, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT payload FROM records ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query cached records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan cached record: %w", err)
		}
		var rec models.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			// one corrupt row must not hide the rest of the offline set
			c.logger.Warn("Skipping unreadable cached record", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save upserts a record
func (c *Cache) Save(ctx context.Context, record models.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO records (id, created_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload
	`, record.ID, record.CreatedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("save cached record %s: %w", record.ID, err)
	}
	return nil
}

// Update applies a patch to a cached record
func (c *Cache) Update(ctx context.Context, id string, patch models.RecordPatch) error {
	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("cached record %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("read cached record %s: %w", id, err)
	}

	var rec models.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return fmt.Errorf("decode cached record %s: %w", id, err)
	}
	return c.Save(ctx, patch.Apply(rec))
}

// Delete removes a cached record; deleting an absent id is not an error
func (c *Cache) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete cached record %s: %w", id, err)
	}
	return nil
}

// Clear drops every cached record (sign-out)
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear cached records: %w", err)
	}
	return nil
}

// CurrentProfile returns the persisted signed-in profile, "" when none
func (c *Cache) CurrentProfile(ctx context.Context) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, currentProfileKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read current profile: %w", err)
	}
	return value, nil
}

// SetCurrentProfile persists the signed-in profile for background runs
func (c *Cache) SetCurrentProfile(ctx context.Context, profileID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, currentProfileKey, profileID)
	if err != nil {
		return fmt.Errorf("save current profile: %w", err)
	}
	return nil
}

// ClearCurrentProfile forgets the signed-in profile
func (c *Cache) ClearCurrentProfile(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, currentProfileKey); err != nil {
		return fmt.Errorf("clear current profile: %w", err)
	}
	return nil
}
