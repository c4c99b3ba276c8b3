package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schemaSQL remote store tables
const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	record_id   TEXT PRIMARY KEY,
	profile_id  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	image_ref   TEXT,
	analysis    JSONB NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS idx_records_profile ON records (profile_id, created_at DESC);

CREATE TABLE IF NOT EXISTS taken_medications (
	event_id        TEXT PRIMARY KEY,
	profile_id      TEXT NOT NULL,
	medication_name TEXT NOT NULL,
	time_slot       TEXT NOT NULL CHECK (time_slot IN ('morning', 'afternoon', 'evening')),
	taken_date      TEXT NOT NULL,
	taken_at        TIMESTAMPTZ NOT NULL,
	source_id       TEXT NOT NULL,
	dosage          TEXT
);
CREATE INDEX IF NOT EXISTS idx_taken_profile_date ON taken_medications (profile_id, taken_date);

CREATE TABLE IF NOT EXISTS lab_tests (
	lab_test_id TEXT PRIMARY KEY,
	profile_id  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	test_name   TEXT NOT NULL,
	test_date   TEXT,
	image_ref   TEXT,
	results     JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE INDEX IF NOT EXISTS idx_lab_tests_profile ON lab_tests (profile_id, created_at DESC);

CREATE TABLE IF NOT EXISTS families (
	family_id        TEXT PRIMARY KEY,
	family_name      TEXT NOT NULL,
	owner_profile_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS family_members (
	family_id    TEXT NOT NULL REFERENCES families(family_id) ON DELETE CASCADE,
	profile_id   TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'member')),
	display_name TEXT,
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (family_id, profile_id)
)
`

// EnsureSchema creates the remote store tables if missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
