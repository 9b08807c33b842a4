package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS status_changes (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL,
		field       TEXT NOT NULL,
		from_value  TEXT NOT NULL DEFAULT '',
		to_value    TEXT NOT NULL DEFAULT '',
		changed_at  TIMESTAMPTZ NOT NULL,
		changed_by  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_status_changes_changed_at ON status_changes (changed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_status_changes_patient ON status_changes (patient_id, changed_at)`,
	`CREATE TABLE IF NOT EXISTS report_snapshots (
		id               TEXT PRIMARY KEY,
		kind             TEXT NOT NULL,
		period_key       TEXT NOT NULL,
		status           TEXT NOT NULL,
		rollup           JSONB NOT NULL,
		manager_comment  TEXT NOT NULL DEFAULT '',
		feedback         JSONB NOT NULL DEFAULT '[]'::jsonb,
		generated_at     TIMESTAMPTZ NOT NULL,
		refreshed_at     TIMESTAMPTZ,
		updated_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (kind, period_key)
	)`,
}

// EnsureSchema creates the status-change and report tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
