package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema holds the tables owned by the portal. Everything else lives in the
// thesis backend.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS portal_sessions (
	id          UUID PRIMARY KEY,
	cedula      TEXT NOT NULL,
	identity    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_portal_sessions_cedula ON portal_sessions (cedula)`,
	`CREATE TABLE IF NOT EXISTS portal_audit_log (
	id          UUID PRIMARY KEY,
	actor       TEXT NOT NULL,
	role        TEXT NOT NULL,
	action      TEXT NOT NULL,
	project_id  BIGINT,
	outcome     TEXT NOT NULL,
	detail      TEXT,
	request_id  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_portal_audit_log_project ON portal_audit_log (project_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS portal_export_jobs (
	id             UUID PRIMARY KEY,
	format         TEXT NOT NULL,
	params         JSONB NOT NULL,
	status         TEXT NOT NULL,
	progress       INT NOT NULL DEFAULT 0,
	result_url     TEXT,
	created_by     TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at    TIMESTAMPTZ,
	error_message  TEXT
)`,
}

// EnsureSchema creates the portal tables when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
