package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements are executed in order at startup. Statements are
// idempotent so repeated boots against the same file are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS linkedin_connections (
		user_id          TEXT PRIMARY KEY REFERENCES users(id),
		linkedin_user_id TEXT NOT NULL,
		access_token     TEXT NOT NULL,
		refresh_token    TEXT,
		expires_at       TEXT NOT NULL,
		linkedin_name    TEXT NOT NULL DEFAULT '',
		linkedin_email   TEXT NOT NULL DEFAULT '',
		linkedin_picture TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id                        TEXT PRIMARY KEY,
		user_id                   TEXT NOT NULL REFERENCES users(id),
		content                   TEXT NOT NULL,
		tone                      TEXT NOT NULL DEFAULT '',
		image_url                 TEXT,
		scheduled_at              TEXT,
		status                    TEXT NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'scheduled', 'published')),
		trend_tag                 TEXT,
		trend_title               TEXT,
		linkedin_post_id          TEXT,
		published_at              TEXT,
		linkedin_error            TEXT,
		analytics_impressions     INTEGER,
		analytics_clicks          INTEGER,
		analytics_likes           INTEGER,
		analytics_comments        INTEGER,
		analytics_shares          INTEGER,
		analytics_engagement      INTEGER,
		analytics_engagement_rate REAL,
		analytics_error           TEXT,
		last_analytics_synced_at  TEXT,
		analytics_backoff_until   TEXT,
		created_at                TEXT NOT NULL,
		updated_at                TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_user ON drafts(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_due ON drafts(status, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_analytics ON drafts(status, last_analytics_synced_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token)`,
}

// Migrate creates the schema if it does not exist yet.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}
	return nil
}
