// Package postgres opens the durable store and keeps its schema current.
// waymark is a single-writer system, so schema management is a handful of
// idempotent statements rather than a migration pipeline.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS visits (
		id UUID PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		fact JSONB NOT NULL,
		details JSONB NOT NULL,
		title_folded TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS visits_recorded_at_idx ON visits (recorded_at)`,
	`CREATE INDEX IF NOT EXISTS visits_details_idx ON visits USING GIN (details)`,
	`CREATE TABLE IF NOT EXISTS taxonomy_tags (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS journal_events (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		subject_id UUID,
		detail TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS journal_events_occurred_at_idx ON journal_events (occurred_at)`,
}

// EnsureSchema creates the waymark tables when missing. Statements are
// idempotent so repeated startup is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, statement := range schema {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
