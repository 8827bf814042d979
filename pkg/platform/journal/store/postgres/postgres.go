package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"waymark/pkg/platform/journal"
)

// Store persists journal events in the journal_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event journal.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_events (id, action, occurred_at, subject_id, detail)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, string(event.Action), event.OccurredAt.UTC(), event.SubjectID, event.Detail)
	if err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}

// List returns events ordered by occurrence time.
func (s *Store) List(ctx context.Context) ([]journal.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, occurred_at, subject_id, detail
		 FROM journal_events ORDER BY occurred_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list journal events: %w", err)
	}
	defer rows.Close()

	var events []journal.Event
	for rows.Next() {
		var (
			event  journal.Event
			action string
		)
		if err := rows.Scan(&event.ID, &action, &event.OccurredAt, &event.SubjectID, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		event.Action = journal.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal events: %w", err)
	}
	return events, nil
}
