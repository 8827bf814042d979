package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
	"waymark/pkg/platform/sentinel"
	platformstrings "waymark/pkg/platform/strings"
)

// Postgres persists aggregates in PostgreSQL. The fact and details halves are
// stored as JSONB documents; the visit timestamp and a folded copy of the
// title are lifted into columns so the pushdown predicates stay in SQL.
type Postgres struct {
	db *sql.DB
}

var _ VisitStore = (*Postgres)(nil)

// NewPostgres constructs a PostgreSQL-backed visit store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, aggregate models.VisitAggregate) error {
	factJSON, err := json.Marshal(aggregate.Visit)
	if err != nil {
		return fmt.Errorf("marshal visit fact: %w", err)
	}
	detailsJSON, err := json.Marshal(aggregate.Details)
	if err != nil {
		return fmt.Errorf("marshal visit details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO visits (id, recorded_at, fact, details, title_folded) VALUES ($1, $2, $3, $4, $5)`,
		aggregate.ID.String(), aggregate.Visit.TimestampUTC, factJSON, detailsJSON,
		platformstrings.Fold(aggregate.Details.Title),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicateID
		}
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// UpdateDetails serializes racing updates through a row lock: the transform
// is applied to the row as of SELECT ... FOR UPDATE and written back in the
// same transaction.
func (s *Postgres) UpdateDetails(ctx context.Context, visitID id.VisitID, transform DetailsTransform) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var detailsJSON []byte
	err = tx.QueryRowContext(ctx,
		`SELECT details FROM visits WHERE id = $1 FOR UPDATE`,
		visitID.String(),
	).Scan(&detailsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock visit row: %w", err)
	}

	var current models.VisitDetails
	if err := json.Unmarshal(detailsJSON, &current); err != nil {
		return fmt.Errorf("unmarshal visit details: %w", err)
	}

	next, err := transform(current)
	if err != nil {
		return err
	}

	nextJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal visit details: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE visits SET details = $2, title_folded = $3 WHERE id = $1`,
		visitID.String(), nextJSON, platformstrings.Fold(next.Title),
	); err != nil {
		return fmt.Errorf("update visit details: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, visitID id.VisitID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, visitID.String())
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM visits`); err != nil {
		return fmt.Errorf("delete all visits: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, visitID id.VisitID) (models.VisitAggregate, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT fact, details FROM visits WHERE id = $1`,
		visitID.String(),
	)
	aggregate, err := scanAggregate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VisitAggregate{}, false, nil
	}
	if err != nil {
		return models.VisitAggregate{}, false, err
	}
	return aggregate, true, nil
}

func (s *Postgres) Fetch(ctx context.Context, filter Filter) ([]models.VisitAggregate, error) {
	conditions := make([]string, 0, 6)
	args := make([]any, 0, 6)

	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LabelID != nil {
		refJSON, _ := json.Marshal([]string{filter.LabelID.String()})
		conditions = append(conditions, fmt.Sprintf("details->'label_ids' @> %s::jsonb", arg(string(refJSON))))
	}
	if filter.GroupID != nil {
		conditions = append(conditions, fmt.Sprintf("details->>'group_id' = %s", arg(filter.GroupID.String())))
	}
	if filter.MemberID != nil {
		refJSON, _ := json.Marshal([]string{filter.MemberID.String()})
		conditions = append(conditions, fmt.Sprintf("details->'member_ids' @> %s::jsonb", arg(string(refJSON))))
	}
	if query := platformstrings.TrimmedOrEmpty(filter.TitleQuery); query != "" {
		// strpos keeps the match a literal substring; LIKE would read
		// %, _ and \ in the query as pattern syntax.
		conditions = append(conditions, fmt.Sprintf("strpos(title_folded, %s) > 0", arg(platformstrings.Fold(query))))
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at >= %s", arg(*filter.From)))
	}
	if filter.ToExclusive != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at < %s", arg(*filter.ToExclusive)))
	}

	query := `SELECT fact, details FROM visits`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch visits: %w", err)
	}
	defer rows.Close()

	aggregates := make([]models.VisitAggregate, 0)
	for rows.Next() {
		aggregate, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, aggregate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch visits: %w", err)
	}
	return aggregates, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregate(row rowScanner) (models.VisitAggregate, error) {
	var factJSON, detailsJSON []byte
	if err := row.Scan(&factJSON, &detailsJSON); err != nil {
		return models.VisitAggregate{}, err
	}

	var visit models.Visit
	if err := json.Unmarshal(factJSON, &visit); err != nil {
		return models.VisitAggregate{}, fmt.Errorf("unmarshal visit fact: %w", err)
	}
	var details models.VisitDetails
	if err := json.Unmarshal(detailsJSON, &details); err != nil {
		return models.VisitAggregate{}, fmt.Errorf("unmarshal visit details: %w", err)
	}
	return models.VisitAggregate{ID: visit.ID, Visit: visit, Details: details}, nil
}
