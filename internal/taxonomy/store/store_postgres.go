package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"waymark/internal/taxonomy/models"
	"waymark/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists tags in the taxonomy_tags table. The UNIQUE (kind,
// name) constraint backs the duplicate-name policy.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, tag models.Tag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO taxonomy_tags (id, kind, name) VALUES ($1, $2, $3)`,
		tag.ID, string(tag.Kind), tag.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "taxonomy_tags_pkey" {
				return sentinel.ErrDuplicateID
			}
			return sentinel.ErrDuplicateName
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *Postgres) Rename(ctx context.Context, kind models.Kind, tagID uuid.UUID, name string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE taxonomy_tags SET name = $1 WHERE id = $2 AND kind = $3`,
		name, tagID, string(kind))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicateName
		}
		return fmt.Errorf("rename tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename tag: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, kind models.Kind, tagID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM taxonomy_tags WHERE id = $1 AND kind = $2`,
		tagID, string(kind))
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, kind models.Kind, tagID uuid.UUID) (models.Tag, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name FROM taxonomy_tags WHERE id = $1 AND kind = $2`,
		tagID, string(kind))

	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, false, nil
	}
	if err != nil {
		return models.Tag{}, false, fmt.Errorf("get tag: %w", err)
	}
	return tag, true, nil
}

func (s *Postgres) ListByKind(ctx context.Context, kind models.Kind) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name FROM taxonomy_tags WHERE kind = $1`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTag(row rowScanner) (models.Tag, error) {
	var (
		tag  models.Tag
		kind string
	)
	if err := row.Scan(&tag.ID, &kind, &tag.Name); err != nil {
		return models.Tag{}, err
	}
	tag.Kind = models.Kind(kind)
	return tag, nil
}
