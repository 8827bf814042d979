// Package store persists taxonomy tags. Name uniqueness is enforced per
// kind with exact, case-sensitive comparison; "Coffee" and "coffee" are
// distinct entries.
package store

import (
	"context"

	"github.com/google/uuid"

	"waymark/internal/taxonomy/models"
)

// TaxonomyStore is the persistence contract shared by the in-memory and
// Postgres implementations.
//
//   - Create returns sentinel.ErrDuplicateID for a reused id and
//     sentinel.ErrDuplicateName for a name already present in the kind.
//   - Rename returns sentinel.ErrNotFound for a missing id and
//     sentinel.ErrDuplicateName when the new name collides. Renaming a
//     tag to its current name is a no-op, not a collision.
//   - Delete returns sentinel.ErrNotFound for a missing id.
//   - Get reports absence via the bool, reserving the error for failures.
//   - ListByKind returns tags in unspecified order; the service sorts.
type TaxonomyStore interface {
	Create(ctx context.Context, tag models.Tag) error
	Rename(ctx context.Context, kind models.Kind, tagID uuid.UUID, name string) error
	Delete(ctx context.Context, kind models.Kind, tagID uuid.UUID) error
	Get(ctx context.Context, kind models.Kind, tagID uuid.UUID) (models.Tag, bool, error)
	ListByKind(ctx context.Context, kind models.Kind) ([]models.Tag, error)
}
