// Package store persists visit aggregates. Implementations are swappable
// (in-memory, PostgreSQL) without touching service code.
package store

import (
	"context"
	"time"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
)

// Filter is the coarse predicate pushed down to the store. Nil or zero fields
// impose no restriction. Fine-grained multi-select filtering, sorting, and
// grouping happen in internal/query afterwards.
type Filter struct {
	// LabelID restricts to aggregates whose details reference the label.
	LabelID *id.LabelID
	// GroupID restricts to aggregates assigned to the group.
	GroupID *id.GroupID
	// MemberID restricts to aggregates whose details reference the member.
	MemberID *id.MemberID
	// TitleQuery, when non-blank, restricts to titles containing it as a
	// case- and diacritic-insensitive substring.
	TitleQuery string
	// From is an inclusive lower bound on the visit timestamp. Callers
	// normalize day semantics (start of day) before building the filter; the
	// store compares raw instants only.
	From *time.Time
	// ToExclusive is an exclusive upper bound on the visit timestamp.
	ToExclusive *time.Time
}

// DetailsTransform maps current details to their replacement. It must be pure:
// the store may call it again if the update is retried.
type DetailsTransform func(models.VisitDetails) (models.VisitDetails, error)

// VisitStore is the durable home of visit aggregates.
//
// Contract notes:
//   - Create fails with sentinel.ErrDuplicateID when the id already exists.
//   - UpdateDetails applies the transform atomically relative to concurrent
//     readers and writers: two racing updates serialize, neither is lost.
//     It fails with sentinel.ErrNotFound for unknown ids.
//   - Delete fails with sentinel.ErrNotFound for unknown ids.
//   - DeleteAll removes every aggregate and never touches taxonomy state.
//   - Get reports absence via the bool, not an error.
//   - Fetch guarantees no ordering.
//   - All returned aggregates are snapshots; mutating them never affects
//     stored state.
type VisitStore interface {
	Create(ctx context.Context, aggregate models.VisitAggregate) error
	UpdateDetails(ctx context.Context, visitID id.VisitID, transform DetailsTransform) error
	Delete(ctx context.Context, visitID id.VisitID) error
	DeleteAll(ctx context.Context) error
	Get(ctx context.Context, visitID id.VisitID) (models.VisitAggregate, bool, error)
	Fetch(ctx context.Context, filter Filter) ([]models.VisitAggregate, error)
}
