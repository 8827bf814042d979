package models

import (
	id "waymark/pkg/domain"
	dErrors "waymark/pkg/domain-errors"
)

// VisitAggregate pairs a signed immutable fact with its mutable overlay under
// one identity. The two halves are created and deleted together; only the
// details half is ever mutated. Keeping them as separate components joined by
// the shared id preserves the non-repudiation guarantee on the fact.
type VisitAggregate struct {
	ID      id.VisitID   `json:"id"`
	Visit   Visit        `json:"visit"`
	Details VisitDetails `json:"details"`
}

// NewVisitAggregate pairs a fact with its initial overlay.
func NewVisitAggregate(visit Visit, details VisitDetails) (VisitAggregate, error) {
	if visit.ID.IsNil() {
		return VisitAggregate{}, dErrors.New(dErrors.CodeInvariantViolation, "aggregate requires a non-nil visit id")
	}
	return VisitAggregate{ID: visit.ID, Visit: visit, Details: details}, nil
}

// Clone returns a snapshot independent of durable state. Mutating a snapshot
// never affects what the store holds.
func (a VisitAggregate) Clone() VisitAggregate {
	return VisitAggregate{ID: a.ID, Visit: a.Visit.Clone(), Details: a.Details.Clone()}
}
