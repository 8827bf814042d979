package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrDuplicateID: a record with the same id already exists
// - ErrDuplicateName: a taxonomy entry with the exact same name already exists
// - ErrInvalidState: record in wrong state for the requested operation
// - ErrUnavailable: backing store or service temporarily unavailable
//
// For validation errors (bad input, blank names), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrDuplicateName = errors.New("duplicate name")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnavailable   = errors.New("unavailable")
)
