// Package location abstracts the positioning source a visit is recorded
// from. The journal only ever sees the fix that was captured; providers
// are swappable and the rest of the system does not care which one ran.
package location

import (
	"context"
	"errors"
)

// ErrPermissionDenied means the platform refused access to positioning.
// Callers surface it as-is so the user can be told to grant access.
var ErrPermissionDenied = errors.New("location permission denied")

// Provenance carries the capture-time integrity signals that end up
// signed inside the visit fact. Nil means the provider cannot tell.
type Provenance struct {
	SimulatedBySoftware *bool
	ProducedByAccessory *bool
}

// Position is one geographic fix.
type Position struct {
	Latitude           float64
	Longitude          float64
	HorizontalAccuracy *float64
	Provenance         Provenance
}

// Service produces the current position. Implementations may block on
// hardware; they must honor ctx cancellation.
type Service interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Static always reports a fixed position. Used in tests and for manual
// entry flows where the fix is supplied by the caller.
type Static struct {
	Position Position
	Err      error
}

func (s Static) CurrentPosition(_ context.Context) (Position, error) {
	if s.Err != nil {
		return Position{}, s.Err
	}
	return s.Position, nil
}
