// Package places looks up points of interest near a coordinate so a
// visit can be annotated with the facility it happened at. Lookups hit
// an external provider, so the package wraps providers with retry and
// caching policies owned by the caller side.
package places

import (
	"context"
	"errors"
)

// ErrNoResults means the provider answered and found nothing nearby.
// It is a result, not a failure; retrying will not help.
var ErrNoResults = errors.New("no places found")

// ErrThrottled means the provider rejected the call for rate reasons.
var ErrThrottled = errors.New("place lookup throttled")

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// POI is one candidate facility near the requested center.
type POI struct {
	Name           string
	Category       string
	Address        string
	Coordinate     Coordinate
	DistanceMeters float64
}

// Service finds POIs within radiusMeters of center, nearest first.
type Service interface {
	NearbyPOI(ctx context.Context, center Coordinate, radiusMeters float64) ([]POI, error)
}
