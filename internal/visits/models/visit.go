package models

import (
	"time"

	id "waymark/pkg/domain"
	dErrors "waymark/pkg/domain-errors"
)

// Visit is the immutable fact half of an aggregate: one timestamped
// geolocation observation, bound to its integrity block.
//
// Invariants:
//   - No field is ever mutated after the record is persisted; the only
//     destructive operation is whole-aggregate delete.
//   - Latitude is within [-90, 90], longitude within [-180, 180] (WGS84).
//   - Integrity covers exactly the fields of the canonical payload; the
//     integrity service re-derives the digest on verification rather than
//     trusting PayloadHashHex.
type Visit struct {
	ID                    id.VisitID `json:"id"`
	TimestampUTC          time.Time  `json:"timestamp_utc"`
	Latitude              float64    `json:"latitude"`
	Longitude             float64    `json:"longitude"`
	HorizontalAccuracy    *float64   `json:"horizontal_accuracy,omitempty"`
	IsSimulatedBySoftware *bool      `json:"is_simulated_by_software,omitempty"`
	IsProducedByAccessory *bool      `json:"is_produced_by_accessory,omitempty"`
	Integrity             Integrity  `json:"integrity"`
}

// Integrity binds a visit's immutable fields to the device signing key.
// CreatedAtUTC is the signing instant, distinct from the observation
// timestamp on the visit itself.
type Integrity struct {
	Algo               string    `json:"algo"`
	SignatureDERBase64 string    `json:"signature_der_base64"`
	PublicKeyRawBase64 string    `json:"public_key_raw_base64"`
	PayloadHashHex     string    `json:"payload_hash_hex"`
	CreatedAtUTC       time.Time `json:"created_at_utc"`
}

// Clone returns a visit whose pointer fields are independent of the receiver,
// so a mutated snapshot can never masquerade as the stored fact.
func (v Visit) Clone() Visit {
	out := v
	if v.HorizontalAccuracy != nil {
		acc := *v.HorizontalAccuracy
		out.HorizontalAccuracy = &acc
	}
	if v.IsSimulatedBySoftware != nil {
		sim := *v.IsSimulatedBySoftware
		out.IsSimulatedBySoftware = &sim
	}
	if v.IsProducedByAccessory != nil {
		acc := *v.IsProducedByAccessory
		out.IsProducedByAccessory = &acc
	}
	return out
}

// NewVisit validates coordinates and returns an unsigned fact. The integrity
// block is attached by the caller after signing.
func NewVisit(visitID id.VisitID, timestamp time.Time, latitude, longitude float64, accuracy *float64, simulated, accessory *bool) (Visit, error) {
	if visitID.IsNil() {
		return Visit{}, dErrors.New(dErrors.CodeInvariantViolation, "visit id cannot be nil")
	}
	if timestamp.IsZero() {
		return Visit{}, dErrors.New(dErrors.CodeInvariantViolation, "visit timestamp cannot be zero")
	}
	if latitude < -90 || latitude > 90 {
		return Visit{}, dErrors.Newf(dErrors.CodeInvariantViolation, "latitude %v outside [-90, 90]", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Visit{}, dErrors.Newf(dErrors.CodeInvariantViolation, "longitude %v outside [-180, 180]", longitude)
	}
	return Visit{
		ID:                    visitID,
		TimestampUTC:          timestamp.UTC(),
		Latitude:              latitude,
		Longitude:             longitude,
		HorizontalAccuracy:    accuracy,
		IsSimulatedBySoftware: simulated,
		IsProducedByAccessory: accessory,
	}, nil
}
