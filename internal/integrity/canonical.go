package integrity

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
	dErrors "waymark/pkg/domain-errors"
)

// Payload is the exact field set covered by the signature. Serialization is
// deterministic: encoding/json emits struct fields in declaration order,
// timestamps are normalized to UTC RFC 3339, and absent optional fields are
// omitted entirely so presence itself is part of the canonical form.
//
// Changing this struct changes the digest of every existing record. Do not
// reorder, rename, or retag fields.
type Payload struct {
	ID                    id.VisitID `json:"id"`
	TimestampUTC          time.Time  `json:"timestamp_utc"`
	Latitude              float64    `json:"latitude"`
	Longitude             float64    `json:"longitude"`
	HorizontalAccuracy    *float64   `json:"horizontal_accuracy,omitempty"`
	IsSimulatedBySoftware *bool      `json:"is_simulated_by_software,omitempty"`
	IsProducedByAccessory *bool      `json:"is_produced_by_accessory,omitempty"`
}

// PayloadFromVisit extracts the signed field set from a stored visit.
// Verification rebuilds the digest from these fields, never from the hash the
// record carries.
func PayloadFromVisit(visit models.Visit) Payload {
	return Payload{
		ID:                    visit.ID,
		TimestampUTC:          visit.TimestampUTC,
		Latitude:              visit.Latitude,
		Longitude:             visit.Longitude,
		HorizontalAccuracy:    visit.HorizontalAccuracy,
		IsSimulatedBySoftware: visit.IsSimulatedBySoftware,
		IsProducedByAccessory: visit.IsProducedByAccessory,
	}
}

// Canonical returns the deterministic serialization of the payload.
func (p Payload) Canonical() ([]byte, error) {
	p.TimestampUTC = p.TimestampUTC.UTC()
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSigning, "serialize canonical payload")
	}
	return raw, nil
}

// Digest returns the SHA-256 of the canonical serialization.
func (p Payload) Digest() ([sha256.Size]byte, error) {
	canonical, err := p.Canonical()
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}
