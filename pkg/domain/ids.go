// Package domain holds the typed identities shared across waymark.
//
// IDs are distinct named UUID types so a LabelID can never be passed where a
// MemberID is expected. Construct them via the Parse* functions at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "waymark/pkg/domain-errors"
)

// VisitID identifies a visit aggregate. It equals the id of the signed fact.
type VisitID uuid.UUID

// LabelID identifies a label tag.
type LabelID uuid.UUID

// GroupID identifies a group tag.
type GroupID uuid.UUID

// MemberID identifies a member tag.
type MemberID uuid.UUID

// NewVisitID returns a fresh random VisitID.
func NewVisitID() VisitID { return VisitID(uuid.New()) }

// NewLabelID returns a fresh random LabelID.
func NewLabelID() LabelID { return LabelID(uuid.New()) }

// NewGroupID returns a fresh random GroupID.
func NewGroupID() GroupID { return GroupID(uuid.New()) }

// NewMemberID returns a fresh random MemberID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

func parseUUID(kind, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseVisitID validates raw as a non-nil UUID and returns it as a VisitID.
func ParseVisitID(raw string) (VisitID, error) {
	parsed, err := parseUUID("visit", raw)
	return VisitID(parsed), err
}

// ParseLabelID validates raw as a non-nil UUID and returns it as a LabelID.
func ParseLabelID(raw string) (LabelID, error) {
	parsed, err := parseUUID("label", raw)
	return LabelID(parsed), err
}

// ParseGroupID validates raw as a non-nil UUID and returns it as a GroupID.
func ParseGroupID(raw string) (GroupID, error) {
	parsed, err := parseUUID("group", raw)
	return GroupID(parsed), err
}

// ParseMemberID validates raw as a non-nil UUID and returns it as a MemberID.
func ParseMemberID(raw string) (MemberID, error) {
	parsed, err := parseUUID("member", raw)
	return MemberID(parsed), err
}

func (id VisitID) String() string  { return uuid.UUID(id).String() }
func (id LabelID) String() string  { return uuid.UUID(id).String() }
func (id GroupID) String() string  { return uuid.UUID(id).String() }
func (id MemberID) String() string { return uuid.UUID(id).String() }

func (id VisitID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id LabelID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as canonical UUID strings so persisted and exported
// records stay readable and round-trip exactly.

func (id VisitID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id LabelID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id GroupID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id MemberID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *VisitID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid visit id")
	}
	*id = VisitID(parsed)
	return nil
}

func (id *LabelID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid label id")
	}
	*id = LabelID(parsed)
	return nil
}

func (id *GroupID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid group id")
	}
	*id = GroupID(parsed)
	return nil
}

func (id *MemberID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid member id")
	}
	*id = MemberID(parsed)
	return nil
}
