package models

import (
	"strings"

	"github.com/google/uuid"

	domainerrors "waymark/pkg/domain-errors"
)

// Kind distinguishes the three taxonomy dimensions. Labels and members
// are many-per-visit, groups are at most one per visit; the store treats
// all three uniformly.
type Kind string

const (
	KindLabel  Kind = "label"
	KindGroup  Kind = "group"
	KindMember Kind = "member"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLabel, KindGroup, KindMember:
		return true
	}
	return false
}

// Tag is one user-defined taxonomy entry. Visits reference tags by id
// only; deleting a tag leaves those references dangling on purpose.
type Tag struct {
	ID   uuid.UUID
	Kind Kind
	Name string
}

// NewTag validates and normalizes a tag. The name is trimmed; a name
// that is empty after trimming is rejected.
func NewTag(tagID uuid.UUID, kind Kind, name string) (Tag, error) {
	if tagID == uuid.Nil {
		return Tag{}, domainerrors.New(domainerrors.CodeValidation, "tag id must not be nil")
	}
	if !kind.Valid() {
		return Tag{}, domainerrors.Newf(domainerrors.CodeValidation, "unknown tag kind %q", kind)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Tag{}, domainerrors.New(domainerrors.CodeValidation, "tag name must not be empty")
	}
	return Tag{ID: tagID, Kind: kind, Name: trimmed}, nil
}
