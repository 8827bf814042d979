package models

import (
	id "waymark/pkg/domain"
)

// VisitDetails is the mutable overlay of an aggregate. Every field may change
// after creation; none of them is covered by the signature.
//
// Taxonomy references are weak: they name a tag by id with no referential
// integrity at the storage layer. A referenced tag may have been deleted, and
// a dangling id is not an error here — display logic resolves it to "no such
// tag". LabelIDs and MemberIDs are ordered but semantically sets.
type VisitDetails struct {
	Title            string        `json:"title,omitempty"`
	FacilityName     string        `json:"facility_name,omitempty"`
	FacilityAddress  string        `json:"facility_address,omitempty"`
	FacilityCategory string        `json:"facility_category,omitempty"`
	Comment          string        `json:"comment,omitempty"`
	LabelIDs         []id.LabelID  `json:"label_ids,omitempty"`
	MemberIDs        []id.MemberID `json:"member_ids,omitempty"`
	GroupID          *id.GroupID   `json:"group_id,omitempty"`
	ResolvedAddress  string        `json:"resolved_address,omitempty"`
	PhotoPaths       []string      `json:"photo_paths,omitempty"`
}

// Clone returns a details value whose slices and pointers are independent of
// the receiver. Stores hand out clones so consumer snapshots never alias
// durable state.
func (d VisitDetails) Clone() VisitDetails {
	out := d
	if d.LabelIDs != nil {
		out.LabelIDs = append([]id.LabelID(nil), d.LabelIDs...)
	}
	if d.MemberIDs != nil {
		out.MemberIDs = append([]id.MemberID(nil), d.MemberIDs...)
	}
	if d.GroupID != nil {
		group := *d.GroupID
		out.GroupID = &group
	}
	if d.PhotoPaths != nil {
		out.PhotoPaths = append([]string(nil), d.PhotoPaths...)
	}
	return out
}

// HasLabel reports whether the overlay references the given label id.
func (d VisitDetails) HasLabel(labelID id.LabelID) bool {
	for _, ref := range d.LabelIDs {
		if ref == labelID {
			return true
		}
	}
	return false
}

// HasMember reports whether the overlay references the given member id.
func (d VisitDetails) HasMember(memberID id.MemberID) bool {
	for _, ref := range d.MemberIDs {
		if ref == memberID {
			return true
		}
	}
	return false
}

// InGroup reports whether the overlay references the given group id.
func (d VisitDetails) InGroup(groupID id.GroupID) bool {
	return d.GroupID != nil && *d.GroupID == groupID
}
