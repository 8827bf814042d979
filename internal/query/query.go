// Package query filters, orders, and buckets visit aggregates that are
// already in memory. Stores push coarse predicates down; this package is
// the single place where the interactive filter semantics live.
package query

import (
	"sort"
	"time"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
	platformstrings "waymark/pkg/platform/strings"
)

// Criteria is the conjunction of filter dimensions. Within a dimension
// the listed values are alternatives: a visit matches the label
// dimension when it carries any of the requested labels. An empty
// dimension places no restriction.
type Criteria struct {
	LabelIDs   []id.LabelID
	GroupIDs   []id.GroupID
	MemberIDs  []id.MemberID
	Categories []string

	// TitleQuery matches case- and diacritic-insensitively against the
	// visit title.
	TitleQuery string

	// Half-open window [From, ToExclusive) over the visit instant.
	From        *time.Time
	ToExclusive *time.Time
}

// HasActiveFilters reports whether applying the criteria could exclude
// anything. A whitespace-only title query is not a filter.
func (c Criteria) HasActiveFilters() bool {
	return len(c.LabelIDs) > 0 ||
		len(c.GroupIDs) > 0 ||
		len(c.MemberIDs) > 0 ||
		len(c.Categories) > 0 ||
		platformstrings.TrimmedOrEmpty(c.TitleQuery) != "" ||
		c.From != nil ||
		c.ToExclusive != nil
}

// Apply returns the aggregates matching every active dimension. Input
// order is preserved; the input slice is not modified.
func Apply(items []models.VisitAggregate, criteria Criteria) []models.VisitAggregate {
	if !criteria.HasActiveFilters() {
		return append([]models.VisitAggregate(nil), items...)
	}

	matched := make([]models.VisitAggregate, 0, len(items))
	for _, item := range items {
		if matches(item, criteria) {
			matched = append(matched, item)
		}
	}
	return matched
}

func matches(item models.VisitAggregate, criteria Criteria) bool {
	if len(criteria.LabelIDs) > 0 && !hasAnyLabel(item.Details, criteria.LabelIDs) {
		return false
	}
	if len(criteria.MemberIDs) > 0 && !hasAnyMember(item.Details, criteria.MemberIDs) {
		return false
	}
	if len(criteria.GroupIDs) > 0 && !inAnyGroup(item.Details, criteria.GroupIDs) {
		return false
	}
	if len(criteria.Categories) > 0 && !hasCategory(item.Details, criteria.Categories) {
		return false
	}
	if query := platformstrings.TrimmedOrEmpty(criteria.TitleQuery); query != "" &&
		!platformstrings.ContainsFold(item.Details.Title, query) {
		return false
	}
	if criteria.From != nil && item.Visit.TimestampUTC.Before(*criteria.From) {
		return false
	}
	if criteria.ToExclusive != nil && !item.Visit.TimestampUTC.Before(*criteria.ToExclusive) {
		return false
	}
	return true
}

func hasAnyLabel(details models.VisitDetails, wanted []id.LabelID) bool {
	for _, labelID := range wanted {
		if details.HasLabel(labelID) {
			return true
		}
	}
	return false
}

func hasAnyMember(details models.VisitDetails, wanted []id.MemberID) bool {
	for _, memberID := range wanted {
		if details.HasMember(memberID) {
			return true
		}
	}
	return false
}

// inAnyGroup is false for a visit with no group, whatever the filter.
func inAnyGroup(details models.VisitDetails, wanted []id.GroupID) bool {
	if details.GroupID == nil {
		return false
	}
	for _, groupID := range wanted {
		if *details.GroupID == groupID {
			return true
		}
	}
	return false
}

func hasCategory(details models.VisitDetails, wanted []string) bool {
	for _, category := range wanted {
		if details.FacilityCategory == category {
			return true
		}
	}
	return false
}

// SortByTime orders aggregates by their visit instant, stably so equal
// instants keep their input order.
func SortByTime(items []models.VisitAggregate, ascending bool) []models.VisitAggregate {
	sorted := append([]models.VisitAggregate(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Visit.TimestampUTC.Before(sorted[j].Visit.TimestampUTC)
		}
		return sorted[j].Visit.TimestampUTC.Before(sorted[i].Visit.TimestampUTC)
	})
	return sorted
}

// DateGroup is one calendar day's worth of visits. ID is the ISO date of
// the day in the grouping location, stable across locales.
type DateGroup struct {
	ID    string
	Date  time.Time
	Items []models.VisitAggregate
}

// GroupByDate buckets aggregates by the calendar day their instant falls
// on in loc. Buckets and the items inside them follow the requested
// direction.
func GroupByDate(items []models.VisitAggregate, loc *time.Location, ascending bool) []DateGroup {
	if loc == nil {
		loc = time.Local
	}

	ordered := SortByTime(items, ascending)
	var groups []DateGroup
	byID := make(map[string]int)

	for _, item := range ordered {
		day := item.Visit.TimestampUTC.In(loc)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		groupID := dayStart.Format("2006-01-02")

		index, exists := byID[groupID]
		if !exists {
			index = len(groups)
			byID[groupID] = index
			groups = append(groups, DateGroup{ID: groupID, Date: dayStart})
		}
		groups[index].Items = append(groups[index].Items, item)
	}
	return groups
}
