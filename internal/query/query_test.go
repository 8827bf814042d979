package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waymark/internal/query"
	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
)

func mustAggregate(t *testing.T, timestamp time.Time, details models.VisitDetails) models.VisitAggregate {
	t.Helper()
	visit, err := models.NewVisit(id.NewVisitID(), timestamp, 48.8566, 2.3522, nil, nil, nil)
	require.NoError(t, err)
	aggregate, err := models.NewVisitAggregate(visit, details)
	require.NoError(t, err)
	return aggregate
}

func titles(items []models.VisitAggregate) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Details.Title
	}
	return out
}

func TestHasActiveFilters(t *testing.T) {
	assert.False(t, query.Criteria{}.HasActiveFilters())

	now := time.Now()
	for name, criteria := range map[string]query.Criteria{
		"label":    {LabelIDs: []id.LabelID{id.NewLabelID()}},
		"group":    {GroupIDs: []id.GroupID{id.NewGroupID()}},
		"member":   {MemberIDs: []id.MemberID{id.NewMemberID()}},
		"category": {Categories: []string{"cafe"}},
		"title":    {TitleQuery: "x"},
		"from":     {From: &now},
		"to":       {ToExclusive: &now},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, criteria.HasActiveFilters())
		})
	}

	t.Run("whitespace-only title query is inactive", func(t *testing.T) {
		assert.False(t, query.Criteria{TitleQuery: "   "}.HasActiveFilters())
	})
}

func TestApply(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	labelA := id.NewLabelID()
	labelB := id.NewLabelID()
	groupA := id.NewGroupID()
	member := id.NewMemberID()

	coffee := mustAggregate(t, base, models.VisitDetails{
		Title:            "Café de Flore",
		FacilityCategory: "cafe",
		LabelIDs:         []id.LabelID{labelA},
		GroupID:          &groupA,
	})
	bakery := mustAggregate(t, base.Add(time.Hour), models.VisitDetails{
		Title:            "Baker Street Bakery",
		FacilityCategory: "bakery",
		LabelIDs:         []id.LabelID{labelB},
		MemberIDs:        []id.MemberID{member},
	})
	untagged := mustAggregate(t, base.Add(2*time.Hour), models.VisitDetails{Title: "Walk"})

	items := []models.VisitAggregate{coffee, bakery, untagged}

	t.Run("no filters returns everything", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{})
		assert.Len(t, got, 3)
	})

	t.Run("any listed label matches", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{LabelIDs: []id.LabelID{labelA, labelB}})
		assert.Equal(t, []string{"Café de Flore", "Baker Street Bakery"}, titles(got))
	})

	t.Run("dimensions combine conjunctively", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{
			LabelIDs:   []id.LabelID{labelA, labelB},
			Categories: []string{"bakery"},
		})
		assert.Equal(t, []string{"Baker Street Bakery"}, titles(got))
	})

	t.Run("visit without a group never matches a group filter", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{GroupIDs: []id.GroupID{groupA, id.NewGroupID()}})
		assert.Equal(t, []string{"Café de Flore"}, titles(got))
	})

	t.Run("member containment", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{MemberIDs: []id.MemberID{member}})
		assert.Equal(t, []string{"Baker Street Bakery"}, titles(got))
	})

	t.Run("title query ignores case and diacritics", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{TitleQuery: "CAFE"})
		assert.Equal(t, []string{"Café de Flore"}, titles(got))
	})

	t.Run("title query ignores surrounding whitespace", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{TitleQuery: "  bakery "})
		assert.Equal(t, []string{"Baker Street Bakery"}, titles(got))
	})

	t.Run("whitespace-only title query excludes nothing", func(t *testing.T) {
		got := query.Apply(items, query.Criteria{TitleQuery: "   "})
		assert.Len(t, got, 3)
	})

	t.Run("date window is half open", func(t *testing.T) {
		from := base
		to := base.Add(2 * time.Hour)
		got := query.Apply(items, query.Criteria{From: &from, ToExclusive: &to})
		assert.Equal(t, []string{"Café de Flore", "Baker Street Bakery"}, titles(got))
	})

	t.Run("input is not mutated", func(t *testing.T) {
		query.Apply(items, query.Criteria{TitleQuery: "nothing matches this"})
		assert.Len(t, items, 3)
	})
}

func TestSortByTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := mustAggregate(t, base, models.VisitDetails{Title: "T1"})
	secondA := mustAggregate(t, base.Add(time.Hour), models.VisitDetails{Title: "T2a"})
	secondB := mustAggregate(t, base.Add(time.Hour), models.VisitDetails{Title: "T2b"})
	third := mustAggregate(t, base.Add(2*time.Hour), models.VisitDetails{Title: "T3"})

	items := []models.VisitAggregate{third, secondA, secondB, first}

	t.Run("ascending", func(t *testing.T) {
		got := query.SortByTime(items, true)
		assert.Equal(t, []string{"T1", "T2a", "T2b", "T3"}, titles(got))
	})

	t.Run("descending keeps equal instants stable", func(t *testing.T) {
		got := query.SortByTime(items, false)
		assert.Equal(t, []string{"T3", "T2a", "T2b", "T1"}, titles(got))
	})

	t.Run("input order untouched", func(t *testing.T) {
		assert.Equal(t, []string{"T3", "T2a", "T2b", "T1"}, titles(items))
	})
}

func TestGroupByDate(t *testing.T) {
	// 23:30 UTC on March 1st is already March 2nd in Helsinki (UTC+2).
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	lateNight := mustAggregate(t,
		time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC),
		models.VisitDetails{Title: "Late"})
	morning := mustAggregate(t,
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		models.VisitDetails{Title: "Morning"})
	nextDay := mustAggregate(t,
		time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		models.VisitDetails{Title: "Next"})

	items := []models.VisitAggregate{lateNight, morning, nextDay}

	t.Run("buckets on the local calendar day", func(t *testing.T) {
		groups := query.GroupByDate(items, time.UTC, true)
		require.Len(t, groups, 2)
		assert.Equal(t, "2025-03-01", groups[0].ID)
		assert.Equal(t, []string{"Morning", "Late"}, titles(groups[0].Items))
		assert.Equal(t, "2025-03-02", groups[1].ID)
		assert.Equal(t, []string{"Next"}, titles(groups[1].Items))
	})

	t.Run("offset location shifts the boundary", func(t *testing.T) {
		groups := query.GroupByDate(items, helsinki, true)
		require.Len(t, groups, 2)
		assert.Equal(t, []string{"Morning"}, titles(groups[0].Items))
		assert.Equal(t, []string{"Late", "Next"}, titles(groups[1].Items))
	})

	t.Run("descending reverses buckets and items", func(t *testing.T) {
		groups := query.GroupByDate(items, time.UTC, false)
		require.Len(t, groups, 2)
		assert.Equal(t, "2025-03-02", groups[0].ID)
		assert.Equal(t, []string{"Late", "Morning"}, titles(groups[1].Items))
	})

	t.Run("bucket date is midnight in the grouping location", func(t *testing.T) {
		groups := query.GroupByDate(items, time.UTC, true)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), groups[0].Date)
	})
}
