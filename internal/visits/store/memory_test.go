package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
	"waymark/pkg/platform/sentinel"
)

type VisitStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestVisitStoreSuite(t *testing.T) {
	suite.Run(t, new(VisitStoreSuite))
}

func (s *VisitStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *VisitStoreSuite) newAggregate(timestamp time.Time, details models.VisitDetails) models.VisitAggregate {
	visit, err := models.NewVisit(id.NewVisitID(), timestamp, 52.52, 13.405, nil, nil, nil)
	s.Require().NoError(err)
	aggregate, err := models.NewVisitAggregate(visit, details)
	s.Require().NoError(err)
	return aggregate
}

func (s *VisitStoreSuite) mustCreate(aggregate models.VisitAggregate) {
	s.Require().NoError(s.store.Create(s.ctx, aggregate))
}

func (s *VisitStoreSuite) TestCreateAndGet() {
	s.Run("creates and finds aggregate by id", func() {
		aggregate := s.newAggregate(time.Now(), models.VisitDetails{Title: "Morning run"})
		s.mustCreate(aggregate)

		found, ok, err := s.store.Get(s.ctx, aggregate.ID)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal("Morning run", found.Details.Title)
	})

	s.Run("absent id reports false without error", func() {
		_, ok, err := s.store.Get(s.ctx, id.NewVisitID())
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("rejects duplicate id", func() {
		aggregate := s.newAggregate(time.Now(), models.VisitDetails{})
		s.mustCreate(aggregate)
		s.Require().ErrorIs(s.store.Create(s.ctx, aggregate), sentinel.ErrDuplicateID)
	})
}

// TestSnapshotIsolation verifies returned aggregates are copies: mutating a
// snapshot never changes stored state.
func (s *VisitStoreSuite) TestSnapshotIsolation() {
	labelID := id.NewLabelID()
	aggregate := s.newAggregate(time.Now(), models.VisitDetails{
		Title:    "Original",
		LabelIDs: []id.LabelID{labelID},
	})
	s.mustCreate(aggregate)

	snapshot, ok, err := s.store.Get(s.ctx, aggregate.ID)
	s.Require().NoError(err)
	s.Require().True(ok)

	snapshot.Details.Title = "Mutated"
	snapshot.Details.LabelIDs[0] = id.NewLabelID()

	stored, _, err := s.store.Get(s.ctx, aggregate.ID)
	s.Require().NoError(err)
	s.Equal("Original", stored.Details.Title)
	s.Equal(labelID, stored.Details.LabelIDs[0])
}

func (s *VisitStoreSuite) TestUpdateDetails() {
	s.Run("replaces the overlay and leaves the fact untouched", func() {
		aggregate := s.newAggregate(time.Now(), models.VisitDetails{Title: "Before"})
		s.mustCreate(aggregate)

		err := s.store.UpdateDetails(s.ctx, aggregate.ID, func(details models.VisitDetails) (models.VisitDetails, error) {
			details.Title = "After"
			details.Comment = "added later"
			return details, nil
		})
		s.Require().NoError(err)

		updated, _, err := s.store.Get(s.ctx, aggregate.ID)
		s.Require().NoError(err)
		s.Equal("After", updated.Details.Title)
		s.Equal("added later", updated.Details.Comment)
		s.Equal(aggregate.Visit.Latitude, updated.Visit.Latitude)
		s.Equal(aggregate.Visit.Integrity, updated.Visit.Integrity)
	})

	s.Run("unknown id fails with ErrNotFound", func() {
		err := s.store.UpdateDetails(s.ctx, id.NewVisitID(), func(details models.VisitDetails) (models.VisitDetails, error) {
			return details, nil
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("transform error aborts the write", func() {
		aggregate := s.newAggregate(time.Now(), models.VisitDetails{Title: "Keep"})
		s.mustCreate(aggregate)

		wantErr := sentinel.ErrInvalidState
		err := s.store.UpdateDetails(s.ctx, aggregate.ID, func(models.VisitDetails) (models.VisitDetails, error) {
			return models.VisitDetails{}, wantErr
		})
		s.Require().ErrorIs(err, wantErr)

		unchanged, _, err := s.store.Get(s.ctx, aggregate.ID)
		s.Require().NoError(err)
		s.Equal("Keep", unchanged.Details.Title)
	})
}

// TestConcurrentUpdatesAreNotLost pins the atomicity contract: two racing
// transforms both land, in some serial order.
func (s *VisitStoreSuite) TestConcurrentUpdatesAreNotLost() {
	aggregate := s.newAggregate(time.Now(), models.VisitDetails{})
	s.mustCreate(aggregate)

	labelID := id.NewLabelID()
	memberID := id.NewMemberID()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.store.UpdateDetails(s.ctx, aggregate.ID, func(details models.VisitDetails) (models.VisitDetails, error) {
			details.LabelIDs = append(details.LabelIDs, labelID)
			return details, nil
		})
	}()
	go func() {
		defer wg.Done()
		_ = s.store.UpdateDetails(s.ctx, aggregate.ID, func(details models.VisitDetails) (models.VisitDetails, error) {
			details.MemberIDs = append(details.MemberIDs, memberID)
			return details, nil
		})
	}()
	wg.Wait()

	final, _, err := s.store.Get(s.ctx, aggregate.ID)
	s.Require().NoError(err)
	s.True(final.Details.HasLabel(labelID), "label update was lost")
	s.True(final.Details.HasMember(memberID), "member update was lost")
}

func (s *VisitStoreSuite) TestDelete() {
	s.Run("removes the whole aggregate", func() {
		aggregate := s.newAggregate(time.Now(), models.VisitDetails{})
		s.mustCreate(aggregate)

		s.Require().NoError(s.store.Delete(s.ctx, aggregate.ID))

		_, ok, err := s.store.Get(s.ctx, aggregate.ID)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("absent id fails with ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Delete(s.ctx, id.NewVisitID()), sentinel.ErrNotFound)
	})

	s.Run("delete all empties the store", func() {
		s.mustCreate(s.newAggregate(time.Now(), models.VisitDetails{}))
		s.mustCreate(s.newAggregate(time.Now(), models.VisitDetails{}))

		s.Require().NoError(s.store.DeleteAll(s.ctx))

		all, err := s.store.Fetch(s.ctx, Filter{})
		s.Require().NoError(err)
		s.Empty(all)
	})
}

func (s *VisitStoreSuite) TestFetchTaxonomyPushdown() {
	labelID := id.NewLabelID()
	groupID := id.NewGroupID()
	memberID := id.NewMemberID()

	labeled := s.newAggregate(time.Now(), models.VisitDetails{LabelIDs: []id.LabelID{labelID}})
	grouped := s.newAggregate(time.Now(), models.VisitDetails{GroupID: &groupID})
	withMember := s.newAggregate(time.Now(), models.VisitDetails{MemberIDs: []id.MemberID{memberID}})
	bare := s.newAggregate(time.Now(), models.VisitDetails{})
	for _, aggregate := range []models.VisitAggregate{labeled, grouped, withMember, bare} {
		s.mustCreate(aggregate)
	}

	s.Run("label restricts to containment", func() {
		got, err := s.store.Fetch(s.ctx, Filter{LabelID: &labelID})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(labeled.ID, got[0].ID)
	})

	s.Run("group restricts to equality", func() {
		got, err := s.store.Fetch(s.ctx, Filter{GroupID: &groupID})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(grouped.ID, got[0].ID)
	})

	s.Run("member restricts to containment", func() {
		got, err := s.store.Fetch(s.ctx, Filter{MemberID: &memberID})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(withMember.ID, got[0].ID)
	})

	s.Run("absent group never matches a group filter", func() {
		otherGroup := id.NewGroupID()
		got, err := s.store.Fetch(s.ctx, Filter{GroupID: &otherGroup})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("empty filter returns everything", func() {
		got, err := s.store.Fetch(s.ctx, Filter{})
		s.Require().NoError(err)
		s.Len(got, 4)
	})
}

func (s *VisitStoreSuite) TestFetchTitleQuery() {
	cafe := s.newAggregate(time.Now(), models.VisitDetails{Title: "Café de Flore"})
	bakery := s.newAggregate(time.Now(), models.VisitDetails{Title: "Bakery"})
	untitled := s.newAggregate(time.Now(), models.VisitDetails{})
	for _, aggregate := range []models.VisitAggregate{cafe, bakery, untitled} {
		s.mustCreate(aggregate)
	}

	s.Run("case-insensitive substring", func() {
		got, err := s.store.Fetch(s.ctx, Filter{TitleQuery: "bAkEr"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(bakery.ID, got[0].ID)
	})

	s.Run("diacritic-insensitive substring", func() {
		got, err := s.store.Fetch(s.ctx, Filter{TitleQuery: "cafe"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(cafe.ID, got[0].ID)
	})

	s.Run("blank query imposes no restriction", func() {
		got, err := s.store.Fetch(s.ctx, Filter{TitleQuery: "   "})
		s.Require().NoError(err)
		s.Len(got, 3)
	})
}

// TestFetchDateWindow pins the half-open interval semantics on the raw
// instant: [from, toExclusive).
func (s *VisitStoreSuite) TestFetchDateWindow() {
	before := s.newAggregate(time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC), models.VisitDetails{})
	onFrom := s.newAggregate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), models.VisitDetails{})
	inside := s.newAggregate(time.Date(2025, 1, 2, 12, 30, 0, 0, time.UTC), models.VisitDetails{})
	onTo := s.newAggregate(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), models.VisitDetails{})
	for _, aggregate := range []models.VisitAggregate{before, onFrom, inside, onTo} {
		s.mustCreate(aggregate)
	}

	from := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	got, err := s.store.Fetch(s.ctx, Filter{From: &from, ToExclusive: &to})
	s.Require().NoError(err)

	ids := make(map[id.VisitID]bool, len(got))
	for _, aggregate := range got {
		ids[aggregate.ID] = true
	}
	s.True(ids[onFrom.ID], "inclusive lower bound")
	s.True(ids[inside.ID])
	s.False(ids[before.ID])
	s.False(ids[onTo.ID], "exclusive upper bound")
}

// TestDanglingTaxonomyReference documents that the store keeps weak ids as-is:
// deleting a taxonomy entry elsewhere leaves the reference in place and
// fetching it back is not an error.
func (s *VisitStoreSuite) TestDanglingTaxonomyReference() {
	deletedLabel := id.NewLabelID()
	aggregate := s.newAggregate(time.Now(), models.VisitDetails{LabelIDs: []id.LabelID{deletedLabel}})
	s.mustCreate(aggregate)

	found, ok, err := s.store.Get(s.ctx, aggregate.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.True(found.Details.HasLabel(deletedLabel))
}
