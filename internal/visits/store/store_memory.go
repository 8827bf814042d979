package store

import (
	"context"
	"sync"

	"waymark/internal/visits/models"
	id "waymark/pkg/domain"
	"waymark/pkg/platform/sentinel"
	platformstrings "waymark/pkg/platform/strings"
)

// InMemory implements VisitStore with a mutex-guarded map. It favors clarity
// over performance and is the default backend for tests and ephemeral runs.
type InMemory struct {
	mu     sync.RWMutex
	visits map[id.VisitID]models.VisitAggregate
}

var _ VisitStore = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{visits: make(map[id.VisitID]models.VisitAggregate)}
}

func (s *InMemory) Create(_ context.Context, aggregate models.VisitAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.visits[aggregate.ID]; exists {
		return sentinel.ErrDuplicateID
	}
	s.visits[aggregate.ID] = aggregate.Clone()
	return nil
}

// UpdateDetails runs read-transform-write under the store lock, so racing
// updates serialize and neither is lost.
func (s *InMemory) UpdateDetails(_ context.Context, visitID id.VisitID, transform DetailsTransform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.visits[visitID]
	if !exists {
		return sentinel.ErrNotFound
	}

	next, err := transform(current.Details.Clone())
	if err != nil {
		return err
	}

	current.Details = next.Clone()
	s.visits[visitID] = current
	return nil
}

func (s *InMemory) Delete(_ context.Context, visitID id.VisitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.visits[visitID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.visits, visitID)
	return nil
}

func (s *InMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = make(map[id.VisitID]models.VisitAggregate)
	return nil
}

func (s *InMemory) Get(_ context.Context, visitID id.VisitID) (models.VisitAggregate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aggregate, exists := s.visits[visitID]
	if !exists {
		return models.VisitAggregate{}, false, nil
	}
	return aggregate.Clone(), true, nil
}

func (s *InMemory) Fetch(_ context.Context, filter Filter) ([]models.VisitAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.VisitAggregate, 0, len(s.visits))
	for _, aggregate := range s.visits {
		if matches(aggregate, filter) {
			matched = append(matched, aggregate.Clone())
		}
	}
	return matched, nil
}

func matches(aggregate models.VisitAggregate, filter Filter) bool {
	if filter.LabelID != nil && !aggregate.Details.HasLabel(*filter.LabelID) {
		return false
	}
	if filter.GroupID != nil && !aggregate.Details.InGroup(*filter.GroupID) {
		return false
	}
	if filter.MemberID != nil && !aggregate.Details.HasMember(*filter.MemberID) {
		return false
	}
	if query := platformstrings.TrimmedOrEmpty(filter.TitleQuery); query != "" {
		if !platformstrings.ContainsFold(aggregate.Details.Title, query) {
			return false
		}
	}
	timestamp := aggregate.Visit.TimestampUTC
	if filter.From != nil && timestamp.Before(*filter.From) {
		return false
	}
	if filter.ToExclusive != nil && !timestamp.Before(*filter.ToExclusive) {
		return false
	}
	return true
}
