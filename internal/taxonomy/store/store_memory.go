package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"waymark/internal/taxonomy/models"
	"waymark/pkg/platform/sentinel"
)

// InMemory keeps tags in a map keyed by kind then id.
type InMemory struct {
	mu   sync.RWMutex
	tags map[models.Kind]map[uuid.UUID]models.Tag
}

func NewInMemory() *InMemory {
	return &InMemory{tags: make(map[models.Kind]map[uuid.UUID]models.Tag)}
}

func (s *InMemory) Create(_ context.Context, tag models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tags[tag.Kind]
	if byID == nil {
		byID = make(map[uuid.UUID]models.Tag)
		s.tags[tag.Kind] = byID
	}
	if _, exists := byID[tag.ID]; exists {
		return sentinel.ErrDuplicateID
	}
	for _, existing := range byID {
		if existing.Name == tag.Name {
			return sentinel.ErrDuplicateName
		}
	}
	byID[tag.ID] = tag
	return nil
}

func (s *InMemory) Rename(_ context.Context, kind models.Kind, tagID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tags[kind]
	tag, exists := byID[tagID]
	if !exists {
		return sentinel.ErrNotFound
	}
	for otherID, other := range byID {
		if otherID != tagID && other.Name == name {
			return sentinel.ErrDuplicateName
		}
	}
	tag.Name = name
	byID[tagID] = tag
	return nil
}

func (s *InMemory) Delete(_ context.Context, kind models.Kind, tagID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tags[kind]
	if _, exists := byID[tagID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(byID, tagID)
	return nil
}

func (s *InMemory) Get(_ context.Context, kind models.Kind, tagID uuid.UUID) (models.Tag, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, exists := s.tags[kind][tagID]
	return tag, exists, nil
}

func (s *InMemory) ListByKind(_ context.Context, kind models.Kind) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]models.Tag, 0, len(s.tags[kind]))
	for _, tag := range s.tags[kind] {
		tags = append(tags, tag)
	}
	return tags, nil
}
