package memory

import (
	"context"
	"sync"

	"waymark/pkg/platform/journal"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []journal.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event journal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns events in append order.
func (s *InMemoryStore) List(_ context.Context) ([]journal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]journal.Event{}, s.events...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
