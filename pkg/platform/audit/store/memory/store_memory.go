package memory

import (
	"context"
	"sync"

	id "casbinder/pkg/domain"
	audit "casbinder/pkg/platform/audit"
)

// InMemoryStore keeps events in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByAccount(_ context.Context, accountID id.AccountID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// Snapshot lets the in-memory transaction drop events appended by a failed unit.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	n := len(s.events)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		if len(s.events) > n {
			s.events = s.events[:n]
		}
		s.mu.Unlock()
	}
}
