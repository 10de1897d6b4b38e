package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulseaid/pkg/platform/events"
)

type entry struct {
	event       events.Event
	publishedAt *time.Time
}

// InMemoryStore is an outbox kept in process memory, in append order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{event: event})
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if e.publishedAt != nil {
			continue
		}
		out = append(out, e.event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range s.entries {
		if _, ok := set[s.entries[i].event.ID]; ok && s.entries[i].publishedAt == nil {
			t := at
			s.entries[i].publishedAt = &t
		}
	}
	return nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.event)
	}
	return out, nil
}

// ListByType returns events of the given type in append order.
func (s *InMemoryStore) ListByType(_ context.Context, t events.Type) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if e.event.Type == t {
			out = append(out, e.event)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
