package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/institution/models"
	"pulseaid/pkg/platform/sentinel"
)

// InMemoryStore keeps institutions in process memory. Records are copied on the way in
// and out so callers never share state with the map.
type InMemoryStore struct {
	mu           sync.RWMutex
	institutions map[common.Address]*models.Institution
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{institutions: make(map[common.Address]*models.Institution)}
}

func clone(i *models.Institution) *models.Institution {
	c := *i
	if i.Claim != nil {
		claim := *i.Claim
		c.Claim = &claim
	}
	if i.VerifiedAt != nil {
		t := *i.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr common.Address) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(inst), nil
}

// Save upserts the institution. Reputation is owned by AdjustReputation and is
// preserved from the stored record.
func (s *InMemoryStore) Save(_ context.Context, inst *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(inst)
	if existing, ok := s.institutions[inst.Address]; ok {
		c.Reputation = existing.Reputation
	}
	s.institutions[inst.Address] = c
	return nil
}

func (s *InMemoryStore) AdjustReputation(_ context.Context, addr common.Address, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.institutions[addr]
	if !ok {
		return sentinel.ErrNotFound
	}
	inst.Reputation += delta
	return nil
}

func (s *InMemoryStore) List(_ context.Context, state models.State) ([]*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Institution, 0, len(s.institutions))
	for _, inst := range s.institutions {
		if state != "" && inst.State != state {
			continue
		}
		out = append(out, clone(inst))
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].RegisteredAt.Before(out[b].RegisteredAt)
	})
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (total, verified int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inst := range s.institutions {
		total++
		if inst.State == models.StateVerified {
			verified++
		}
	}
	return total, verified, nil
}
