package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/campaign/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
)

// InMemoryStore keeps campaigns in process memory with a monotonic id sequence.
type InMemoryStore struct {
	mu        sync.RWMutex
	seq       uint64
	campaigns map[domain.CampaignID]*models.Campaign
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{campaigns: make(map[domain.CampaignID]*models.Campaign)}
}

func clone(c *models.Campaign) *models.Campaign {
	out := *c
	if c.ClosedAt != nil {
		t := *c.ClosedAt
		out.ClosedAt = &t
	}
	return &out
}

// Create assigns the next id and stores the campaign.
func (s *InMemoryStore) Create(_ context.Context, c *models.Campaign) (domain.CampaignID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c.ID = domain.CampaignID(s.seq)
	s.campaigns[c.ID] = clone(c)
	return c.ID, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) Save(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.campaigns[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Campaign, 0)
	for _, c := range s.campaigns {
		if filter.Matches(c) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.campaigns), nil
}

func (s *InMemoryStore) TotalRaised(_ context.Context) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total domain.Amount
	for _, c := range s.campaigns {
		total = total.Add(c.Raised)
	}
	return total, nil
}

// CountActiveByInstitution counts campaigns that are neither Completed nor Cancelled.
func (s *InMemoryStore) CountActiveByInstitution(_ context.Context, addr common.Address) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.campaigns {
		if c.Institution == addr && c.IsLive() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) SummaryByInstitution(_ context.Context, addr common.Address) (int, domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		count  int
		raised domain.Amount
	)
	for _, c := range s.campaigns {
		if c.Institution == addr {
			count++
			raised = raised.Add(c.Raised)
		}
	}
	return count, raised, nil
}
