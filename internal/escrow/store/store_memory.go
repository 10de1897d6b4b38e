package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/escrow/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
)

type donationKey struct {
	campaign domain.CampaignID
	donor    common.Address
}

// InMemoryStore keeps escrow accounts and donor positions in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	accounts  map[domain.CampaignID]*models.Account
	donations map[donationKey]*models.Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts:  make(map[domain.CampaignID]*models.Account),
		donations: make(map[donationKey]*models.Donation),
	}
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.ReleasedAt != nil {
		t := *a.ReleasedAt
		c.ReleasedAt = &t
	}
	return &c
}

// CreateAccount returns sentinel.ErrAlreadyUsed if the campaign already has an account.
func (s *InMemoryStore) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.CampaignID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.accounts[a.CampaignID] = cloneAccount(a)
	return nil
}

func (s *InMemoryStore) FindAccount(_ context.Context, id domain.CampaignID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *InMemoryStore) SaveAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.CampaignID]; !ok {
		return sentinel.ErrNotFound
	}
	s.accounts[a.CampaignID] = cloneAccount(a)
	return nil
}

func (s *InMemoryStore) FindDonation(_ context.Context, id domain.CampaignID, donor common.Address) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[donationKey{id, donor}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (s *InMemoryStore) SaveDonation(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *d
	s.donations[donationKey{d.CampaignID, d.Donor}] = &c
	return nil
}

func (s *InMemoryStore) ListDonations(_ context.Context, id domain.CampaignID) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Donation, 0)
	for k, d := range s.donations {
		if k.campaign == id {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}
