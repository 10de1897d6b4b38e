package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/proof/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
)

// InMemoryStore keeps proofs, disputes and ballots in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	proofs   map[domain.CampaignID]*models.Proof
	disputes map[domain.DisputeID]*models.Dispute
	votes    map[domain.DisputeID][]*models.Vote
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		proofs:   make(map[domain.CampaignID]*models.Proof),
		disputes: make(map[domain.DisputeID]*models.Dispute),
		votes:    make(map[domain.DisputeID][]*models.Vote),
	}
}

func cloneProof(p *models.Proof) *models.Proof {
	c := *p
	if p.DisputeID != nil {
		id := *p.DisputeID
		c.DisputeID = &id
	}
	if p.FinalizedAt != nil {
		t := *p.FinalizedAt
		c.FinalizedAt = &t
	}
	return &c
}

func cloneDispute(d *models.Dispute) *models.Dispute {
	c := *d
	if d.ResolvedAt != nil {
		t := *d.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func cloneVote(v *models.Vote) *models.Vote {
	c := *v
	if v.ClaimedAt != nil {
		t := *v.ClaimedAt
		c.ClaimedAt = &t
	}
	return &c
}

// FindByCampaign returns the campaign's current proof attempt.
func (s *InMemoryStore) FindByCampaign(_ context.Context, id domain.CampaignID) (*models.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proofs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProof(p), nil
}

// SaveProof inserts or replaces the campaign's proof.
func (s *InMemoryStore) SaveProof(_ context.Context, p *models.Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs[p.CampaignID] = cloneProof(p)
	return nil
}

func (s *InMemoryStore) CreateDispute(_ context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[d.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.disputes[d.ID] = cloneDispute(d)
	return nil
}

func (s *InMemoryStore) FindDispute(_ context.Context, id domain.DisputeID) (*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDispute(d), nil
}

func (s *InMemoryStore) SaveDispute(_ context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.disputes[d.ID] = cloneDispute(d)
	return nil
}

// CreateVote returns sentinel.ErrAlreadyUsed if the voter already has a ballot.
func (s *InMemoryStore) CreateVote(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.votes[v.DisputeID] {
		if existing.Voter == v.Voter {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.votes[v.DisputeID] = append(s.votes[v.DisputeID], cloneVote(v))
	return nil
}

func (s *InMemoryStore) FindVote(_ context.Context, id domain.DisputeID, voter common.Address) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.votes[id] {
		if v.Voter == voter {
			return cloneVote(v), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveVote(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.votes[v.DisputeID] {
		if existing.Voter == v.Voter {
			s.votes[v.DisputeID][i] = cloneVote(v)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// ListVotes returns ballots in the order they were cast.
func (s *InMemoryStore) ListVotes(_ context.Context, id domain.DisputeID) ([]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Vote, 0, len(s.votes[id]))
	for _, v := range s.votes[id] {
		out = append(out, cloneVote(v))
	}
	return out, nil
}
