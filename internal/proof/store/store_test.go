package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseaid/internal/proof/models"
	"pulseaid/internal/proof/store"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
)

type proofStore interface {
	FindByCampaign(ctx context.Context, id domain.CampaignID) (*models.Proof, error)
	SaveProof(ctx context.Context, p *models.Proof) error
	CreateDispute(ctx context.Context, d *models.Dispute) error
	FindDispute(ctx context.Context, id domain.DisputeID) (*models.Dispute, error)
	SaveDispute(ctx context.Context, d *models.Dispute) error
	CreateVote(ctx context.Context, v *models.Vote) error
	FindVote(ctx context.Context, id domain.DisputeID, voter common.Address) (*models.Vote, error)
	SaveVote(ctx context.Context, v *models.Vote) error
	ListVotes(ctx context.Context, id domain.DisputeID) ([]*models.Vote, error)
}

const evidenceRef = domain.EvidenceRef("ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi")

var (
	institution = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	challenger  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	voterA      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	voterB      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	t0          = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func evidence() models.Evidence {
	return models.Evidence{
		Ref:          evidenceRef,
		ReceiptsHash: crypto.Keccak256Hash([]byte("receipts")),
		PhotosHash:   crypto.Keccak256Hash([]byte("photos")),
		MetricsHash:  crypto.Keccak256Hash([]byte("metrics")),
	}
}

func runStoreContract(t *testing.T, s proofStore, campaign domain.CampaignID) {
	ctx := context.Background()

	t.Run("proof attempts replace each other", func(t *testing.T) {
		_, err := s.FindByCampaign(ctx, campaign)
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		p := &models.Proof{CampaignID: campaign}
		p.Submit(institution, evidence(), domain.NewAmount(1), 48*time.Hour, t0)
		require.NoError(t, s.SaveProof(ctx, p))

		p.Status = models.StatusRejected
		finalized := t0.Add(96 * time.Hour)
		p.FinalizedAt = &finalized
		require.NoError(t, s.SaveProof(ctx, p))
		p.Submit(institution, evidence(), domain.NewAmount(1), 48*time.Hour, t0.Add(100*time.Hour))
		require.NoError(t, s.SaveProof(ctx, p))

		got, err := s.FindByCampaign(ctx, campaign)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Attempt)
		assert.Equal(t, models.StatusAutoValidated, got.Status)
		assert.Equal(t, evidence(), got.Evidence)
		assert.True(t, got.Fee.Equal(domain.NewAmount(1)))
		assert.True(t, got.ChallengeWindowEnd.Equal(t0.Add(148*time.Hour)))
		assert.Nil(t, got.FinalizedAt)
		assert.Nil(t, got.DisputeID)
	})

	var disputeID domain.DisputeID
	t.Run("dispute lifecycle", func(t *testing.T) {
		d := &models.Dispute{
			ID:               domain.NewDisputeID(),
			CampaignID:       campaign,
			Challenger:       challenger,
			ChallengerWeight: 150,
			Reason:           "receipts do not match the invoices",
			RewardPool:       domain.NewAmount(1000),
			CreatedAt:        t0,
			Deadline:         t0.Add(72 * time.Hour),
		}
		disputeID = d.ID
		_, err := s.FindDispute(ctx, d.ID)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		require.ErrorIs(t, s.SaveDispute(ctx, d), sentinel.ErrNotFound)

		require.NoError(t, s.CreateDispute(ctx, d))
		require.ErrorIs(t, s.CreateDispute(ctx, d), sentinel.ErrAlreadyUsed)

		p, err := s.FindByCampaign(ctx, campaign)
		require.NoError(t, err)
		p.Status = models.StatusChallenged
		p.DisputeID = &d.ID
		require.NoError(t, s.SaveProof(ctx, p))

		d.RejectWeight = 60
		d.ApproveWeight = 40
		d.Outcome = models.OutcomeRejected
		resolved := t0.Add(72 * time.Hour)
		d.ResolvedAt = &resolved
		require.NoError(t, s.SaveDispute(ctx, d))

		got, err := s.FindDispute(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeRejected, got.Outcome)
		assert.Equal(t, domain.Weight(60), got.RejectWeight)
		assert.Equal(t, domain.Weight(150), got.ChallengerWeight)
		assert.True(t, got.RewardPool.Equal(domain.NewAmount(1000)))
		require.NotNil(t, got.ResolvedAt)

		proof, err := s.FindByCampaign(ctx, campaign)
		require.NoError(t, err)
		require.NotNil(t, proof.DisputeID)
		assert.Equal(t, d.ID, *proof.DisputeID)
	})

	t.Run("one ballot per voter", func(t *testing.T) {
		require.NoError(t, s.CreateVote(ctx, &models.Vote{DisputeID: disputeID, Voter: voterA, Approve: true, Weight: 40, CastAt: t0.Add(time.Hour)}))
		require.NoError(t, s.CreateVote(ctx, &models.Vote{DisputeID: disputeID, Voter: voterB, Approve: false, Weight: 60, CastAt: t0.Add(2 * time.Hour)}))
		require.ErrorIs(t, s.CreateVote(ctx, &models.Vote{DisputeID: disputeID, Voter: voterA, Approve: false, Weight: 40, CastAt: t0.Add(3 * time.Hour)}), sentinel.ErrAlreadyUsed)

		votes, err := s.ListVotes(ctx, disputeID)
		require.NoError(t, err)
		require.Len(t, votes, 2)
		assert.Equal(t, voterA, votes[0].Voter)
		assert.True(t, votes[0].Approve, "the duplicate ballot did not overwrite the first")
	})

	t.Run("reward claim is recorded", func(t *testing.T) {
		require.ErrorIs(t, s.SaveVote(ctx, &models.Vote{DisputeID: disputeID, Voter: challenger}), sentinel.ErrNotFound)

		v, err := s.FindVote(ctx, disputeID, voterB)
		require.NoError(t, err)
		assert.True(t, v.Reward.IsZero())
		assert.Nil(t, v.ClaimedAt)

		claimed := t0.Add(80 * time.Hour)
		v.Reward = domain.NewAmount(1000)
		v.ClaimedAt = &claimed
		require.NoError(t, s.SaveVote(ctx, v))

		got, err := s.FindVote(ctx, disputeID, voterB)
		require.NoError(t, err)
		assert.True(t, got.Reward.Equal(domain.NewAmount(1000)))
		require.NotNil(t, got.ClaimedAt)
		assert.True(t, got.ClaimedAt.Equal(claimed))
	})
}

func TestInMemoryStore(t *testing.T) {
	runStoreContract(t, store.NewInMemoryStore(), 7)
}
