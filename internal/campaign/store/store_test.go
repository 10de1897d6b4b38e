package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseaid/internal/campaign/models"
	"pulseaid/internal/campaign/store"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
)

// campaignStore is the behaviour both backends must share.
type campaignStore interface {
	Create(ctx context.Context, c *models.Campaign) (domain.CampaignID, error)
	FindByID(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Save(ctx context.Context, c *models.Campaign) error
	List(ctx context.Context, filter models.Filter) ([]*models.Campaign, error)
	Count(ctx context.Context) (int, error)
	TotalRaised(ctx context.Context) (domain.Amount, error)
	CountActiveByInstitution(ctx context.Context, addr common.Address) (int, error)
	SummaryByInstitution(ctx context.Context, addr common.Address) (int, domain.Amount, error)
}

var (
	instA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	instB = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	t0    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newCampaign(inst common.Address, title string) *models.Campaign {
	return &models.Campaign{
		Institution: inst,
		Title:       title,
		Description: "clean water for the valley",
		Category:    "water",
		Goal:        domain.NewAmount(10),
		Collateral:  domain.NewAmount(5),
		Deadline:    t0.Add(30 * 24 * time.Hour),
		Status:      models.StatusActive,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func runStoreContract(t *testing.T, s campaignStore) {
	ctx := context.Background()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		first, err := s.Create(ctx, newCampaign(instA, "wells"))
		require.NoError(t, err)
		second, err := s.Create(ctx, newCampaign(instA, "pumps"))
		require.NoError(t, err)
		assert.Greater(t, second, first)

		got, err := s.FindByID(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "wells", got.Title)
		assert.Equal(t, instA, got.Institution)
		assert.True(t, got.Goal.Equal(domain.NewAmount(10)))
		assert.True(t, got.Deadline.Equal(t0.Add(30*24*time.Hour)))
	})

	t.Run("missing campaign", func(t *testing.T) {
		_, err := s.FindByID(ctx, domain.CampaignID(987654))
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		ghost := newCampaign(instA, "ghost")
		ghost.ID = domain.CampaignID(987654)
		require.ErrorIs(t, s.Save(ctx, ghost), sentinel.ErrNotFound)
	})

	t.Run("save persists transitions", func(t *testing.T) {
		id, err := s.Create(ctx, newCampaign(instB, "schools"))
		require.NoError(t, err)
		c, err := s.FindByID(ctx, id)
		require.NoError(t, err)

		c.ApplyDonation(domain.NewAmount(12), true, t0.Add(time.Hour))
		closed := t0.Add(2 * time.Hour)
		c.Status = models.StatusCompleted
		c.ClosedAt = &closed
		require.NoError(t, s.Save(ctx, c))

		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.Equal(t, 1, got.DonorCount)
		assert.True(t, got.Raised.Equal(domain.NewAmount(12)))
		require.NotNil(t, got.ClosedAt)
		assert.True(t, got.ClosedAt.Equal(closed))
	})

	t.Run("list filters and aggregates", func(t *testing.T) {
		byA, err := s.List(ctx, models.Filter{Institution: instA})
		require.NoError(t, err)
		require.Len(t, byA, 2)
		assert.Less(t, byA[0].ID, byA[1].ID)

		completed, err := s.List(ctx, models.Filter{Status: models.StatusCompleted})
		require.NoError(t, err)
		require.Len(t, completed, 1)
		assert.Equal(t, instB, completed[0].Institution)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		raised, err := s.TotalRaised(ctx)
		require.NoError(t, err)
		assert.True(t, raised.Equal(domain.NewAmount(12)))

		active, err := s.CountActiveByInstitution(ctx, instA)
		require.NoError(t, err)
		assert.Equal(t, 2, active)
		active, err = s.CountActiveByInstitution(ctx, instB)
		require.NoError(t, err)
		assert.Equal(t, 0, active, "completed campaigns no longer hold the stake")

		count, raisedB, err := s.SummaryByInstitution(ctx, instB)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.True(t, raisedB.Equal(domain.NewAmount(12)))
	})
}

func TestInMemoryStore(t *testing.T) {
	runStoreContract(t, store.NewInMemoryStore())
}

func TestInMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	c := newCampaign(instA, "wells")
	id, err := s.Create(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)

	c.Title = "changed"
	got, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "wells", got.Title)
}
