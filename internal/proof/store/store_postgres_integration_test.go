//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"pulseaid/internal/proof/store"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"dispute_votes", "disputes", "proofs", "campaigns", "institutions"))
}

func (s *PostgresStoreSuite) TestContract() {
	id, err := s.postgres.SeedCampaign(context.Background(), institution)
	s.Require().NoError(err)
	runStoreContract(s.T(), store.NewPostgres(s.postgres.DB), domain.CampaignID(id))
}
