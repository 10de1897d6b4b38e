//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"pulseaid/internal/platform/config"
	"pulseaid/internal/platform/postgres"
)

// PostgresContainer is a Postgres instance with the ledger schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pulseaid"),
		tcpostgres.WithUsername("pulseaid"),
		tcpostgres.WithPassword("pulseaid"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 20})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if _, err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	// Shared across suites; Ryuk removes the container when the binary exits.
	return &PostgresContainer{Container: container, URL: url, DB: db}
}

// TruncateTables empties the named tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", ")))
	return err
}

// SeedInstitution inserts a bare verified institution so rows that reference it can be
// written without going through the institution store.
func (p *PostgresContainer) SeedInstitution(ctx context.Context, addr common.Address) error {
	now := time.Now().UTC()
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO institutions (address, name, state, registered_at, updated_at)
		VALUES ($1, 'seeded', 'verified', $2, $2)
		ON CONFLICT (address) DO NOTHING`,
		addr.Hex(), now,
	)
	return err
}

// SeedCampaign inserts an active campaign owned by inst and returns its id.
func (p *PostgresContainer) SeedCampaign(ctx context.Context, inst common.Address) (uint64, error) {
	if err := p.SeedInstitution(ctx, inst); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	var id uint64
	err := p.DB.QueryRowContext(ctx, `
		INSERT INTO campaigns (institution, title, goal, deadline, status, created_at, updated_at)
		VALUES ($1, 'seeded', 1, $2, 'active', $3, $3)
		RETURNING id`,
		inst.Hex(), now.Add(24*time.Hour), now,
	).Scan(&id)
	return id, err
}
