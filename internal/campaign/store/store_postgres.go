package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/campaign/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
	txcontext "pulseaid/pkg/platform/tx"
)

// PostgresStore persists campaigns in PostgreSQL. Ids come from the BIGSERIAL sequence.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const campaignColumns = `
	id, institution, title, description, category, proof_requirements,
	goal, raised, collateral, donor_count, deadline, status, created_at, updated_at, closed_at`

var liveStatuses = []string{
	string(models.StatusActive),
	string(models.StatusGoalReached),
	string(models.StatusEnded),
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Campaign) (domain.CampaignID, error) {
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO campaigns (institution, title, description, category, proof_requirements,
			goal, raised, collateral, donor_count, deadline, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		c.Institution.Hex(), c.Title, c.Description, c.Category, c.ProofRequirements,
		c.Goal, c.Raised, c.Collateral, c.DonorCount, c.Deadline, string(c.Status), c.CreatedAt, c.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create campaign: %w", err)
	}
	c.ID = domain.CampaignID(id)
	return c.ID, nil
}

// FindByID locks the row when called inside a transaction.
func (s *PostgresStore) FindByID(ctx context.Context, id domain.CampaignID) (*models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	c, err := scanCampaign(s.execer(ctx).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *models.Campaign) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE campaigns
		SET raised = $2, donor_count = $3, status = $4, updated_at = $5, closed_at = $6
		WHERE id = $1`,
		int64(c.ID), c.Raised, c.DonorCount, string(c.Status), c.UpdatedAt, c.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save campaign rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Campaign, error) {
	var (
		where []string
		args  []any
	)
	if filter.Institution != (common.Address{}) {
		args = append(args, filter.Institution.Hex())
		where = append(where, fmt.Sprintf("institution = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT` + campaignColumns + ` FROM campaigns`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) TotalRaised(ctx context.Context) (domain.Amount, error) {
	var total domain.Amount
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COALESCE(SUM(raised), 0)::TEXT FROM campaigns`).Scan(&total)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("sum raised: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) CountActiveByInstitution(ctx context.Context, addr common.Address) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaigns WHERE institution = $1 AND status IN ($2, $3, $4)`,
		addr.Hex(), liveStatuses[0], liveStatuses[1], liveStatuses[2],
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active campaigns: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) SummaryByInstitution(ctx context.Context, addr common.Address) (int, domain.Amount, error) {
	var (
		count  int
		raised domain.Amount
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(raised), 0)::TEXT FROM campaigns WHERE institution = $1`,
		addr.Hex(),
	).Scan(&count, &raised)
	if err != nil {
		return 0, domain.Amount{}, fmt.Errorf("summarise campaigns: %w", err)
	}
	return count, raised, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c           models.Campaign
		id          int64
		institution string
		status      string
		closedAt    sql.NullTime
	)
	err := row.Scan(
		&id,
		&institution,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.ProofRequirements,
		&c.Goal,
		&c.Raised,
		&c.Collateral,
		&c.DonorCount,
		&c.Deadline,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = domain.CampaignID(id)
	c.Institution = common.HexToAddress(institution)
	c.Status = models.Status(status)
	if closedAt.Valid {
		t := closedAt.Time
		c.ClosedAt = &t
	}
	return &c, nil
}
