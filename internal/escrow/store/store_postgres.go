package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/escrow/models"
	"pulseaid/internal/platform/postgres"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
	txcontext "pulseaid/pkg/platform/tx"
)

// PostgresStore persists escrow accounts and donations. The outflow invariant is also
// enforced by a CHECK constraint on escrow_accounts.
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

const accountColumns = `
	campaign_id, beneficiary, collateral, collateral_settled, deposited, refunded,
	released, cancelled, released_at, updated_at`

func (s *PostgresStore) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO escrow_accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		int64(a.CampaignID), a.Beneficiary.Hex(), a.Collateral, a.CollateralSettled,
		a.Deposited, a.Refunded, a.Released, a.Cancelled, a.ReleasedAt, a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create escrow account: %w", err)
	}
	return nil
}

// FindAccount locks the row when called inside a transaction.
func (s *PostgresStore) FindAccount(ctx context.Context, id domain.CampaignID) (*models.Account, error) {
	query := `SELECT` + accountColumns + ` FROM escrow_accounts WHERE campaign_id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	var (
		a           models.Account
		campaignID  int64
		beneficiary string
		releasedAt  sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(id)).Scan(
		&campaignID,
		&beneficiary,
		&a.Collateral,
		&a.CollateralSettled,
		&a.Deposited,
		&a.Refunded,
		&a.Released,
		&a.Cancelled,
		&releasedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find escrow account: %w", err)
	}
	a.CampaignID = domain.CampaignID(campaignID)
	a.Beneficiary = common.HexToAddress(beneficiary)
	if releasedAt.Valid {
		t := releasedAt.Time
		a.ReleasedAt = &t
	}
	return &a, nil
}

func (s *PostgresStore) SaveAccount(ctx context.Context, a *models.Account) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE escrow_accounts
		SET collateral_settled = $2, deposited = $3, refunded = $4, released = $5,
			cancelled = $6, released_at = $7, updated_at = $8
		WHERE campaign_id = $1`,
		int64(a.CampaignID), a.CollateralSettled, a.Deposited, a.Refunded, a.Released,
		a.Cancelled, a.ReleasedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save escrow account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save escrow account rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindDonation(ctx context.Context, id domain.CampaignID, donor common.Address) (*models.Donation, error) {
	query := `SELECT deposited, refunded, updated_at FROM donations WHERE campaign_id = $1 AND donor = $2`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	d := models.Donation{CampaignID: id, Donor: donor}
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(id), donor.Hex()).
		Scan(&d.Deposited, &d.Refunded, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) SaveDonation(ctx context.Context, d *models.Donation) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO donations (campaign_id, donor, deposited, refunded, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_id, donor) DO UPDATE
		SET deposited = EXCLUDED.deposited, refunded = EXCLUDED.refunded, updated_at = EXCLUDED.updated_at`,
		int64(d.CampaignID), d.Donor.Hex(), d.Deposited, d.Refunded, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDonations(ctx context.Context, id domain.CampaignID) ([]*models.Donation, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT donor, deposited, refunded, updated_at FROM donations WHERE campaign_id = $1 ORDER BY donor`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Donation, 0)
	for rows.Next() {
		var (
			d     = models.Donation{CampaignID: id}
			donor string
		)
		if err := rows.Scan(&donor, &d.Deposited, &d.Refunded, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		d.Donor = common.HexToAddress(donor)
		out = append(out, &d)
	}
	return out, rows.Err()
}
