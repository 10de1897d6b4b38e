package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/internal/institution/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
	txcontext "pulseaid/pkg/platform/tx"
)

// PostgresStore persists institutions in PostgreSQL.
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

const institutionColumns = `
	address, name, description, category, country, website, stake, state,
	attestation_status, attestation_reason, claim, reputation,
	registered_at, verified_at, updated_at`

// FindByAddress locks the row when called inside a transaction.
func (s *PostgresStore) FindByAddress(ctx context.Context, addr common.Address) (*models.Institution, error) {
	query := `SELECT` + institutionColumns + ` FROM institutions WHERE address = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	inst, err := scanInstitution(s.execer(ctx).QueryRowContext(ctx, query, addr.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return inst, nil
}

func (s *PostgresStore) Save(ctx context.Context, inst *models.Institution) error {
	var claim []byte
	if inst.Claim != nil {
		var err error
		if claim, err = json.Marshal(inst.Claim); err != nil {
			return fmt.Errorf("marshal claim: %w", err)
		}
	}
	query := `
		INSERT INTO institutions (
			address, name, description, category, country, website, stake, state,
			attestation_status, attestation_reason, claim, registered_at, verified_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			country = EXCLUDED.country,
			website = EXCLUDED.website,
			stake = EXCLUDED.stake,
			state = EXCLUDED.state,
			attestation_status = EXCLUDED.attestation_status,
			attestation_reason = EXCLUDED.attestation_reason,
			claim = EXCLUDED.claim,
			registered_at = EXCLUDED.registered_at,
			verified_at = EXCLUDED.verified_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		inst.Address.Hex(),
		inst.Profile.Name,
		inst.Profile.Description,
		inst.Profile.Category,
		inst.Profile.Country,
		inst.Profile.Website,
		inst.Stake,
		string(inst.State),
		string(inst.Attestation),
		inst.AttestationReason,
		claim,
		inst.RegisteredAt,
		inst.VerifiedAt,
		inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save institution: %w", err)
	}
	return nil
}

func (s *PostgresStore) AdjustReputation(ctx context.Context, addr common.Address, delta int64) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE institutions SET reputation = reputation + $2 WHERE address = $1`,
		addr.Hex(), delta,
	)
	if err != nil {
		return fmt.Errorf("adjust reputation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, state models.State) ([]*models.Institution, error) {
	query := `SELECT` + institutionColumns + ` FROM institutions WHERE ($1 = '' OR state = $1) ORDER BY registered_at`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer rows.Close()
	var out []*models.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan institution: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (total, verified int, err error) {
	err = s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE state = $1) FROM institutions`,
		string(models.StateVerified),
	).Scan(&total, &verified)
	if err != nil {
		return 0, 0, fmt.Errorf("count institutions: %w", err)
	}
	return total, verified, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (*models.Institution, error) {
	var (
		inst        models.Institution
		address     string
		state       string
		attestation string
		claim       []byte
		stake       domain.Amount
		verifiedAt  sql.NullTime
		registered  time.Time
		updated     time.Time
	)
	err := row.Scan(
		&address,
		&inst.Profile.Name,
		&inst.Profile.Description,
		&inst.Profile.Category,
		&inst.Profile.Country,
		&inst.Profile.Website,
		&stake,
		&state,
		&attestation,
		&inst.AttestationReason,
		&claim,
		&inst.Reputation,
		&registered,
		&verifiedAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	inst.Address = common.HexToAddress(address)
	inst.Stake = stake
	inst.State = models.State(state)
	inst.Attestation = models.AttestationStatus(attestation)
	inst.RegisteredAt = registered
	inst.UpdatedAt = updated
	if verifiedAt.Valid {
		t := verifiedAt.Time
		inst.VerifiedAt = &t
	}
	if len(claim) > 0 {
		var c models.Claim
		if err := json.Unmarshal(claim, &c); err != nil {
			return nil, fmt.Errorf("unmarshal claim: %w", err)
		}
		inst.Claim = &c
	}
	return &inst, nil
}
