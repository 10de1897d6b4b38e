package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"pulseaid/internal/platform/postgres"
	"pulseaid/internal/proof/models"
	"pulseaid/pkg/domain"
	"pulseaid/pkg/platform/sentinel"
	txcontext "pulseaid/pkg/platform/tx"
)

// PostgresStore persists proofs, disputes and dispute ballots.
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

func forUpdate(ctx context.Context, query string) string {
	if _, inTx := txcontext.From(ctx); inTx {
		return query + ` FOR UPDATE`
	}
	return query
}

func (s *PostgresStore) FindByCampaign(ctx context.Context, id domain.CampaignID) (*models.Proof, error) {
	query := forUpdate(ctx, `
		SELECT submitter, evidence_ref, receipts_hash, photos_hash, metrics_hash, fee, attempt,
			status, submitted_at, challenge_window_end, dispute_id, finalized_at
		FROM proofs WHERE campaign_id = $1`)
	var (
		p                               = models.Proof{CampaignID: id}
		submitter, ref, status          string
		receipts, photos, metricsDigest string
		disputeID                       uuid.NullUUID
		finalizedAt                     sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(id)).Scan(
		&submitter,
		&ref,
		&receipts,
		&photos,
		&metricsDigest,
		&p.Fee,
		&p.Attempt,
		&status,
		&p.SubmittedAt,
		&p.ChallengeWindowEnd,
		&disputeID,
		&finalizedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find proof: %w", err)
	}
	p.Submitter = common.HexToAddress(submitter)
	p.Status = models.Status(status)
	p.Evidence = models.Evidence{
		Ref:          domain.EvidenceRef(ref),
		ReceiptsHash: common.HexToHash(receipts),
		PhotosHash:   common.HexToHash(photos),
		MetricsHash:  common.HexToHash(metricsDigest),
	}
	if disputeID.Valid {
		d := domain.DisputeID(disputeID.UUID)
		p.DisputeID = &d
	}
	if finalizedAt.Valid {
		t := finalizedAt.Time
		p.FinalizedAt = &t
	}
	return &p, nil
}

// SaveProof upserts the campaign's proof; a resubmission overwrites the rejected attempt.
func (s *PostgresStore) SaveProof(ctx context.Context, p *models.Proof) error {
	var disputeID uuid.NullUUID
	if p.DisputeID != nil {
		disputeID = uuid.NullUUID{UUID: uuid.UUID(*p.DisputeID), Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO proofs (campaign_id, submitter, evidence_ref, receipts_hash, photos_hash,
			metrics_hash, fee, attempt, status, submitted_at, challenge_window_end, dispute_id, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (campaign_id) DO UPDATE SET
			submitter = EXCLUDED.submitter,
			evidence_ref = EXCLUDED.evidence_ref,
			receipts_hash = EXCLUDED.receipts_hash,
			photos_hash = EXCLUDED.photos_hash,
			metrics_hash = EXCLUDED.metrics_hash,
			fee = EXCLUDED.fee,
			attempt = EXCLUDED.attempt,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			challenge_window_end = EXCLUDED.challenge_window_end,
			dispute_id = EXCLUDED.dispute_id,
			finalized_at = EXCLUDED.finalized_at`,
		int64(p.CampaignID), p.Submitter.Hex(), p.Evidence.Ref.String(),
		p.Evidence.ReceiptsHash.Hex(), p.Evidence.PhotosHash.Hex(), p.Evidence.MetricsHash.Hex(),
		p.Fee, p.Attempt, string(p.Status), p.SubmittedAt, p.ChallengeWindowEnd, disputeID, p.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("save proof: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateDispute(ctx context.Context, d *models.Dispute) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO disputes (id, campaign_id, challenger, reason, challenger_weight, approve_weight,
			reject_weight, reward_pool, outcome, created_at, deadline, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(d.ID), int64(d.CampaignID), d.Challenger.Hex(), d.Reason, int64(d.ChallengerWeight),
		int64(d.ApproveWeight), int64(d.RejectWeight), d.RewardPool, string(d.Outcome),
		d.CreatedAt, d.Deadline, d.ResolvedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create dispute: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDispute(ctx context.Context, id domain.DisputeID) (*models.Dispute, error) {
	query := forUpdate(ctx, `
		SELECT campaign_id, challenger, reason, challenger_weight, approve_weight, reject_weight,
			reward_pool, outcome, created_at, deadline, resolved_at
		FROM disputes WHERE id = $1`)
	var (
		d                              = models.Dispute{ID: id}
		campaignID                     int64
		challenger, outcome            string
		challengerW, approveW, rejectW int64
		resolvedAt                     sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&campaignID,
		&challenger,
		&d.Reason,
		&challengerW,
		&approveW,
		&rejectW,
		&d.RewardPool,
		&outcome,
		&d.CreatedAt,
		&d.Deadline,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find dispute: %w", err)
	}
	d.CampaignID = domain.CampaignID(campaignID)
	d.Challenger = common.HexToAddress(challenger)
	d.ChallengerWeight = domain.Weight(challengerW)
	d.ApproveWeight = domain.Weight(approveW)
	d.RejectWeight = domain.Weight(rejectW)
	d.Outcome = models.Outcome(outcome)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	return &d, nil
}

func (s *PostgresStore) SaveDispute(ctx context.Context, d *models.Dispute) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE disputes
		SET approve_weight = $2, reject_weight = $3, outcome = $4, resolved_at = $5
		WHERE id = $1`,
		uuid.UUID(d.ID), int64(d.ApproveWeight), int64(d.RejectWeight), string(d.Outcome), d.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("save dispute: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save dispute rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CreateVote relies on the (dispute_id, voter) primary key for AlreadyVoted under races.
func (s *PostgresStore) CreateVote(ctx context.Context, v *models.Vote) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO dispute_votes (dispute_id, voter, approve, weight, cast_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(v.DisputeID), v.Voter.Hex(), v.Approve, int64(v.Weight), v.CastAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindVote(ctx context.Context, id domain.DisputeID, voter common.Address) (*models.Vote, error) {
	query := forUpdate(ctx, `
		SELECT approve, weight, cast_at, reward, claimed_at
		FROM dispute_votes WHERE dispute_id = $1 AND voter = $2`)
	v := models.Vote{DisputeID: id, Voter: voter}
	var (
		weight    int64
		claimedAt sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id), voter.Hex()).
		Scan(&v.Approve, &weight, &v.CastAt, &v.Reward, &claimedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find vote: %w", err)
	}
	v.Weight = domain.Weight(weight)
	if claimedAt.Valid {
		t := claimedAt.Time
		v.ClaimedAt = &t
	}
	return &v, nil
}

func (s *PostgresStore) SaveVote(ctx context.Context, v *models.Vote) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE dispute_votes SET reward = $3, claimed_at = $4
		WHERE dispute_id = $1 AND voter = $2`,
		uuid.UUID(v.DisputeID), v.Voter.Hex(), v.Reward, v.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("save vote: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save vote rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListVotes(ctx context.Context, id domain.DisputeID) ([]*models.Vote, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT voter, approve, weight, cast_at, reward, claimed_at
		FROM dispute_votes WHERE dispute_id = $1 ORDER BY cast_at, voter`,
		uuid.UUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Vote, 0)
	for rows.Next() {
		var (
			v         = models.Vote{DisputeID: id}
			voter     string
			weight    int64
			claimedAt sql.NullTime
		)
		if err := rows.Scan(&voter, &v.Approve, &weight, &v.CastAt, &v.Reward, &claimedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.Voter = common.HexToAddress(voter)
		v.Weight = domain.Weight(weight)
		if claimedAt.Valid {
			t := claimedAt.Time
			v.ClaimedAt = &t
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
