// Package attestor verifies the identity claims institutions present at registration.
package attestor

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"pulseaid/internal/institution/models"
	"pulseaid/internal/platform/walletauth"
	"pulseaid/pkg/requestcontext"
)

const claimDomain = "pulseaid-attestation-v1"

// Rejection reasons reported in the verdict.
const (
	ReasonMalformedSignature = "malformed signature"
	ReasonUntrustedSigner    = "signer is not a trusted attestor"
	ReasonExpired            = "claim expired"
	ReasonNotYetValid        = "claim issued in the future"
	ReasonSubjectMismatch    = "claim subject does not match the registrant"
	ReasonEmptyStatement     = "claim statement is empty"
)

// ClaimDigest is the Keccak-256 hash an attestor signs for a claim. Field order and
// encoding are fixed; the signature itself is excluded.
func ClaimDigest(claim models.Claim) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(claimDomain))
	h.Write(claim.Subject.Bytes())
	h.Write([]byte(claim.Statement))
	var ts [16]byte
	binary.BigEndian.PutUint64(ts[:8], uint64(claim.IssuedAt.Unix()))
	binary.BigEndian.PutUint64(ts[8:], uint64(claim.ExpiresAt.Unix()))
	h.Write(ts[:])
	return h.Sum(nil)
}

// SignClaim fills claim.Signature with an EIP-191 signature over its digest.
func SignClaim(claim *models.Claim, key *ecdsa.PrivateKey) error {
	if claim == nil || key == nil {
		return errors.New("claim and key are required")
	}
	sig, err := walletauth.SignPersonal(ClaimDigest(*claim), key)
	if err != nil {
		return err
	}
	claim.Signature = sig
	return nil
}

// Signed accepts claims signed by one of a fixed set of attestor wallets.
type Signed struct {
	trusted map[common.Address]struct{}
	logger  *slog.Logger
}

type Option func(*Signed)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Signed) {
		s.logger = logger
	}
}

func NewSigned(trusted []common.Address, opts ...Option) (*Signed, error) {
	if len(trusted) == 0 {
		return nil, errors.New("at least one trusted attestor is required")
	}
	s := &Signed{
		trusted: make(map[common.Address]struct{}, len(trusted)),
		logger:  slog.Default(),
	}
	for _, addr := range trusted {
		s.trusted[addr] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify checks the claim signature, validity window and subject. A rejected claim is a
// verdict, not an error; errors are reserved for the attestor being unable to answer.
func (s *Signed) Verify(ctx context.Context, claim models.Claim) (models.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return models.Verdict{}, err
	}
	signer, err := walletauth.RecoverPersonalSign(ClaimDigest(claim), claim.Signature)
	if err != nil {
		return reject(common.Address{}, ReasonMalformedSignature), nil
	}
	if _, ok := s.trusted[signer]; !ok {
		s.logger.WarnContext(ctx, "claim signed by unknown attestor",
			"signer", signer.Hex(),
			"subject", claim.Subject.Hex(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return reject(signer, ReasonUntrustedSigner), nil
	}
	if reason := checkClaim(ctx, claim); reason != "" {
		return reject(signer, reason), nil
	}
	return models.Verdict{Accepted: true, Attestor: signer}, nil
}

func checkClaim(ctx context.Context, claim models.Claim) string {
	now := requestcontext.Now(ctx)
	switch {
	case claim.Statement == "":
		return ReasonEmptyStatement
	case !claim.ExpiresAt.IsZero() && !now.Before(claim.ExpiresAt):
		return ReasonExpired
	case claim.IssuedAt.After(now):
		return ReasonNotYetValid
	}
	if caller := requestcontext.Caller(ctx); caller != (common.Address{}) && caller != claim.Subject {
		return ReasonSubjectMismatch
	}
	return ""
}

func reject(attestor common.Address, reason string) models.Verdict {
	return models.Verdict{Attestor: attestor, Reason: reason}
}

// Static accepts every well-formed claim without checking signatures. Development only.
type Static struct{}

func NewStatic() Static {
	return Static{}
}

func (Static) Verify(ctx context.Context, claim models.Claim) (models.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return models.Verdict{}, err
	}
	if reason := checkClaim(ctx, claim); reason != "" {
		return reject(common.Address{}, reason), nil
	}
	return models.Verdict{Accepted: true}, nil
}
