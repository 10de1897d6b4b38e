// Package domainerrors defines the typed error model shared by every ledger module.
//
// Each error carries a machine-readable Code, the Kind the code belongs to, and the ids of
// the entities involved so a client can decide whether to retry, wait, or abandon:
//
//	return dErrors.New(dErrors.CodeWindowStillOpen, "challenge window is still open").
//		With("campaign_id", id)
//
// Stores never construct these directly; they return pkg/platform/sentinel errors which the
// services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Code is a stable, machine-readable error identifier surfaced to API clients.
type Code string

// Generic codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Protocol codes.
const (
	// Institution registry
	CodeInsufficientStake   Code = "insufficient_stake"
	CodeAlreadyRegistered   Code = "already_registered"
	CodeNotPending          Code = "not_pending"
	CodeActiveCampaigns     Code = "active_campaigns_exist"
	CodeAttestationRejected Code = "attestation_rejected"

	// CodeUnauthorizedInstitution is an authenticated wallet acting for an institution it
	// is not, or one that is not Verified. CodeUnauthorized stays reserved for a missing session.
	CodeUnauthorizedInstitution Code = "unauthorized_institution"

	// Campaign ledger
	CodeInvalidGoal        Code = "invalid_goal"
	CodeInvalidDuration    Code = "invalid_duration"
	CodeInvalidAmount      Code = "invalid_amount"
	CodeCollateralRequired Code = "collateral_required"
	CodeCampaignNotActive  Code = "campaign_not_active"
	CodeTooEarly           Code = "too_early"
	CodeAlreadyEnded       Code = "already_ended"
	CodeNotCancellable     Code = "not_cancellable"

	// Escrow vault
	CodeNotCancelled      Code = "not_cancelled"
	CodeNothingToRefund   Code = "nothing_to_refund"
	CodeAlreadyReleased   Code = "already_released"
	CodeCampaignCancelled Code = "campaign_cancelled"
	CodeOutflowExceeded   Code = "outflow_exceeded"

	// Proof validator
	CodeCampaignNotEnded   Code = "campaign_not_ended"
	CodeProofAlreadyExists Code = "proof_already_exists"
	CodeInvalidEvidence    Code = "invalid_evidence"
	CodeInsufficientFee    Code = "insufficient_fee"
	CodeWindowClosed       Code = "window_closed"
	CodeInsufficientWeight Code = "insufficient_weight"
	CodeNotChallengeable   Code = "not_challengeable"
	CodeDisputeNotOpen     Code = "dispute_not_open"
	CodeAlreadyVoted       Code = "already_voted"
	CodeWindowStillOpen    Code = "window_still_open"
	CodeDisputeStillOpen   Code = "dispute_still_open"
	CodeAlreadyFinalized   Code = "already_finalized"
	CodeDisputeNotResolved Code = "dispute_not_resolved"
	CodeNotOnWinningSide   Code = "not_on_winning_side"
	CodeAlreadyClaimed     Code = "already_claimed"
)

// Kind groups codes by how a caller should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindResource      Kind = "resource"
	KindIdempotency   Kind = "idempotency"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

var codeKinds = map[Code]Kind{
	CodeBadRequest:         KindValidation,
	CodeValidation:         KindValidation,
	CodeInvalidInput:       KindValidation,
	CodeInvalidGoal:        KindValidation,
	CodeInvalidDuration:    KindValidation,
	CodeInvalidAmount:      KindValidation,
	CodeInvalidEvidence:    KindValidation,
	CodeInvariantViolation: KindValidation,

	CodeUnauthorized:        KindAuthorization,
	CodeForbidden:           KindAuthorization,
	CodeAttestationRejected: KindAuthorization,

	CodeUnauthorizedInstitution: KindAuthorization,

	CodeConflict:           KindState,
	CodeAlreadyRegistered:  KindState,
	CodeNotPending:         KindState,
	CodeActiveCampaigns:    KindState,
	CodeCampaignNotActive:  KindState,
	CodeTooEarly:           KindState,
	CodeAlreadyEnded:       KindState,
	CodeNotCancellable:     KindState,
	CodeNotCancelled:       KindState,
	CodeCampaignCancelled:  KindState,
	CodeCampaignNotEnded:   KindState,
	CodeProofAlreadyExists: KindState,
	CodeWindowClosed:       KindState,
	CodeNotChallengeable:   KindState,
	CodeDisputeNotOpen:     KindState,
	CodeWindowStillOpen:    KindState,
	CodeDisputeStillOpen:   KindState,
	CodeAlreadyFinalized:   KindState,
	CodeDisputeNotResolved: KindState,
	CodeNotOnWinningSide:   KindState,

	CodeInsufficientStake:  KindResource,
	CodeCollateralRequired: KindResource,
	CodeNothingToRefund:    KindResource,
	CodeInsufficientFee:    KindResource,
	CodeInsufficientWeight: KindResource,
	CodeOutflowExceeded:    KindResource,

	CodeAlreadyReleased: KindIdempotency,
	CodeAlreadyVoted:    KindIdempotency,
	CodeAlreadyClaimed:  KindIdempotency,

	CodeNotFound: KindNotFound,

	CodeTimeout:  KindInternal,
	CodeInternal: KindInternal,
}

// Kind returns the category of the code. Unknown codes are internal.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindInternal
}

// Error is the domain error type returned by services.
type Error struct {
	Code     Code
	Message  string
	Entities map[string]string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Entities) > 0 {
		b.WriteString(" [")
		for i, k := range slices.Sorted(maps.Keys(e.Entities)) {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(e.Entities[k])
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the category of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// With attaches an entity reference and returns the same error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Entities == nil {
		e.Entities = make(map[string]string, 2)
	}
	e.Entities[key] = fmt.Sprint(value)
	return e
}

// New creates a domain error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the outermost domain error from the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// KindOf returns the kind of err; errors outside the domain model are internal.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind()
	}
	return KindInternal
}
