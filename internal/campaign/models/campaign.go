package models

import (
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusGoalReached Status = "goal_reached"
	StatusEnded       Status = "ended"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusGoalReached, StatusEnded, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether the campaign can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Campaign is a fundraising drive run by a verified institution.
//
// Invariants:
//   - Status only moves forward, except into Cancelled from Active, GoalReached or Ended
//   - Raised is the gross total deposited; refunds never lower it
//   - Immutable once Completed or Cancelled
type Campaign struct {
	ID                domain.CampaignID `json:"id"`
	Institution       common.Address    `json:"institution"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	ProofRequirements string            `json:"proof_requirements,omitempty"`
	Goal              domain.Amount     `json:"goal"`
	Raised            domain.Amount     `json:"raised"`
	Collateral        domain.Amount     `json:"collateral"`
	DonorCount        int               `json:"donor_count"`
	Deadline          time.Time         `json:"deadline"`
	Status            Status            `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	ClosedAt          *time.Time        `json:"closed_at,omitempty"`
}

// IsLive reports whether the campaign still counts against its institution's stake.
func (c *Campaign) IsLive() bool {
	return !c.Status.IsTerminal()
}

// CanDonate accepts donations while Active or GoalReached and before the deadline.
func (c *Campaign) CanDonate(now time.Time) error {
	if c.Status != StatusActive && c.Status != StatusGoalReached {
		return dErrors.New(dErrors.CodeCampaignNotActive, "campaign is not accepting donations").
			With("campaign_id", c.ID).
			With("status", c.Status)
	}
	if !now.Before(c.Deadline) {
		return dErrors.New(dErrors.CodeCampaignNotActive, "campaign deadline has passed").
			With("campaign_id", c.ID).
			With("deadline", c.Deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

// ApplyDonation adds amount to Raised and flips to GoalReached once the goal is met.
func (c *Campaign) ApplyDonation(amount domain.Amount, firstFromDonor bool, now time.Time) {
	c.Raised = c.Raised.Add(amount)
	if firstFromDonor {
		c.DonorCount++
	}
	if c.Status == StatusActive && c.Raised.Cmp(c.Goal) >= 0 {
		c.Status = StatusGoalReached
	}
	c.UpdatedAt = now
}

// CanEnd allows Active/GoalReached -> Ended once the deadline has passed.
// The goal is advisory: an under-funded campaign still ends.
func (c *Campaign) CanEnd(now time.Time) error {
	if c.Status != StatusActive && c.Status != StatusGoalReached {
		return dErrors.New(dErrors.CodeAlreadyEnded, "campaign has already ended").
			With("campaign_id", c.ID).
			With("status", c.Status)
	}
	if now.Before(c.Deadline) {
		return dErrors.New(dErrors.CodeTooEarly, "campaign deadline has not passed").
			With("campaign_id", c.ID).
			With("deadline", c.Deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

func (c *Campaign) ApplyEnd(now time.Time) {
	c.Status = StatusEnded
	c.UpdatedAt = now
}

// CanCancel allows cancellation from any non-terminal status when no proof was approved.
func (c *Campaign) CanCancel(proofApproved bool) error {
	if c.Status.IsTerminal() || proofApproved {
		return dErrors.New(dErrors.CodeNotCancellable, "campaign cannot be cancelled").
			With("campaign_id", c.ID).
			With("status", c.Status)
	}
	return nil
}

func (c *Campaign) ApplyCancel(now time.Time) {
	c.Status = StatusCancelled
	closed := now
	c.ClosedAt = &closed
	c.UpdatedAt = now
}

// CanComplete allows Ended -> Completed when the proof is approved.
func (c *Campaign) CanComplete() error {
	if c.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeCampaignCancelled, "campaign was cancelled").
			With("campaign_id", c.ID)
	}
	if c.Status != StatusEnded {
		return dErrors.New(dErrors.CodeCampaignNotEnded, "campaign has not ended").
			With("campaign_id", c.ID).
			With("status", c.Status)
	}
	return nil
}

func (c *Campaign) ApplyComplete(now time.Time) {
	c.Status = StatusCompleted
	closed := now
	c.ClosedAt = &closed
	c.UpdatedAt = now
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Institution common.Address
	Status      Status
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c *Campaign) bool {
	if f.Institution != (common.Address{}) && c.Institution != f.Institution {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// CreateRequest is the body of POST /campaigns.
type CreateRequest struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Category          string        `json:"category"`
	ProofRequirements string        `json:"proof_requirements"`
	Goal              domain.Amount `json:"goal"`
	DurationSeconds   int64         `json:"duration_seconds"`
	Collateral        domain.Amount `json:"collateral"`
}

// Normalize trims the free-text fields.
func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.ProofRequirements = strings.TrimSpace(r.ProofRequirements)
}

// Validate checks field shapes. Goal and duration report their own codes.
func (r *CreateRequest) Validate(maxDuration time.Duration) error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if len(r.Description) > 8192 {
		return dErrors.New(dErrors.CodeValidation, "description must be 8192 characters or less")
	}
	if !r.Goal.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidGoal, "goal must be greater than zero")
	}
	if r.DurationSeconds <= 0 {
		return dErrors.New(dErrors.CodeInvalidDuration, "duration must be greater than zero")
	}
	limit := int64(math.MaxInt64 / int64(time.Second))
	if maxDuration > 0 {
		limit = int64(maxDuration / time.Second)
	}
	// compared in seconds; multiplying first can wrap past int64
	if r.DurationSeconds > limit {
		return dErrors.New(dErrors.CodeInvalidDuration, "duration exceeds the maximum campaign length").
			With("max_seconds", limit)
	}
	return nil
}

// Duration is only meaningful after Validate has accepted the request.
func (r *CreateRequest) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// DonateRequest is the body of POST /campaigns/{id}/donations.
type DonateRequest struct {
	Amount domain.Amount `json:"amount"`
}
