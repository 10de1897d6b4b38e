package models

import (
	"pulseaid/pkg/domain"
)

// RegisterRequest is the body of POST /institutions.
type RegisterRequest struct {
	Profile
	Claim Claim         `json:"claim"`
	Stake domain.Amount `json:"stake"`
}

// SlashRequest is the body of POST /admin/institutions/{address}/slash.
type SlashRequest struct {
	Reason string `json:"reason"`
}
