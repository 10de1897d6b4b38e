package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Claim is the identity evidence presented at registration: a statement about Subject
// signed by an attestor.
type Claim struct {
	Subject   common.Address `json:"subject"`
	Statement string         `json:"statement"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Signature hexutil.Bytes  `json:"signature"`
}

// Verdict is the attestor's answer for a claim.
type Verdict struct {
	Accepted bool
	Attestor common.Address
	Reason   string
}
