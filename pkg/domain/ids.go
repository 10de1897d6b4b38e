package domain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	dErrors "pulseaid/pkg/domain-errors"
)

// CampaignID is the monotonically increasing campaign identifier. Zero is never assigned.
type CampaignID uint64

func (id CampaignID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsNil reports whether the id is the unassigned zero value.
func (id CampaignID) IsNil() bool {
	return id == 0
}

// ParseCampaignID parses a decimal campaign id from external input.
func ParseCampaignID(s string) (CampaignID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "campaign id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid campaign id")
	}
	return CampaignID(n), nil
}

// DisputeID identifies a dispute opened by a proof challenge.
type DisputeID uuid.UUID

func NewDisputeID() DisputeID {
	return DisputeID(uuid.New())
}

func (id DisputeID) String() string {
	return uuid.UUID(id).String()
}

func (id DisputeID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id DisputeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *DisputeID) UnmarshalText(b []byte) error {
	parsed, err := ParseDisputeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseDisputeID parses a dispute id from external input. The nil UUID is rejected.
func ParseDisputeID(s string) (DisputeID, error) {
	if s == "" {
		return DisputeID{}, dErrors.New(dErrors.CodeInvalidInput, "dispute id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return DisputeID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid dispute id")
	}
	return DisputeID(u), nil
}

// ParseAddress validates a hex wallet address. The zero address is rejected because
// it can never sign a transaction.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid wallet address")
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "zero address is not allowed")
	}
	return addr, nil
}

// Weight is a voting balance reported by the reputation oracle.
type Weight uint64
