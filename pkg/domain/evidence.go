package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ipfs/go-cid"

	dErrors "pulseaid/pkg/domain-errors"
)

const ipfsScheme = "ipfs://"

// EvidenceRef is a content-addressed locator for a proof bundle, normalised to ipfs://<cid>.
type EvidenceRef string

// ParseEvidenceRef accepts a bare CID or an ipfs:// URI and returns the canonical form.
func ParseEvidenceRef(s string) (EvidenceRef, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), ipfsScheme)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidEvidence, "evidence reference cannot be empty")
	}
	c, err := cid.Decode(raw)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidEvidence, "evidence reference is not a valid CID")
	}
	return EvidenceRef(ipfsScheme + c.String()), nil
}

// CID returns the decoded content identifier.
func (r EvidenceRef) CID() (cid.Cid, error) {
	return cid.Decode(strings.TrimPrefix(string(r), ipfsScheme))
}

func (r EvidenceRef) String() string {
	return string(r)
}

// ParseHash parses a 0x-prefixed 32-byte digest. The zero hash is rejected.
func ParseHash(field, s string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, dErrors.New(dErrors.CodeInvalidEvidence, field+" must be a 0x-prefixed 32-byte hex digest")
	}
	h := common.BytesToHash(b)
	if h == (common.Hash{}) {
		return common.Hash{}, dErrors.New(dErrors.CodeInvalidEvidence, field+" cannot be the zero hash")
	}
	return h, nil
}
