package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pulseaid/pkg/domain-errors"
)

const sampleCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

func TestParseEvidenceRef(t *testing.T) {
	t.Run("normalises bare CID", func(t *testing.T) {
		ref, err := ParseEvidenceRef(sampleCID)
		require.NoError(t, err)
		assert.Equal(t, EvidenceRef("ipfs://"+sampleCID), ref)

		c, err := ref.CID()
		require.NoError(t, err)
		assert.Equal(t, sampleCID, c.String())
	})

	t.Run("accepts ipfs URI", func(t *testing.T) {
		ref, err := ParseEvidenceRef("ipfs://" + sampleCID)
		require.NoError(t, err)
		assert.Equal(t, "ipfs://"+sampleCID, ref.String())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseEvidenceRef("ipfs://not-a-cid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidEvidence))
	})
}

func TestParseHash(t *testing.T) {
	h, err := ParseHash("receipts_hash", "0x9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658")
	require.NoError(t, err)
	assert.Equal(t, "0x9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658", h.Hex())

	_, err = ParseHash("photos_hash", "0x1234")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidEvidence))

	_, err = ParseHash("metrics_hash", "0x0000000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
}
