package testutil

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"pulseaid/pkg/requestcontext"
)

// WithCaller adds a wallet address to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithCaller(req *http.Request, addr common.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), addr))
}

// WithGovernance marks the request as carrying a valid admin token.
func WithGovernance(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithGovernance(req.Context()))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// CallerAt builds a service context for addr at a fixed request time.
func CallerAt(addr common.Address, now time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	return requestcontext.WithCaller(ctx, addr)
}

// GovernanceAt builds a governance context at a fixed request time.
func GovernanceAt(now time.Time) context.Context {
	return requestcontext.WithGovernance(requestcontext.WithTime(context.Background(), now))
}

// NewWallet generates a throwaway secp256k1 key and its address.
func NewWallet(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate wallet key")
	return key, crypto.PubkeyToAddress(key.PublicKey)
}
