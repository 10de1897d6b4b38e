// Package walletauth issues wallet session tokens. A wallet asks for a one-time challenge,
// signs it with personal_sign (EIP-191), and trades the signature for a short-lived JWT
// whose subject is the wallet address.
package walletauth

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "pulseaid/pkg/domain-errors"
	authmw "pulseaid/pkg/platform/middleware/auth"
	"pulseaid/pkg/platform/sentinel"
	"pulseaid/pkg/requestcontext"
)

const challengeTTL = 5 * time.Minute

// NonceStore keeps outstanding challenges. Take must delete what it returns.
type NonceStore interface {
	Put(ctx context.Context, addr common.Address, nonce string, ttl time.Duration) error
	Take(ctx context.Context, addr common.Address) (string, error)
}

// Claims represents the JWT claims of a wallet session.
type Claims struct {
	Address string `json:"addr"`
	jwt.RegisteredClaims
}

// Challenge is the message a wallet must sign.
type Challenge struct {
	Address   common.Address `json:"address"`
	Message   string         `json:"message"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Session is a signed wallet session token.
type Session struct {
	Token     string         `json:"access_token"`
	Address   common.Address `json:"address"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Service handles challenge issue, signature login and token validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	nonces     NonceStore
}

func NewService(signingKey, issuer string, ttl time.Duration, nonces NonceStore) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		nonces:     nonces,
	}
}

func challengeMessage(issuer string, addr common.Address, nonce string) string {
	return fmt.Sprintf("%s wants you to sign in with your wallet:\n%s\n\nNonce: %s", issuer, addr.Hex(), nonce)
}

// IssueChallenge creates a fresh nonce for addr, replacing any outstanding one.
func (s *Service) IssueChallenge(ctx context.Context, addr common.Address) (*Challenge, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate nonce")
	}
	nonce := hex.EncodeToString(buf)
	if err := s.nonces.Put(ctx, addr, nonce, challengeTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store nonce")
	}
	return &Challenge{
		Address:   addr,
		Message:   challengeMessage(s.issuer, addr, nonce),
		ExpiresAt: requestcontext.Now(ctx).Add(challengeTTL),
	}, nil
}

// Login verifies the signature over the outstanding challenge and issues a session.
// The challenge is consumed whether or not the signature matches.
func (s *Service) Login(ctx context.Context, addr common.Address, signature []byte) (*Session, error) {
	nonce, err := s.nonces.Take(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no outstanding challenge").With("address", addr.Hex())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load nonce")
	}
	signer, err := RecoverPersonalSign([]byte(challengeMessage(s.issuer, addr, nonce)), signature)
	if err != nil || signer != addr {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "signature does not match address").With("address", addr.Hex())
	}
	token, expiresAt, err := s.GenerateToken(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Address: addr, ExpiresAt: expiresAt}, nil
}

// GenerateToken signs a session token for addr.
func (s *Service) GenerateToken(ctx context.Context, addr common.Address) (string, time.Time, error) {
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: addr.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.Hex(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// ValidateToken implements the auth middleware's TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !common.IsHexAddress(claims.Address) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.Claims{
		Address: common.HexToAddress(claims.Address),
		JTI:     claims.ID,
	}, nil
}

// RecoverPersonalSign returns the address that produced sig over msg with the EIP-191
// personal_sign prefix. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverPersonalSign(msg, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes", crypto.SignatureLength)
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(msg), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignPersonal signs msg with the EIP-191 prefix, returning a 27/28-style signature.
// Used by tests and the development attestor.
func SignPersonal(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
