package walletauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"pulseaid/pkg/platform/sentinel"
)

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

// InMemoryNonceStore keeps challenges in process memory.
type InMemoryNonceStore struct {
	mu      sync.Mutex
	entries map[common.Address]nonceEntry
}

func NewInMemoryNonceStore() *InMemoryNonceStore {
	return &InMemoryNonceStore{entries: make(map[common.Address]nonceEntry)}
}

func (s *InMemoryNonceStore) Put(_ context.Context, addr common.Address, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = nonceEntry{nonce: nonce, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryNonceStore) Take(_ context.Context, addr common.Address) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[addr]
	delete(s.entries, addr)
	if !ok || time.Now().After(e.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return e.nonce, nil
}

// Redis key prefix for outstanding challenges
const nonceKeyPrefix = "wallet:nonce:"

// RedisNonceStore shares challenges across instances.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func (s *RedisNonceStore) Put(ctx context.Context, addr common.Address, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, nonceKeyPrefix+addr.Hex(), nonce, ttl).Err(); err != nil {
		return fmt.Errorf("store nonce: %w", err)
	}
	return nil
}

// Take uses GETDEL so a challenge can be redeemed once.
func (s *RedisNonceStore) Take(ctx context.Context, addr common.Address) (string, error) {
	nonce, err := s.client.GetDel(ctx, nonceKeyPrefix+addr.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take nonce: %w", err)
	}
	return nonce, nil
}
