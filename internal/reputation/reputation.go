// Package reputation reports the voting weight of a wallet for challenges and dispute votes.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"pulseaid/pkg/domain"
)

// Static keeps weights in memory. Unknown addresses get the default weight.
type Static struct {
	mu       sync.RWMutex
	weights  map[common.Address]domain.Weight
	fallback domain.Weight
}

func NewStatic(weights map[common.Address]domain.Weight, fallback domain.Weight) *Static {
	s := &Static{
		weights:  make(map[common.Address]domain.Weight, len(weights)),
		fallback: fallback,
	}
	for addr, w := range weights {
		s.weights[addr] = w
	}
	return s
}

func (s *Static) WeightOf(_ context.Context, addr common.Address) (domain.Weight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.weights[addr]; ok {
		return w, nil
	}
	return s.fallback, nil
}

func (s *Static) SetWeight(_ context.Context, addr common.Address, w domain.Weight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[addr] = w
	return nil
}

// Redis reads weights from a hash keyed by lowercase hex address, so an external
// indexer can maintain the table.
type Redis struct {
	client   *redis.Client
	key      string
	fallback domain.Weight
}

func NewRedis(client *redis.Client, key string, fallback domain.Weight) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if key == "" {
		return nil, errors.New("reputation hash key is required")
	}
	return &Redis{client: client, key: key, fallback: fallback}, nil
}

func (r *Redis) WeightOf(ctx context.Context, addr common.Address) (domain.Weight, error) {
	raw, err := r.client.HGet(ctx, r.key, field(addr)).Result()
	if errors.Is(err, redis.Nil) {
		return r.fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read weight: %w", err)
	}
	w, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("weight for %s is not an integer: %q", addr.Hex(), raw)
	}
	return domain.Weight(w), nil
}

func (r *Redis) SetWeight(ctx context.Context, addr common.Address, w domain.Weight) error {
	if err := r.client.HSet(ctx, r.key, field(addr), strconv.FormatUint(uint64(w), 10)).Err(); err != nil {
		return fmt.Errorf("write weight: %w", err)
	}
	return nil
}

func field(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
