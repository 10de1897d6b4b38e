package tx

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// numShards bounds lock memory while keeping unrelated entities on separate locks.
const numShards = 128

// ShardedRunner serialises transitions per entity key for in-memory stores.
// Transitions on different entities proceed in parallel unless their keys collide on a shard.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// Option configures a runner.
type Option func(*ShardedRunner)

// WithTimeout bounds how long a transition may wait for and hold its lock.
func WithTimeout(d time.Duration) Option {
	return func(r *ShardedRunner) {
		r.timeout = d
	}
}

func NewShardedRunner(opts ...Option) *ShardedRunner {
	r := &ShardedRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ShardedRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	shard := shardFor(Entity(ctx))
	r.shards[shard].Lock()
	defer r.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	return fn(markActive(ctx))
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}
