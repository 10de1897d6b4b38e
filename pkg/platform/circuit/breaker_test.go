package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome bool

const (
	fail outcome = false
	ok   outcome = true
)

func replay(b *Breaker, outcomes ...outcome) {
	for _, o := range outcomes {
		if o == ok {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("reputation-redis")
	assert.Equal(t, "reputation-redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		recovery int
		history  []outcome
		wantOpen bool
	}{
		{"below failure threshold", 3, 2, []outcome{fail, fail}, false},
		{"failure threshold opens", 3, 2, []outcome{fail, fail, fail}, true},
		{"success clears failure streak", 3, 2, []outcome{fail, fail, ok, fail, fail}, false},
		{"one success is not enough to close", 1, 2, []outcome{fail, ok}, true},
		{"success threshold closes", 1, 2, []outcome{fail, ok, ok}, false},
		{"failure restarts recovery", 1, 3, []outcome{fail, ok, ok, fail, ok, ok}, true},
		{"recovery after restart", 1, 3, []outcome{fail, ok, ok, fail, ok, ok, ok}, false},
		{"defaults need five failures", 0, 0, []outcome{fail, fail, fail, fail}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.recovery))
			replay(b, tt.history...)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestRecordFailureReportsOpening(t *testing.T) {
	b := New("test", WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, Change{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	// already open
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestRecordSuccessReportsClosing(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(2))

	usePrimary, change := b.RecordSuccess()
	require.True(t, usePrimary, "closed circuit always uses the primary")
	require.Equal(t, Change{}, change)

	b.RecordFailure()
	usePrimary, change = b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestResetClosesCircuit(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(5))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	// counters were cleared too
	_, change := b.RecordFailure()
	assert.True(t, change.Opened)
}

func TestConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("test", WithFailureThreshold(10))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened)
}
