package worker

// ============================================================================
// Worker Pool Test File
// Purpose: Verify draining, victory claim, oracle failures, degraded startup
// ============================================================================

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ChuLiYu/zipsweep/internal/oracle"
	"github.com/ChuLiYu/zipsweep/internal/progress"
	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOracle fails the first failOpens Open calls and counts closed handles
type stubOracle struct {
	mu        sync.Mutex
	failOpens int
	opens     int
	closed    atomic.Int32
	try       func(string) (bool, error)
}

func (o *stubOracle) Open(string) (oracle.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.opens <= o.failOpens {
		return nil, fmt.Errorf("open #%d refused", o.opens)
	}
	return &stubHandle{o: o}, nil
}

type stubHandle struct{ o *stubOracle }

func (h *stubHandle) Try(c string) (bool, error) { return h.o.try(c) }
func (h *stubHandle) Close() error {
	h.o.closed.Add(1)
	return nil
}

func never(string) (bool, error) { return false, nil }

// filledQueue returns a closed queue holding n candidates "c0".."c<n-1>"
func filledQueue(t *testing.T, n int) *queue.Bounded[string] {
	t.Helper()
	q, err := queue.NewBounded[string](n + 1)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.True(t, q.Push(fmt.Sprintf("c%d", i)))
	}
	q.Close()
	return q
}

// ============================================================================
// Basic Functionality Tests
// ============================================================================

// TestNewPool tests creating Worker Pool
func TestNewPool(t *testing.T) {
	pool := NewPool(Config{})
	assert.NotNil(t, pool)
	assert.Equal(t, 0, pool.GetWorkerCount())
	assert.False(t, pool.IsStarted())
	assert.NoError(t, pool.InitErrors())
}

// TestPoolStart tests starting Worker Pool
func TestPoolStart(t *testing.T) {
	o := &stubOracle{try: never}
	pool := NewPool(Config{
		Queue:  filledQueue(t, 0),
		State:  search.NewState(),
		Oracle: o,
	})

	n, err := pool.Start(8)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 8, pool.GetWorkerCount())
	assert.True(t, pool.IsStarted())

	// Try to start again
	_, err = pool.Start(4)
	assert.ErrorIs(t, err, ErrPoolStarted)

	pool.Wait()
	assert.Equal(t, int32(8), o.closed.Load(), "every handle should be closed on exit")
}

// TestDrainsQueue tests that every candidate is tried exactly once
func TestDrainsQueue(t *testing.T) {
	const total = 1000
	var mu sync.Mutex
	seen := make(map[string]int)

	st := search.NewState()
	pool := NewPool(Config{
		Queue: filledQueue(t, total),
		State: st,
		Oracle: oracle.Func(func(c string) (bool, error) {
			mu.Lock()
			seen[c]++
			mu.Unlock()
			return false, nil
		}),
	})

	_, err := pool.Start(4)
	require.NoError(t, err)
	pool.Wait()

	assert.Equal(t, uint64(total), st.Attempted())
	assert.Len(t, seen, total)
	for c, n := range seen {
		assert.Equal(t, 1, n, "candidate %s tried more than once", c)
	}
	assert.True(t, st.Pending(), "the pool never decides exhaustion")

	var sum uint64
	for _, s := range pool.Stats() {
		sum += s.Attempts
		assert.False(t, s.Won)
	}
	assert.Equal(t, uint64(total), sum)
}

// TestVictoryClosesQueue tests that the winner records the candidate and
// unblocks everyone by closing the queue
func TestVictoryClosesQueue(t *testing.T) {
	q, err := queue.NewBounded[string](16)
	require.NoError(t, err)

	st := search.NewState()
	pool := NewPool(Config{
		Queue:  q,
		State:  st,
		Oracle: oracle.Func(func(c string) (bool, error) { return c == "open-sesame", nil }),
	})
	_, err = pool.Start(4)
	require.NoError(t, err)

	for _, c := range []string{"a", "b", "open-sesame"} {
		require.True(t, q.Push(c))
	}

	// Workers exit without the producer ever closing the queue
	pool.Wait()

	winner, ok := st.Winner()
	require.True(t, ok)
	assert.Equal(t, "open-sesame", winner)
	assert.True(t, q.Closed())
	assert.False(t, q.Push("late"), "pushes after victory must fail")

	winners := 0
	for _, s := range pool.Stats() {
		if s.Won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

// TestOracleErrorsAreNegative tests that a failing candidate never stops the run
func TestOracleErrorsAreNegative(t *testing.T) {
	st := search.NewState()
	pool := NewPool(Config{
		Queue: filledQueue(t, 10),
		State: st,
		Oracle: oracle.Func(func(c string) (bool, error) {
			if c == "c3" || c == "c7" {
				return true, errors.New("crc mismatch")
			}
			return false, nil
		}),
	})

	_, err := pool.Start(2)
	require.NoError(t, err)
	pool.Wait()

	assert.Equal(t, uint64(10), st.Attempted())
	_, found := st.Winner()
	assert.False(t, found, "an erroring oracle answer is never a success")

	var errs uint64
	for _, s := range pool.Stats() {
		errs += s.Errors
	}
	assert.Equal(t, uint64(2), errs)
}

// ============================================================================
// Startup Failure Tests
// ============================================================================

// TestDegradedStart tests that the pool runs with whichever workers initialized
func TestDegradedStart(t *testing.T) {
	o := &stubOracle{failOpens: 2, try: never}
	st := search.NewState()
	pool := NewPool(Config{Queue: filledQueue(t, 50), State: st, Oracle: o})

	n, err := pool.Start(5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	initErr := pool.InitErrors()
	require.Error(t, initErr)
	var merr *multierror.Error
	require.ErrorAs(t, initErr, &merr)
	assert.Len(t, merr.Errors, 2)

	pool.Wait()
	assert.Equal(t, uint64(50), st.Attempted())
	assert.Equal(t, int32(3), o.closed.Load())
}

// TestNoWorkers tests that zero initialized workers fails without starting anything
func TestNoWorkers(t *testing.T) {
	o := &stubOracle{failOpens: 100, try: never}
	st := search.NewState()
	q := filledQueue(t, 5)
	pool := NewPool(Config{Queue: q, State: st, Oracle: o})

	n, err := pool.Start(3)
	assert.ErrorIs(t, err, ErrNoWorkers)
	assert.Contains(t, err.Error(), "open #3 refused")
	assert.Zero(t, n)
	assert.Zero(t, pool.GetWorkerCount())

	pool.Wait() // nothing to wait for
	assert.Zero(t, st.Attempted())
	assert.Equal(t, 5, q.Len())
}

func TestZeroRequested(t *testing.T) {
	pool := NewPool(Config{Oracle: &stubOracle{try: never}})
	_, err := pool.Start(0)
	assert.ErrorIs(t, err, ErrNoWorkers)
}

// ============================================================================
// Progress Tests
// ============================================================================

// TestProgressEvery tests the per-worker reporting interval
func TestProgressEvery(t *testing.T) {
	st := search.NewState()
	var reports atomic.Int32
	reporter := progress.NewReporter(st, func(progress.Snapshot) { reports.Add(1) })

	pool := NewPool(Config{
		Queue:         filledQueue(t, 100),
		State:         st,
		Oracle:        oracle.Func(never),
		Reporter:      reporter,
		ProgressEvery: 10,
	})
	_, err := pool.Start(1)
	require.NoError(t, err)
	pool.Wait()

	assert.Equal(t, int32(10), reports.Load())
}

// ============================================================================
// Concurrency Tests
// ============================================================================

// TestSingleWinnerUnderContention tests that many positive answers still
// produce exactly one winner
func TestSingleWinnerUnderContention(t *testing.T) {
	for run := 0; run < 50; run++ {
		st := search.NewState()
		pool := NewPool(Config{
			Queue:  filledQueue(t, 200),
			State:  st,
			Oracle: oracle.Func(func(string) (bool, error) { return true, nil }),
		})
		_, err := pool.Start(8)
		require.NoError(t, err)
		pool.Wait()

		winners := 0
		for _, s := range pool.Stats() {
			if s.Won {
				winners++
			}
		}
		require.Equal(t, 1, winners, "run %d", run)
		_, ok := st.Winner()
		require.True(t, ok)
	}
}

func BenchmarkPoolThroughput(b *testing.B) {
	q, _ := queue.NewBounded[string](1024)
	st := search.NewState()
	pool := NewPool(Config{Queue: q, State: st, Oracle: oracle.Func(never)})
	if _, err := pool.Start(4); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push("candidate")
	}
	q.Close()
	pool.Wait()
}
