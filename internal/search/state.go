// Package search holds the state shared by the candidate source, every worker
// and the coordinator of a single run: the result slot, the victory claim and
// the progress counters.
package search

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	statusPending int32 = iota
	statusFound
	statusExhausted
)

// State is created by the coordinator and handed to every task at
// construction. All mutation goes through its methods.
type State struct {
	status atomic.Int32

	// winner is written once, under mu, by the worker whose claim succeeds.
	mu     sync.Mutex
	winner string

	attempted  *xsync.Counter
	total      atomic.Uint64
	totalKnown atomic.Bool
	generated  atomic.Uint64

	startedAt time.Time
}

// NewState returns a pending state whose clock starts now.
func NewState() *State {
	return &State{
		attempted: xsync.NewCounter(),
		startedAt: time.Now(),
	}
}

// Pending reports whether no terminal transition has happened yet.
func (s *State) Pending() bool {
	return s.status.Load() == statusPending
}

// Outcome returns the current result tag.
func (s *State) Outcome() types.Outcome {
	switch s.status.Load() {
	case statusFound:
		return types.OutcomeFound
	case statusExhausted:
		return types.OutcomeExhausted
	default:
		return types.OutcomePending
	}
}

// Claim attempts the victory transition pending -> found for candidate.
// Exactly one call across all workers returns true; every other caller lost
// the race, which is not an error.
func (s *State) Claim(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.status.CompareAndSwap(statusPending, statusFound) {
		return false
	}
	s.winner = candidate
	return true
}

// MarkExhausted performs pending -> exhausted. It fails if a winner was
// already recorded.
func (s *State) MarkExhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.CompareAndSwap(statusPending, statusExhausted)
}

// Winner returns the winning candidate once the state is found.
func (s *State) Winner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.status.Load() == statusFound
}

// RecordAttempt counts one oracle invocation.
func (s *State) RecordAttempt() {
	s.attempted.Inc()
}

// Attempted returns the number of oracle invocations so far.
func (s *State) Attempted() uint64 {
	return uint64(s.attempted.Value())
}

// SetTotal records an exact, upfront size of the search space.
func (s *State) SetTotal(n uint64) {
	s.total.Store(n)
	s.totalKnown.Store(true)
}

// AddDiscovered grows the incremental total of a source whose final size is
// unknown in advance.
func (s *State) AddDiscovered() {
	s.total.Add(1)
}

// Total returns the space size and whether it is exact. When known is false
// the value only counts candidates discovered so far.
func (s *State) Total() (n uint64, known bool) {
	return s.total.Load(), s.totalKnown.Load()
}

// RecordGenerated counts one candidate handed to the queue.
func (s *State) RecordGenerated() {
	s.generated.Add(1)
}

// Generated returns the number of candidates handed to the queue.
func (s *State) Generated() uint64 {
	return s.generated.Load()
}

// StartedAt returns the moment the search clock started.
func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// Elapsed returns the wall time since the search started.
func (s *State) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}
