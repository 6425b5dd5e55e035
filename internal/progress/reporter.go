// Package progress derives throughput and ETA from the shared search counters.
//
// Reporting is observational: a Reporter only reads counters, and races
// between a sample and concurrent increments are accepted.
package progress

import (
	"sync"
	"time"

	"github.com/ChuLiYu/zipsweep/internal/search"
)

// DefaultEvery is the per-worker attempt interval between reports.
const DefaultEvery = 500

// Snapshot is one sample of the search counters.
type Snapshot struct {
	Attempted  uint64
	Total      uint64
	TotalKnown bool
	Elapsed    time.Duration
	Rate       float64       // attempts per second
	Percent    float64       // only meaningful when TotalKnown
	ETA        time.Duration // zero unless TotalKnown and Rate > 0
}

// Sink receives snapshots. Calls are serialized by the Reporter; samples
// arriving while the sink is busy are dropped.
type Sink func(Snapshot)

// Reporter samples a search.State and hands snapshots to a Sink.
type Reporter struct {
	state *search.State
	sink  Sink
	mu    sync.Mutex
}

// NewReporter creates a reporter. A nil sink discards samples.
func NewReporter(state *search.State, sink Sink) *Reporter {
	return &Reporter{
		state: state,
		sink:  sink,
	}
}

// Sample reads the counters and derives rate, percent and ETA.
func Sample(state *search.State) Snapshot {
	snap := Snapshot{
		Attempted: state.Attempted(),
		Elapsed:   state.Elapsed(),
	}
	snap.Total, snap.TotalKnown = state.Total()

	sec := snap.Elapsed.Seconds()
	if sec > 0 {
		snap.Rate = float64(snap.Attempted) / sec
	}

	if snap.TotalKnown && snap.Total > 0 {
		snap.Percent = float64(snap.Attempted) * 100 / float64(snap.Total)
		if snap.Rate > 0 && snap.Total > snap.Attempted {
			remaining := float64(snap.Total - snap.Attempted)
			snap.ETA = time.Duration(remaining / snap.Rate * float64(time.Second))
		}
	}
	return snap
}

// Report takes a sample and emits it. Safe for concurrent use by workers.
// A sample is dropped when another worker is still inside the sink, so the
// caller never waits on terminal output.
func (r *Reporter) Report() {
	if r == nil || r.sink == nil {
		return
	}
	if !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()

	snap := Sample(r.state)
	if snap.Elapsed <= 0 {
		return
	}
	r.sink(snap)
}
