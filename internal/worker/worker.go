// ============================================================================
// zipsweep Worker - Candidate Verification Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: Pulls candidates from the shared queue and tests each one against
//           the worker's own oracle handle
//
// How it works:
//   Each Worker is an independent goroutine that loops while the search is pending:
//   1. Pop a candidate from the bounded queue (blocking wait)
//   2. Try it against the oracle exactly once
//   3. Count the attempt on the shared state
//   4. On success, claim victory; the winner closes the queue
//   5. Exit when the queue yields nothing or the search is no longer pending
//
// Execution Model:
//   ┌─────────────────────────────────────────┐
//   │  Worker Goroutine                       │
//   │  ┌──────────────────────────────────┐   │
//   │  │ for state.Pending()              │   │
//   │  │   ├─ candidate := queue.Pop()    │   │
//   │  │   ├─ ok := handle.Try(candidate) │   │
//   │  │   ├─ state.RecordAttempt()       │   │
//   │  │   └─ ok → state.Claim → Close    │   │
//   │  └──────────────────────────────────┘   │
//   └─────────────────────────────────────────┘
//
// Error Handling:
//   - Oracle error for one candidate: counted, treated as a negative answer
//   - Losing the victory race: not an error, the worker just exits
//
// Resource Management:
//   - The handle belongs to this worker only and is closed on exit
//
// ============================================================================

package worker

import (
	"log/slog"

	"github.com/ChuLiYu/zipsweep/internal/oracle"
)

// Worker represents a verification unit with its own oracle handle
type Worker struct {
	id     int           // Worker unique identifier, used for logging
	handle oracle.Handle // Owned exclusively by this worker
	cfg    *Config

	stats Stats // Written only by Run; read after the pool is joined
}

// newWorker creates a Worker around an already opened handle
func newWorker(id int, handle oracle.Handle, cfg *Config) *Worker {
	return &Worker{
		id:     id,
		handle: handle,
		cfg:    cfg,
		stats:  Stats{ID: id},
	}
}

// Run is the main loop of the Worker
func (w *Worker) Run() {
	w.cfg.Metrics.WorkerStarted()
	defer w.cfg.Metrics.WorkerStopped()
	defer w.closeHandle()

	for w.cfg.State.Pending() {
		candidate, ok := w.cfg.Queue.Pop()
		if !ok {
			return // closed and drained
		}
		if !w.cfg.State.Pending() {
			return
		}

		if w.try(candidate) {
			w.claim(candidate)
			return
		}
	}
}

// try invokes the oracle once and does the bookkeeping for that attempt
func (w *Worker) try(candidate string) bool {
	found, err := w.handle.Try(candidate)

	w.cfg.State.RecordAttempt()
	w.cfg.Metrics.RecordAttempt()
	w.stats.Attempts++

	if err != nil {
		w.stats.Errors++
		w.cfg.Metrics.RecordOracleError()
		slog.Debug("Oracle failure treated as negative", "worker", w.id, "error", err)
		found = false
	}

	if every := uint64(w.cfg.ProgressEvery); every > 0 && w.stats.Attempts%every == 0 {
		w.cfg.Reporter.Report()
		w.cfg.Metrics.SetQueueDepth(w.cfg.Queue.Len())
	}
	return found
}

// claim records the victory if no other worker got there first
func (w *Worker) claim(candidate string) {
	if !w.cfg.State.Claim(candidate) {
		slog.Debug("Lost victory race", "worker", w.id)
		return
	}
	w.stats.Won = true
	slog.Info("Candidate accepted", "worker", w.id, "attempts", w.stats.Attempts)

	// 喚醒來源與其他 Worker
	w.cfg.Queue.Close()
}

func (w *Worker) closeHandle() {
	if err := w.handle.Close(); err != nil {
		slog.Warn("Failed to close oracle handle", "worker", w.id, "error", err)
	}
}
