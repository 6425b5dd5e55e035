// ============================================================================
// zipsweep Candidate Source Interface
// ============================================================================
//
// Package: internal/source
// File: source.go
// Purpose: Defines the abstraction that produces candidate strings for the
//          worker pool.
//
// Variants:
//   - Dictionary: streams an ordered, line-delimited word list.
//   - Pattern:    lazily expands a template of literals and ?x wildcards.
//
// Both variants publish into a queue.Bounded[string] until the space is
// exhausted or the shared search state leaves pending, then close the queue.
//
// ============================================================================

package source

import (
	"errors"

	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
	"github.com/ChuLiYu/zipsweep/pkg/types"
)

var (
	// ErrInputUnavailable indicates the backing input cannot be read.
	ErrInputUnavailable = errors.New("candidate input unavailable")
	// ErrSpaceTooLarge indicates a pattern space that overflows or exceeds the configured maximum.
	ErrSpaceTooLarge = errors.New("space too large to enumerate")
	// ErrEmptyTemplate indicates a pattern source without a template.
	ErrEmptyTemplate = errors.New("pattern template is empty")
)

// Source defines how candidates are produced for a search.
type Source interface {
	// Kind identifies the variant for reports and metrics.
	Kind() types.SourceKind

	// Prepare validates the input before any task starts.
	//
	// Returns:
	//   - error: ErrInputUnavailable, ErrSpaceTooLarge or ErrEmptyTemplate (wrapped).
	//            A failed Prepare means the search must not enter the running state.
	Prepare() error

	// Generate publishes candidates into q.
	//
	// It stops without error when the input is exhausted, when st is no
	// longer pending, or when q refuses a push. q is closed on every exit
	// path, including read failures.
	//
	// Parameters:
	//   - q: Queue shared with the worker pool; Generate is its only writer.
	//   - st: Shared search state; counters are updated at publish time.
	//
	// Returns:
	//   - error: Input failure observed while generating (wrapped ErrInputUnavailable).
	Generate(q *queue.Bounded[string], st *search.State) error
}
