// Package oracle defines the verification collaborator the search engine
// calls for every candidate, and its encrypted ZIP implementation.
package oracle

// Oracle opens independent handles to the protected target. Every worker owns
// its own handle; handles are never shared between goroutines.
type Oracle interface {
	// Open establishes a handle to target. An error here is a worker init
	// failure, not a candidate failure.
	Open(target string) (Handle, error)
}

// Handle tests candidates against one opened copy of the target.
type Handle interface {
	// Try reports whether candidate fully unlocks and reads the protected
	// content. A non-nil error is a transient failure for this candidate
	// only; callers treat it as a negative answer.
	Try(candidate string) (bool, error)

	// Close releases the handle.
	Close() error
}

// Func adapts a plain predicate into an Oracle whose handles need no setup.
type Func func(candidate string) (bool, error)

// Open implements Oracle.
func (f Func) Open(string) (Handle, error) {
	return funcHandle(f), nil
}

type funcHandle func(candidate string) (bool, error)

func (h funcHandle) Try(candidate string) (bool, error) {
	return h(candidate)
}

func (h funcHandle) Close() error {
	return nil
}
