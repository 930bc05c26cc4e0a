package plsolver

import "github.com/pkg/errors"

// ExitCode mirrors spec.md §6's CLI exit codes.
type ExitCode int

const (
	ExitSat ExitCode = iota
	ExitUnsat
	ExitError
	ExitTimeout
	ExitQuitRequested
)

func (c ExitCode) String() string {
	switch c {
	case ExitSat:
		return "sat"
	case ExitUnsat:
		return "unsat"
	case ExitTimeout:
		return "timeout"
	case ExitQuitRequested:
		return "quit"
	default:
		return "error"
	}
}

// Sentinel errors for the taxonomy in spec.md §7. Non-recoverable kinds
// are wrapped with errors.Wrap at the point they're returned so callers
// retain a stack trace; recoverable conditions (infeasible bounds, LP
// infeasibility on a subtree) are never represented as errors — they are
// observed via BoundManager.Consistent and the split controller instead.
var (
	// ErrBackend is returned (wrapped) by Engine.Solve when the LP backend
	// reports LPError.
	ErrBackend = errors.New("lp backend error")

	// ErrUnsupported is returned for a serialized constraint variant with
	// no corresponding code path.
	ErrUnsupported = errors.New("feature not supported")

	// ErrAllocation names the allocation-failure kind of the taxonomy. No
	// code path in this module returns it.
	ErrAllocation = errors.New("allocation failure")

	// ErrQueueFull names the queue-push-failure kind of the taxonomy. No
	// code path in this module returns it; the worker pool reports a
	// rejected push with its own workerpool.ErrQueueFull.
	ErrQueueFull = errors.New("subquery queue full")
)
