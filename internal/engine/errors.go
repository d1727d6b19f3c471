package engine

import "fmt"

// ErrorKind classifies an engine failure per the error taxonomy the core
// prescribes: callers branch on Kind, not on message text.
type ErrorKind string

const (
	// KindInvalidInput marks a malformed request: duplicate node/edge,
	// missing endpoint. Rejected at the API boundary before a solve starts.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindInfeasible marks a problem with no feasible solution, either
	// because balances don't sum to zero or because Phase 1 could not
	// drive the auxiliary objective to zero.
	KindInfeasible ErrorKind = "infeasible"
	// KindIterationLimit marks a solve that exceeded its pivot cap.
	KindIterationLimit ErrorKind = "iteration_limit"
	// KindInvariantViolation marks a state the engine should never reach:
	// a basis that isn't a spanning tree, a cycle search with no path.
	KindInvariantViolation ErrorKind = "invariant_violation"
)

// Error is the engine's structured error type. Reason carries the specific
// condition (e.g. "balance", "no feasible flow") for the Infeasible kind.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is comparisons against a bare *Error{Kind: k}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" {
		return e.Kind == t.Kind && e.Reason == t.Reason
	}
	return e.Kind == t.Kind
}

func newInvalidInput(reason string) *Error {
	return &Error{Kind: KindInvalidInput, Reason: reason}
}

func newInfeasible(reason string) *Error {
	return &Error{Kind: KindInfeasible, Reason: reason}
}

func newIterationLimit(reason string) *Error {
	return &Error{Kind: KindIterationLimit, Reason: reason}
}

func newInvariantViolation(reason string) *Error {
	return &Error{Kind: KindInvariantViolation, Reason: reason}
}
