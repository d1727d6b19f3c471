package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// SolverController is a thin cursor over a TransportSolver's history. It
// lets a caller step forward, rewind, or jump to the end without ever
// re-executing a pivot: states are immutable and historical, so rewinding
// is pure index movement.
type SolverController struct {
	graph  *domain.Graph
	opts   []Option
	solver *TransportSolver
	cursor int
}

// NewSolverController builds a controller wrapping a fresh solver over
// graph. Reset() re-instantiates the solver with the same graph and
// options.
func NewSolverController(graph *domain.Graph, opts ...Option) *SolverController {
	return &SolverController{
		graph:  graph,
		opts:   opts,
		solver: NewTransportSolver(graph, opts...),
		cursor: 0,
	}
}

// NextStep advances the cursor. If the cursor is already at the tail of
// history and the engine has not terminated, it first asks the engine to
// perform one more pivot step. Returns whether the cursor moved.
func (c *SolverController) NextStep() (bool, error) {
	if c.cursor < len(c.solver.history)-1 {
		c.cursor++
		return true, nil
	}
	if c.solver.IsTerminal() {
		return false, nil
	}
	advanced, err := c.solver.Step()
	if err != nil {
		return false, err
	}
	if advanced {
		c.cursor = len(c.solver.history) - 1
	}
	return advanced, nil
}

// PreviousStep moves the cursor one position back in history, if possible.
func (c *SolverController) PreviousStep() bool {
	if c.cursor <= 0 {
		return false
	}
	c.cursor--
	return true
}

// SolveAll drives the engine to completion and leaves the cursor on the
// terminal state.
func (c *SolverController) SolveAll() error {
	for {
		advanced, err := c.NextStep()
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
	}
}

// Reset discards the engine state and history, re-instantiating the
// solver over the same graph and options.
func (c *SolverController) Reset() {
	c.solver = NewTransportSolver(c.graph, c.opts...)
	c.cursor = 0
}

// CanGoNext reports whether NextStep would move the cursor or advance the
// engine.
func (c *SolverController) CanGoNext() bool {
	return c.cursor < len(c.solver.history)-1 || !c.solver.IsTerminal()
}

// CanGoPrevious reports whether PreviousStep would move the cursor.
func (c *SolverController) CanGoPrevious() bool {
	return c.cursor > 0
}

// IsStarted reports whether the engine has performed at least one pivot
// step (history holds more than just INITIAL_STATE) or the cursor has
// moved off it.
func (c *SolverController) IsStarted() bool {
	return len(c.solver.history) > 1 || c.cursor > 0
}

// IsSolved reports whether the engine has reached OPTIMAL.
func (c *SolverController) IsSolved() bool {
	return c.solver.IsTerminal()
}

// GetCurrentState returns the snapshot the cursor currently points to.
func (c *SolverController) GetCurrentState() *SolutionState {
	return c.solver.history[c.cursor]
}

// GetAllStates returns every snapshot the engine has recorded so far.
func (c *SolverController) GetAllStates() []*SolutionState {
	return c.solver.History()
}
