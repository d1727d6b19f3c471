package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// DefaultMaxIterations bounds the number of pivots a solve may perform
// before failing with KindIterationLimit.
const DefaultMaxIterations = 1000

// TransportSolver drives the network simplex pivot state machine over a
// graph. It owns its basis, potentials, flows, and the append-only history
// of SolutionState snapshots; nothing inside a solve suspends or shares
// mutable state with another solver instance.
type TransportSolver struct {
	graph         *domain.Graph
	strategies    Strategies
	maxIterations int

	state    StepType
	history  []*SolutionState
	iteration int

	basisEdges    map[domain.EdgeKey]bool
	nonBasisEdges map[domain.EdgeKey]bool
	potentials    map[string]float64
	flows         map[domain.EdgeKey]float64
	deltas        map[domain.EdgeKey]float64

	enteringEdge *domain.EdgeKey
	leavingEdge  *domain.EdgeKey
	direction    string
	cycle        []CycleEdge
	theta        float64
}

// Option configures a TransportSolver at construction time, following the
// functional-options pattern used throughout this module's ambient stack.
type Option func(*TransportSolver)

// WithStrategies overrides one or more pivot strategies; zero fields keep
// their default implementation.
func WithStrategies(s Strategies) Option {
	return func(t *TransportSolver) {
		t.strategies = s
	}
}

// WithMaxIterations overrides the iteration cap (default DefaultMaxIterations).
func WithMaxIterations(n int) Option {
	return func(t *TransportSolver) {
		t.maxIterations = n
	}
}

// NewTransportSolver constructs a solver over graph, ready to step from
// INITIAL_STATE. strategies not supplied via WithStrategies fall back to
// the package defaults (Phase1Initializer, BFSPotentialCalculator,
// DantzigOptimalityChecker, TreeCycleFinder, BottleneckThetaCalculator,
// CycleFlowUpdater).
func NewTransportSolver(graph *domain.Graph, opts ...Option) *TransportSolver {
	t := &TransportSolver{
		graph:         graph,
		maxIterations: DefaultMaxIterations,
		state:         StepInitialState,
		flows:         make(map[domain.EdgeKey]float64),
		basisEdges:    make(map[domain.EdgeKey]bool),
		nonBasisEdges: make(map[domain.EdgeKey]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.strategies.fillDefaults()
	t.history = []*SolutionState{t.snapshot("initial state")}
	return t
}

func newNestedSolver(graph *domain.Graph, maxIterations int, init Initializer) *TransportSolver {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	strategies := defaultStrategies().withInitializer(init)
	return NewTransportSolver(graph, WithStrategies(strategies), WithMaxIterations(maxIterations))
}

// CurrentState returns the most recently appended snapshot.
func (t *TransportSolver) CurrentState() *SolutionState {
	return t.history[len(t.history)-1]
}

// History returns every snapshot recorded so far, oldest first.
func (t *TransportSolver) History() []*SolutionState {
	return t.history
}

// Iteration returns the engine's current pivot count.
func (t *TransportSolver) Iteration() int {
	return t.iteration
}

// IsTerminal reports whether the engine has reached the OPTIMAL state.
func (t *TransportSolver) IsTerminal() bool {
	return t.state == StepOptimal
}

// SolveStepByStep drives the machine until it reaches OPTIMAL or fails.
func (t *TransportSolver) SolveStepByStep() error {
	for !t.IsTerminal() {
		advanced, err := t.Step()
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
	}
	return nil
}

// Step performs exactly one state transition and appends the resulting
// snapshot to history. It is a no-op once the engine has reached OPTIMAL.
func (t *TransportSolver) Step() (bool, error) {
	switch t.state {
	case StepOptimal:
		return false, nil

	case StepInitialState:
		result, err := t.strategies.Initializer.Execute(t.graph)
		if err != nil {
			return false, err
		}
		t.basisEdges = edgeSet(result.BasisEdges)
		t.nonBasisEdges = edgeSet(result.NonBasisEdges)
		t.flows = cloneEdgeFloatMap(result.Flows)
		t.state = StepInitialBasis
		t.appendSnapshot("initial feasible basis constructed")
		return true, nil

	case StepInitialBasis:
		if err := t.calculatePotentials(); err != nil {
			return false, err
		}
		t.state = StepCalculatePotentials
		t.appendSnapshot("node potentials assigned from basis tree")
		return true, nil

	case StepCalculatePotentials:
		result, err := t.strategies.OptimalityChecker.Execute(t.graph, t.nonBasisEdges, t.potentials, t.flows)
		if err != nil {
			return false, err
		}
		t.deltas = result.Deltas
		t.enteringEdge = result.EnteringEdge
		t.direction = result.ImprovementDirection
		t.state = StepCheckOptimality
		if result.IsOptimal {
			t.appendSnapshot("no violating reduced cost found")
		} else {
			t.appendSnapshot("violation found on " + result.EnteringEdge.String())
		}
		return true, nil

	case StepCheckOptimality:
		if t.enteringEdge == nil {
			t.state = StepOptimal
			t.cycle = nil
			t.theta = 0
			t.leavingEdge = nil
			t.appendSnapshot("optimal basis reached")
			return true, nil
		}
		cycle, err := t.strategies.CycleFinder.Execute(t.graph, t.basisEdges, t.flows, *t.enteringEdge, t.direction)
		if err != nil {
			return false, err
		}
		t.cycle = cycle
		t.state = StepFindCycle
		t.appendSnapshot("cycle traced through entering edge")
		return true, nil

	case StepFindCycle:
		result, err := t.strategies.ThetaCalculator.Execute(t.cycle)
		if err != nil {
			return false, err
		}
		t.theta = result.Theta
		t.leavingEdge = &result.LeavingEdge
		t.state = StepCalculateTheta
		t.appendSnapshot("bottleneck step size computed")
		return true, nil

	case StepCalculateTheta:
		result, err := t.strategies.FlowUpdater.Execute(
			t.flows, t.basisEdges, t.nonBasisEdges, t.cycle, t.theta, *t.enteringEdge, *t.leavingEdge,
		)
		if err != nil {
			return false, err
		}
		t.flows = result.Flows
		t.basisEdges = result.BasisEdges
		t.nonBasisEdges = result.NonBasisEdges
		t.state = StepUpdateFlows
		t.appendSnapshot("flows updated along cycle, basis swapped")
		return true, nil

	case StepUpdateFlows:
		if t.iteration+1 > t.maxIterations {
			return false, newIterationLimit("pivot count exceeds the configured cap")
		}
		t.iteration++
		if err := t.calculatePotentials(); err != nil {
			return false, err
		}
		t.state = StepCalculatePotentials
		t.appendSnapshot("node potentials recalculated for next iteration")
		return true, nil

	default:
		return false, newInvariantViolation("unknown solver state")
	}
}

func (t *TransportSolver) calculatePotentials() error {
	potentials, err := t.strategies.PotentialCalculator.Execute(t.graph, t.basisEdges)
	if err != nil {
		return err
	}
	t.potentials = potentials
	t.enteringEdge = nil
	t.leavingEdge = nil
	t.direction = ""
	t.cycle = nil
	t.theta = 0
	return nil
}

func (t *TransportSolver) objectiveValue() float64 {
	var total float64
	for key, flow := range t.flows {
		edge, ok := t.graph.Edge(key.From, key.To)
		if !ok {
			continue
		}
		total += edge.Cost * flow
	}
	return total
}

func (t *TransportSolver) snapshot(description string) *SolutionState {
	return &SolutionState{
		StepType:             t.state,
		Iteration:            t.iteration,
		BasisEdges:           cloneEdgeBoolSet(t.basisEdges),
		NonBasisEdges:        cloneEdgeBoolSet(t.nonBasisEdges),
		Potentials:           cloneFloatMap(t.potentials),
		Deltas:               cloneEdgeFloatMap(t.deltas),
		Flows:                cloneEdgeFloatMap(t.flows),
		EnteringEdge:         t.enteringEdge,
		LeavingEdge:          t.leavingEdge,
		ImprovementDirection: t.direction,
		Cycle:                append([]CycleEdge(nil), t.cycle...),
		Theta:                t.theta,
		Description:          description,
		ObjectiveValue:       t.objectiveValue(),
	}
}

func (t *TransportSolver) appendSnapshot(description string) {
	t.history = append(t.history, t.snapshot(description))
}
