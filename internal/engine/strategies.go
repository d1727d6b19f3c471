package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// BasisResult is a feasible starting point for the pivoting loop: a
// spanning-tree basis over the graph's nodes together with flows that
// satisfy every balance and capacity.
type BasisResult struct {
	BasisEdges    []domain.EdgeKey
	NonBasisEdges []domain.EdgeKey
	Flows         map[domain.EdgeKey]float64
}

// Initializer builds the starting basis for a solve. The default
// implementation runs the two-phase auxiliary-problem construction; a
// Prebuilt variant accepts an already-known basis, used to bypass Phase 1
// when the engine solves its own auxiliary problem recursively.
type Initializer interface {
	Execute(g *domain.Graph) (BasisResult, error)
}

// PotentialCalculator assigns a real potential to every node such that
// u[to] - u[from] == cost(from, to) holds on every basis edge.
type PotentialCalculator interface {
	Execute(g *domain.Graph, basisEdges map[domain.EdgeKey]bool) (map[string]float64, error)
}

// OptimalityResult is the outcome of one optimality check: either the
// current basis is optimal, or it names the entering edge and the
// direction flow should move on it.
type OptimalityResult struct {
	IsOptimal            bool
	Deltas               map[domain.EdgeKey]float64
	EnteringEdge         *domain.EdgeKey
	ImprovementDirection string
	ViolationScore       float64
}

// OptimalityChecker computes reduced costs for every non-basis edge and
// decides whether any bound-aware violation exists.
type OptimalityChecker interface {
	Execute(
		g *domain.Graph,
		nonBasisEdges map[domain.EdgeKey]bool,
		potentials map[string]float64,
		flows map[domain.EdgeKey]float64,
	) (OptimalityResult, error)
}

// CycleFinder returns the unique cycle created when the entering edge is
// added to the basis tree.
type CycleFinder interface {
	Execute(
		g *domain.Graph,
		basisEdges map[domain.EdgeKey]bool,
		flows map[domain.EdgeKey]float64,
		entering domain.EdgeKey,
		direction string,
	) ([]CycleEdge, error)
}

// ThetaResult is the bottleneck step size and the basis edge it forces out.
type ThetaResult struct {
	Theta       float64
	LeavingEdge domain.EdgeKey
}

// ThetaCalculator computes the step size theta and the leaving edge from a
// cycle's per-edge theta limits.
type ThetaCalculator interface {
	Execute(cycle []CycleEdge) (ThetaResult, error)
}

// FlowUpdateResult is the new flow assignment and basis partition after a
// pivot is applied.
type FlowUpdateResult struct {
	Flows         map[domain.EdgeKey]float64
	BasisEdges    map[domain.EdgeKey]bool
	NonBasisEdges map[domain.EdgeKey]bool
}

// FlowUpdater applies theta along the cycle and swaps the entering edge
// into the basis in place of the leaving edge.
type FlowUpdater interface {
	Execute(
		flows map[domain.EdgeKey]float64,
		basisEdges, nonBasisEdges map[domain.EdgeKey]bool,
		cycle []CycleEdge,
		theta float64,
		entering, leaving domain.EdgeKey,
	) (FlowUpdateResult, error)
}

// Strategies bundles the six pluggable pivot components. Zero-value fields
// are filled with the defaults by NewTransportSolver.
type Strategies struct {
	Initializer         Initializer
	PotentialCalculator PotentialCalculator
	OptimalityChecker   OptimalityChecker
	CycleFinder         CycleFinder
	ThetaCalculator     ThetaCalculator
	FlowUpdater         FlowUpdater
}

func defaultStrategies() Strategies {
	return Strategies{
		Initializer:         &Phase1Initializer{},
		PotentialCalculator: &BFSPotentialCalculator{},
		OptimalityChecker:   &DantzigOptimalityChecker{},
		CycleFinder:         &TreeCycleFinder{},
		ThetaCalculator:     &BottleneckThetaCalculator{},
		FlowUpdater:         &CycleFlowUpdater{},
	}
}

func (s Strategies) withInitializer(init Initializer) Strategies {
	s.Initializer = init
	return s
}

func (s *Strategies) fillDefaults() {
	d := defaultStrategies()
	if s.Initializer == nil {
		s.Initializer = d.Initializer
	}
	if s.PotentialCalculator == nil {
		s.PotentialCalculator = d.PotentialCalculator
	}
	if s.OptimalityChecker == nil {
		s.OptimalityChecker = d.OptimalityChecker
	}
	if s.CycleFinder == nil {
		s.CycleFinder = d.CycleFinder
	}
	if s.ThetaCalculator == nil {
		s.ThetaCalculator = d.ThetaCalculator
	}
	if s.FlowUpdater == nil {
		s.FlowUpdater = d.FlowUpdater
	}
}

func edgeSet(keys []domain.EdgeKey) map[domain.EdgeKey]bool {
	set := make(map[domain.EdgeKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
