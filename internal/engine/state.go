// Package engine implements the network simplex pivoting engine: a state
// machine that drives six pluggable strategies over a domain.Graph and
// records every intermediate state as an immutable, replayable snapshot.
package engine

import (
	"sort"

	"github.com/VladimirKondr/netsimplex/internal/domain"
)

// StepType names a state in the solver's pivot state machine.
type StepType int

const (
	StepInitialState StepType = iota
	StepInitialBasis
	StepCalculatePotentials
	StepCheckOptimality
	StepFindCycle
	StepCalculateTheta
	StepUpdateFlows
	StepOptimal
)

// String returns the state's name, matching the transitions documented for
// the solver engine.
func (s StepType) String() string {
	switch s {
	case StepInitialState:
		return "INITIAL_STATE"
	case StepInitialBasis:
		return "INITIAL_BASIS"
	case StepCalculatePotentials:
		return "CALCULATE_POTENTIALS"
	case StepCheckOptimality:
		return "CHECK_OPTIMALITY"
	case StepFindCycle:
		return "FIND_CYCLE"
	case StepCalculateTheta:
		return "CALCULATE_THETA"
	case StepUpdateFlows:
		return "UPDATE_FLOWS"
	case StepOptimal:
		return "OPTIMAL"
	default:
		return "UNKNOWN"
	}
}

// Sign is the direction a cycle edge's flow moves when theta is applied.
type Sign int

const (
	SignPositive Sign = iota
	SignNegative
)

// String renders the sign as '+' or '-'.
func (s Sign) String() string {
	if s == SignPositive {
		return "+"
	}
	return "-"
}

// CycleEdge is one edge of the closed walk created when an entering edge is
// added to the basis tree, carrying the direction theta moves its flow and
// the maximum theta that edge can absorb before hitting a bound.
type CycleEdge struct {
	Edge       domain.EdgeKey
	Sign       Sign
	ThetaLimit float64
}

const (
	directionIncrease = "increase"
	directionDecrease = "decrease"
)

// SolutionState is an immutable snapshot of the full pivot context at one
// point in the engine's history. Every field not relevant to StepType is
// left at its zero value or carried forward unchanged from the logical
// predecessor, per the fields each transition actually produces.
type SolutionState struct {
	StepType  StepType
	Iteration int

	BasisEdges    []domain.EdgeKey
	NonBasisEdges []domain.EdgeKey

	Potentials map[string]float64
	Deltas     map[domain.EdgeKey]float64
	Flows      map[domain.EdgeKey]float64

	EnteringEdge *domain.EdgeKey
	LeavingEdge  *domain.EdgeKey

	ImprovementDirection string
	Cycle                []CycleEdge
	Theta                float64

	Description    string
	ObjectiveValue float64
}

// IsOptimal reports whether this state is the terminal optimal state.
func (s *SolutionState) IsOptimal() bool {
	return s.StepType == StepOptimal
}

func cloneEdgeBoolSet(set map[domain.EdgeKey]bool) []domain.EdgeKey {
	keys := make([]domain.EdgeKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sortEdgeKeys(keys)
	return keys
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneEdgeFloatMap(m map[domain.EdgeKey]float64) map[domain.EdgeKey]float64 {
	out := make(map[domain.EdgeKey]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortEdgeKeys(keys []domain.EdgeKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
