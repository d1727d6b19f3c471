package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// BottleneckThetaCalculator scans a cycle for the edge with the smallest
// theta limit; that limit is the step size theta, and its edge is the one
// leaving the basis. Ties are broken by lexicographic edge id, matching
// the entering-edge tie-break in the optimality checker.
type BottleneckThetaCalculator struct{}

func (BottleneckThetaCalculator) Execute(cycle []CycleEdge) (ThetaResult, error) {
	if len(cycle) == 0 {
		return ThetaResult{}, newInvariantViolation("cannot compute theta on an empty cycle")
	}

	best := cycle[0]
	for _, ce := range cycle[1:] {
		switch {
		case ce.ThetaLimit < best.ThetaLimit-domain.Epsilon:
			best = ce
		case ce.ThetaLimit < best.ThetaLimit+domain.Epsilon && ce.Edge.Less(best.Edge):
			best = ce
		}
	}
	return ThetaResult{Theta: best.ThetaLimit, LeavingEdge: best.Edge}, nil
}
