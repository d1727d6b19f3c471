package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// DantzigOptimalityChecker computes reduced costs for every non-basis edge
// and, on a violation, selects the entering edge with maximum |delta|
// (Dantzig's rule), breaking ties lexicographically by edge id for
// deterministic replay.
type DantzigOptimalityChecker struct{}

func (DantzigOptimalityChecker) Execute(
	g *domain.Graph,
	nonBasisEdges map[domain.EdgeKey]bool,
	potentials map[string]float64,
	flows map[domain.EdgeKey]float64,
) (OptimalityResult, error) {
	keys := make([]domain.EdgeKey, 0, len(nonBasisEdges))
	for k := range nonBasisEdges {
		keys = append(keys, k)
	}
	sortEdgeKeys(keys)

	deltas := make(map[domain.EdgeKey]float64, len(keys))
	var (
		bestEdge      *domain.EdgeKey
		bestAbsDelta  float64
		bestDirection string
	)

	for _, key := range keys {
		edge, ok := g.Edge(key.From, key.To)
		if !ok {
			return OptimalityResult{}, newInvariantViolation("non-basis edge not present in graph")
		}
		delta := potentials[key.To] - potentials[key.From] - edge.Cost
		deltas[key] = delta

		flow := flows[key]
		atLower := flow <= domain.Epsilon
		atUpper := edge.Capacity-flow <= domain.Epsilon

		var direction string
		switch {
		case atLower && delta > domain.Epsilon:
			direction = directionIncrease
		case atUpper && delta < -domain.Epsilon:
			direction = directionDecrease
		default:
			continue
		}

		absDelta := delta
		if absDelta < 0 {
			absDelta = -absDelta
		}
		if bestEdge == nil || absDelta > bestAbsDelta {
			k := key
			bestEdge = &k
			bestAbsDelta = absDelta
			bestDirection = direction
		}
	}

	if bestEdge == nil {
		return OptimalityResult{IsOptimal: true, Deltas: deltas}, nil
	}
	return OptimalityResult{
		IsOptimal:            false,
		Deltas:               deltas,
		EnteringEdge:         bestEdge,
		ImprovementDirection: bestDirection,
		ViolationScore:       bestAbsDelta,
	}, nil
}
