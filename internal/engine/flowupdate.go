package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// CycleFlowUpdater applies theta along a signed cycle and swaps the
// entering edge into the basis in place of the leaving edge. Capacity and
// non-negativity hold by construction of theta (it is the minimum of every
// cycle edge's theta limit).
type CycleFlowUpdater struct{}

func (CycleFlowUpdater) Execute(
	flows map[domain.EdgeKey]float64,
	basisEdges, nonBasisEdges map[domain.EdgeKey]bool,
	cycle []CycleEdge,
	theta float64,
	entering, leaving domain.EdgeKey,
) (FlowUpdateResult, error) {
	if len(cycle) == 0 {
		return FlowUpdateResult{}, newInvariantViolation("cannot update flows along an empty cycle")
	}

	newFlows := cloneEdgeFloatMap(flows)
	for _, ce := range cycle {
		if ce.Sign == SignPositive {
			newFlows[ce.Edge] += theta
		} else {
			newFlows[ce.Edge] -= theta
		}
	}

	newBasis := make(map[domain.EdgeKey]bool, len(basisEdges))
	for k := range basisEdges {
		if k == leaving {
			continue
		}
		newBasis[k] = true
	}
	newBasis[entering] = true

	newNonBasis := make(map[domain.EdgeKey]bool, len(nonBasisEdges))
	for k := range nonBasisEdges {
		if k == entering {
			continue
		}
		newNonBasis[k] = true
	}
	newNonBasis[leaving] = true

	return FlowUpdateResult{Flows: newFlows, BasisEdges: newBasis, NonBasisEdges: newNonBasis}, nil
}
