package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// PrebuiltInitializer returns a fixed BasisResult supplied at construction,
// bypassing Phase 1 entirely. It is how Phase1Initializer solves its own
// auxiliary problem without recursing into Phase 1 again: the auxiliary
// star is already a feasible spanning-tree basis by construction, so the
// nested solve only needs Phase 2.
type PrebuiltInitializer struct {
	Result BasisResult
}

func (p PrebuiltInitializer) Execute(*domain.Graph) (BasisResult, error) {
	return p.Result, nil
}

// Phase1Initializer builds the auxiliary problem described in the core's
// two-phase initialization, solves it with a nested TransportSolver seeded
// by a PrebuiltInitializer, and extracts a feasible basis for the original
// graph from the auxiliary optimum.
type Phase1Initializer struct {
	// MaxIterations bounds the nested auxiliary solve. Zero uses the
	// package default (see newNestedSolver).
	MaxIterations int
}

const auxRootPrefix = "__root"

func (p *Phase1Initializer) Execute(g *domain.Graph) (BasisResult, error) {
	if !g.CheckBalanceFeasibility() {
		return BasisResult{}, newInfeasible("balance")
	}

	nodeIDs := g.NodeIDs()
	root := uniqueRootID(nodeIDs)

	aux := domain.NewGraph()
	if err := aux.AddNode(root, 0); err != nil {
		return BasisResult{}, newInvariantViolation(err.Error())
	}
	for _, id := range nodeIDs {
		node, _ := g.Node(id)
		if err := aux.AddNode(id, node.Balance); err != nil {
			return BasisResult{}, newInvariantViolation(err.Error())
		}
	}

	artificial := make(map[domain.EdgeKey]bool)
	auxFlows := make(map[domain.EdgeKey]float64)
	auxBasis := make([]domain.EdgeKey, 0, len(nodeIDs))

	for _, id := range nodeIDs {
		node, _ := g.Node(id)
		switch node.Kind() {
		case domain.NodeSource:
			key := domain.EdgeKey{From: id, To: root}
			if err := aux.AddEdge(id, root, 1, domain.Infinity); err != nil {
				return BasisResult{}, newInvariantViolation(err.Error())
			}
			artificial[key] = true
			auxFlows[key] = node.Balance
			auxBasis = append(auxBasis, key)
		case domain.NodeSink:
			key := domain.EdgeKey{From: root, To: id}
			if err := aux.AddEdge(root, id, 1, domain.Infinity); err != nil {
				return BasisResult{}, newInvariantViolation(err.Error())
			}
			artificial[key] = true
			auxFlows[key] = -node.Balance
			auxBasis = append(auxBasis, key)
		}
	}

	originalEdges := g.EdgeKeys()
	for _, key := range originalEdges {
		edge, _ := g.Edge(key.From, key.To)
		if err := aux.AddEdge(edge.From, edge.To, 0, edge.Capacity); err != nil {
			return BasisResult{}, newInvariantViolation(err.Error())
		}
		auxFlows[key] = 0
	}

	// Transit nodes (balance == 0) get no artificial edge, so the star
	// above may not span them. Complete it into a true spanning tree by
	// adding original edges at degenerate zero flow, chosen in
	// lexicographic order via union-find, until every auxiliary node is
	// connected to root.
	allAuxNodes := append([]string{root}, nodeIDs...)
	uf := newUnionFind(allAuxNodes)
	for _, key := range auxBasis {
		uf.union(key.From, key.To)
	}
	for _, key := range aux.EdgeKeys() {
		if uf.find(key.From) == uf.find(key.To) {
			continue
		}
		if artificial[key] {
			continue
		}
		uf.union(key.From, key.To)
		auxBasis = append(auxBasis, key)
	}

	auxNonBasis := make([]domain.EdgeKey, 0, len(originalEdges))
	basisSet := edgeSet(auxBasis)
	for _, key := range originalEdges {
		if !basisSet[key] {
			auxNonBasis = append(auxNonBasis, key)
		}
	}

	nested := newNestedSolver(aux, p.MaxIterations, PrebuiltInitializer{Result: BasisResult{
		BasisEdges:    auxBasis,
		NonBasisEdges: auxNonBasis,
		Flows:         auxFlows,
	}})

	if err := nested.SolveStepByStep(); err != nil {
		return BasisResult{}, err
	}

	final := nested.CurrentState()
	if final.ObjectiveValue > domain.Epsilon {
		return BasisResult{}, newInfeasible("no feasible flow")
	}

	finalBasisSet := edgeSet(final.BasisEdges)
	basisOriginal := make([]domain.EdgeKey, 0, len(nodeIDs))
	for key := range finalBasisSet {
		if !artificial[key] {
			basisOriginal = append(basisOriginal, key)
		}
	}

	// The auxiliary basis may still retain artificial edges at zero flow
	// (degenerate). Complete the original basis into a spanning tree of
	// the original node set the same way the star was completed above.
	ufOrig := newUnionFind(nodeIDs)
	for _, key := range basisOriginal {
		ufOrig.union(key.From, key.To)
	}
	finalNonBasisSet := edgeSet(final.NonBasisEdges)
	candidateNonBasis := make([]domain.EdgeKey, 0, len(finalNonBasisSet))
	for key := range finalNonBasisSet {
		if !artificial[key] {
			candidateNonBasis = append(candidateNonBasis, key)
		}
	}
	sortEdgeKeys(candidateNonBasis)
	for _, key := range candidateNonBasis {
		if len(basisOriginal) == len(nodeIDs)-1 {
			break
		}
		if ufOrig.find(key.From) == ufOrig.find(key.To) {
			continue
		}
		ufOrig.union(key.From, key.To)
		basisOriginal = append(basisOriginal, key)
	}

	if len(basisOriginal) != len(nodeIDs)-1 {
		return BasisResult{}, newInvariantViolation("could not complete a spanning basis for the original graph")
	}

	basisOrigSet := edgeSet(basisOriginal)
	nonBasisOriginal := make([]domain.EdgeKey, 0, len(originalEdges))
	flowsOriginal := make(map[domain.EdgeKey]float64, len(originalEdges))
	for _, key := range originalEdges {
		flowsOriginal[key] = final.Flows[key]
		if !basisOrigSet[key] {
			nonBasisOriginal = append(nonBasisOriginal, key)
		}
	}

	return BasisResult{
		BasisEdges:    basisOriginal,
		NonBasisEdges: nonBasisOriginal,
		Flows:         flowsOriginal,
	}, nil
}

func uniqueRootID(nodeIDs []string) string {
	taken := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		taken[id] = true
	}
	candidate := auxRootPrefix
	for taken[candidate] {
		candidate += "_"
	}
	return candidate
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(id string) string {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		uf.parent[id], id = root, uf.parent[id]
	}
	return root
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}
