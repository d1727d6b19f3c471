package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// BFSPotentialCalculator assigns node potentials by breadth-first traversal
// of the basis viewed as an undirected tree, rooted at the lexicographically
// smallest node id.
type BFSPotentialCalculator struct{}

type potentialNeighbor struct {
	to      string
	cost    float64
	forward bool
}

func (BFSPotentialCalculator) Execute(g *domain.Graph, basisEdges map[domain.EdgeKey]bool) (map[string]float64, error) {
	nodeIDs := g.NodeIDs()
	if len(nodeIDs) == 0 {
		return map[string]float64{}, nil
	}
	if len(basisEdges) != len(nodeIDs)-1 {
		return nil, newInvariantViolation("basis is not a spanning tree (wrong edge count)")
	}

	adjacency := make(map[string][]potentialNeighbor, len(nodeIDs))
	for key := range basisEdges {
		edge, ok := g.Edge(key.From, key.To)
		if !ok {
			return nil, newInvariantViolation("basis edge not present in graph")
		}
		adjacency[key.From] = append(adjacency[key.From], potentialNeighbor{to: key.To, cost: edge.Cost, forward: true})
		adjacency[key.To] = append(adjacency[key.To], potentialNeighbor{to: key.From, cost: edge.Cost, forward: false})
	}

	root := nodeIDs[0]
	potentials := map[string]float64{root: 0}
	visited := map[string]bool{root: true}
	queue := []string{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range adjacency[current] {
			if visited[neighbor.to] {
				continue
			}
			if neighbor.forward {
				potentials[neighbor.to] = potentials[current] + neighbor.cost
			} else {
				potentials[neighbor.to] = potentials[current] - neighbor.cost
			}
			visited[neighbor.to] = true
			queue = append(queue, neighbor.to)
		}
	}

	if len(visited) != len(nodeIDs) {
		return nil, newInvariantViolation("basis is not a spanning tree (disconnected)")
	}
	return potentials, nil
}
