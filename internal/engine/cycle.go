package engine

import "github.com/VladimirKondr/netsimplex/internal/domain"

// TreeCycleFinder finds the unique cycle created when the entering edge is
// added to the basis tree by an undirected depth-first search from the
// entering edge's head back to its tail, then assigns a +/- sign to every
// cycle edge so that applying theta along the signed cycle preserves flow
// conservation at every node.
type TreeCycleFinder struct{}

type cycleStep struct {
	edge    domain.EdgeKey
	forward bool
}

func (TreeCycleFinder) Execute(
	g *domain.Graph,
	basisEdges map[domain.EdgeKey]bool,
	flows map[domain.EdgeKey]float64,
	entering domain.EdgeKey,
	direction string,
) ([]CycleEdge, error) {
	adjacency := make(map[string][]cycleStep)
	for key := range basisEdges {
		adjacency[key.From] = append(adjacency[key.From], cycleStep{edge: key, forward: true})
		adjacency[key.To] = append(adjacency[key.To], cycleStep{edge: key, forward: false})
	}

	path, found := dfsPath(adjacency, entering.To, entering.From, map[string]bool{entering.To: true})
	if !found {
		return nil, newInvariantViolation("cycle not found: basis tree is not connected")
	}

	baseSign := SignPositive
	if direction == directionDecrease {
		baseSign = SignNegative
	}

	cycle := make([]CycleEdge, 0, len(path)+1)
	cycle = append(cycle, CycleEdge{
		Edge:       entering,
		Sign:       baseSign,
		ThetaLimit: thetaLimit(g, flows, entering, baseSign),
	})

	for _, step := range path {
		sign := baseSign
		if !step.forward {
			sign = flipSign(baseSign)
		}
		cycle = append(cycle, CycleEdge{
			Edge:       step.edge,
			Sign:       sign,
			ThetaLimit: thetaLimit(g, flows, step.edge, sign),
		})
	}
	return cycle, nil
}

func flipSign(s Sign) Sign {
	if s == SignPositive {
		return SignNegative
	}
	return SignPositive
}

// thetaLimit is the maximum theta a single cycle edge can absorb before
// hitting a bound: capacity - flow when its flow is increasing (sign +),
// flow itself when it is decreasing (sign -).
func thetaLimit(g *domain.Graph, flows map[domain.EdgeKey]float64, key domain.EdgeKey, sign Sign) float64 {
	edge, ok := g.Edge(key.From, key.To)
	if !ok {
		return 0
	}
	flow := flows[key]
	if sign == SignPositive {
		return edge.Capacity - flow
	}
	return flow
}

// dfsPath performs an undirected depth-first search from start to target
// over the basis adjacency, returning the ordered list of edges traversed
// (each tagged with whether it was walked along its own direction).
func dfsPath(adjacency map[string][]cycleStep, start, target string, visited map[string]bool) ([]cycleStep, bool) {
	if start == target {
		return nil, true
	}
	for _, step := range adjacency[start] {
		var next string
		if step.forward {
			next = step.edge.To
		} else {
			next = step.edge.From
		}
		if visited[next] {
			continue
		}
		visited[next] = true
		rest, ok := dfsPath(adjacency, next, target, visited)
		if ok {
			return append([]cycleStep{step}, rest...), true
		}
	}
	return nil, false
}
