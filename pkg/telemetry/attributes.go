package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys used across spans.
const (
	// Graph
	AttrGraphNodes   = "graph.nodes"
	AttrGraphEdges   = "graph.edges"
	AttrGraphBalance = "graph.total_balance"

	// Solver
	AttrIterations     = "solver.iterations"
	AttrObjectiveValue = "solver.objective_value"
	AttrPhase          = "solver.phase"
	AttrStepType       = "solver.step_type"

	// Validation
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// GraphAttributes returns the span attributes describing a graph's shape.
func GraphAttributes(nodes, edges int, totalBalance float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Float64(AttrGraphBalance, totalBalance),
	}
}

// SolverAttributes returns the span attributes describing a solve's outcome.
func SolverAttributes(iterations int, objectiveValue float64, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrObjectiveValue, objectiveValue),
		attribute.String(AttrPhase, phase),
	}
}

// ValidationAttributes returns the span attributes describing a graph
// validation pass.
func ValidationAttributes(errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
