package cache

import (
	"context"
	"testing"
	"time"

	"github.com/VladimirKondr/netsimplex/internal/domain"
	"github.com/VladimirKondr/netsimplex/internal/engine"
)

func smallSolvedGraph(t *testing.T) (*domain.Graph, *engine.SolverController) {
	t.Helper()
	g := domain.NewGraph()
	if err := g.AddNode("a", 10); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode("b", 0); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode("c", -10); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("a", "b", 1, 10); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("b", "c", 1, 10); err != nil {
		t.Fatal(err)
	}

	ctrl := engine.NewSolverController(g)
	if err := ctrl.SolveAll(); err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	return g, ctrl
}

func TestSolverCache_SetFromController_Get(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph, ctrl := smallSolvedGraph(t)

	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, found, err := solverCache.Get(ctx, graph)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached result")
	}

	want := ctrl.GetAllStates()[len(ctrl.GetAllStates())-1]
	if got.ObjectiveValue != want.ObjectiveValue {
		t.Errorf("expected objective %f, got %f", want.ObjectiveValue, got.ObjectiveValue)
	}
	if got.Iterations != want.Iteration {
		t.Errorf("expected iteration %d, got %d", want.Iteration, got.Iterations)
	}
	if len(got.Flows) != len(want.Flows) {
		t.Errorf("expected %d flow entries, got %d", len(want.Flows), len(got.Flows))
	}
	if len(got.History) != len(ctrl.GetAllStates()) {
		t.Errorf("expected %d history entries, got %d", len(ctrl.GetAllStates()), len(got.History))
	}
	if got.ComputedAt.IsZero() {
		t.Error("expected ComputedAt to be set")
	}
}

func TestSolverCache_GetNotFound(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph := domain.NewGraph()
	_ = graph.AddNode("a", 0)

	result, found, err := solverCache.Get(ctx, graph)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
	if result != nil {
		t.Error("expected nil result")
	}
}

func TestSolverCache_DifferentGraph(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph, ctrl := smallSolvedGraph(t)
	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	other := domain.NewGraph()
	_ = other.AddNode("x", 5)
	_ = other.AddNode("y", -5)
	_ = other.AddEdge("x", "y", 1, 5)

	_, found, _ := solverCache.Get(ctx, other)
	if found {
		t.Error("should not find result cached for a different graph")
	}
}

func TestSolverCache_SetFromController_EmptyHistory(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph := domain.NewGraph()
	_ = graph.AddNode("a", 0)
	ctrl := engine.NewSolverController(graph)

	emptyStates := ctrl.GetAllStates()
	if len(emptyStates) == 0 {
		t.Skip("controller always seeds an initial state; nothing to test here")
	}

	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSolverCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph, ctrl := smallSolvedGraph(t)
	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	if err := solverCache.Invalidate(ctx, graph); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	_, found, _ := solverCache.Get(ctx, graph)
	if found {
		t.Error("expected cache to be invalidated")
	}
}

func TestSolverCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph1, ctrl1 := smallSolvedGraph(t)

	graph2 := domain.NewGraph()
	_ = graph2.AddNode("p", 3)
	_ = graph2.AddNode("q", -3)
	_ = graph2.AddEdge("p", "q", 2, 3)
	ctrl2 := engine.NewSolverController(graph2)
	if err := ctrl2.SolveAll(); err != nil {
		t.Fatalf("SolveAll: %v", err)
	}

	if err := solverCache.SetFromController(ctx, graph1, ctrl1, 0); err != nil {
		t.Fatal(err)
	}
	if err := solverCache.SetFromController(ctx, graph2, ctrl2, 0); err != nil {
		t.Fatal(err)
	}

	count, err := solverCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("failed to invalidate all: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}

func TestSolverCache_Stats(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph, ctrl := smallSolvedGraph(t)
	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := solverCache.Get(ctx, graph); err != nil {
		t.Fatal(err)
	}

	stats, err := solverCache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}
	if stats.Hits == 0 {
		t.Error("expected at least one recorded hit")
	}
}

func TestSolverCache_RoundTripsEdgeKeyedFlows(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solverCache := NewSolverCache(memCache, 5*time.Minute)
	ctx := context.Background()

	graph, ctrl := smallSolvedGraph(t)
	if err := solverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
		t.Fatal(err)
	}

	got, found, err := solverCache.Get(ctx, graph)
	if err != nil || !found {
		t.Fatalf("failed to get: found=%v err=%v", found, err)
	}

	key := domain.EdgeKey{From: "a", To: "b"}
	if _, ok := got.Flows[key]; !ok {
		t.Errorf("expected flow entry for %s after JSON round trip", key)
	}
}
