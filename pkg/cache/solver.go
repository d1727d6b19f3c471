package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/VladimirKondr/netsimplex/internal/domain"
	"github.com/VladimirKondr/netsimplex/internal/engine"
)

// SolverCache memoizes completed solves keyed by a hash of the input graph,
// so identical requests skip re-running the pivot engine.
type SolverCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolve is the serializable final result of a solve: the terminal
// snapshot's totals plus the full replay history needed to answer a
// history request without re-running the engine.
type CachedSolve struct {
	ObjectiveValue float64                    `json:"objective_value"`
	Iterations     int                        `json:"iterations"`
	Flows          map[domain.EdgeKey]float64 `json:"flows"`
	Potentials     map[string]float64         `json:"potentials"`
	History        []*engine.SolutionState    `json:"history,omitempty"`
	ComputedAt     time.Time                  `json:"computed_at"`
}

// NewSolverCache wraps a generic Cache with solve-result semantics.
func NewSolverCache(cache Cache, defaultTTL time.Duration) *SolverCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolverCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get returns a previously cached solve for graph, if present.
func (sc *SolverCache) Get(ctx context.Context, graph *domain.Graph) (*CachedSolve, bool, error) {
	key := BuildSolveKey(GraphHash(graph))

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolve
	if err := json.Unmarshal(data, &result); err != nil {
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup of a corrupt entry
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a solve result for graph, expiring after ttl (or the cache's
// default TTL if ttl is zero).
func (sc *SolverCache) Set(ctx context.Context, graph *domain.Graph, result *CachedSolve, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey(GraphHash(graph))
	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// SetFromController builds a CachedSolve from a solved SolverController's
// final state and history, then stores it.
func (sc *SolverCache) SetFromController(ctx context.Context, graph *domain.Graph, ctrl *engine.SolverController, ttl time.Duration) error {
	states := ctrl.GetAllStates()
	if len(states) == 0 {
		return nil
	}
	final := states[len(states)-1]

	result := &CachedSolve{
		ObjectiveValue: final.ObjectiveValue,
		Iterations:     final.Iteration,
		Flows:          final.Flows,
		Potentials:     final.Potentials,
		History:        states,
	}

	return sc.Set(ctx, graph, result, ttl)
}

// Invalidate removes the cached solve for graph, if any.
func (sc *SolverCache) Invalidate(ctx context.Context, graph *domain.Graph) error {
	key := BuildSolveKey(GraphHash(graph))
	return sc.cache.Delete(ctx, key)
}

// InvalidateAll removes every cached solve result.
func (sc *SolverCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}

// Stats reports the backing cache's hit/miss counters, so callers (the
// /metrics endpoint via metrics.SolveCacheCollector) can observe solve
// cache effectiveness without reaching into the backend directly.
func (sc *SolverCache) Stats(ctx context.Context) (*Stats, error) {
	return sc.cache.Stats(ctx)
}
