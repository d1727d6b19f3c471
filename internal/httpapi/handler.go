package httpapi

import (
	"net/http"

	"github.com/VladimirKondr/netsimplex/pkg/cache"
	"github.com/VladimirKondr/netsimplex/pkg/historystore"
	"github.com/VladimirKondr/netsimplex/pkg/metrics"
	"github.com/VladimirKondr/netsimplex/pkg/ratelimit"
	"github.com/VladimirKondr/netsimplex/pkg/telemetry"
)

// Dependencies bundles the optional collaborators a handler may call on:
// a memoized-solve cache, a persistence layer for solve histories, and a
// rate limiter. Each is optional; nil disables the feature it backs.
type Dependencies struct {
	SolverCache  *cache.SolverCache
	HistoryStore *historystore.Store
	RateLimiter  ratelimit.Limiter
	KeyExtractor ratelimit.KeyExtractor

	// Ready reports whether the service should answer healthz as serving.
	// Nil means always ready.
	Ready func() bool
}

// NewHandler builds the HTTP API's top-level handler: routes wrapped in
// the middleware chain the teacher's gRPC interceptor chain mirrors
// (recovery, rate-limit, metrics, tracing, logging).
func NewHandler(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/solve", deps.handleSolve)
	mux.HandleFunc("GET /v1/solve", deps.handleListByGraphHash)
	mux.HandleFunc("GET /v1/solve/{id}/history", deps.handleHistory)
	mux.HandleFunc("GET /healthz", deps.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	return chain(mux,
		recoveryMiddleware,
		rateLimitMiddleware(deps.RateLimiter, deps.KeyExtractor),
		metricsMiddleware,
		telemetry.HTTPMiddleware,
		loggingMiddleware,
	)
}
