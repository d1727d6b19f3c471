// Package httpapi exposes the solver over HTTP: a POST endpoint that runs
// a graph through the pivot engine, a history-replay endpoint backed by
// pkg/historystore, and the usual healthz/metrics surface. It carries no
// protobuf/gRPC dependency - the teacher's gRPC services are generated
// from a proto package this module's retrieval pack does not include.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VladimirKondr/netsimplex/pkg/logger"
	"github.com/VladimirKondr/netsimplex/pkg/metrics"
	"github.com/VladimirKondr/netsimplex/pkg/ratelimit"
)

// statusRecorder captures the status code written by a handler so
// logging/metrics middleware can report it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// recoveryMiddleware turns a panicking handler into a 500 response instead
// of crashing the server, mirroring the teacher's interceptor chain where
// RecoveryInterceptor runs first so every later interceptor sees a clean
// error instead of an unwound goroutine.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Log.Error("panic recovered in HTTP handler",
					"path", r.URL.Path,
					"panic", fmt.Sprint(p),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one line per request, adapted from the teacher's
// pkg/interceptors/logging.go (LoggingInterceptor) translated from a gRPC
// UnaryServerInterceptor to an http.Handler wrapper.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		if rec.status >= 500 {
			logger.Log.Error("HTTP request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", duration.Milliseconds(),
			)
		} else {
			logger.Log.Info("HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", duration.Milliseconds(),
			)
		}
	})
}

// metricsMiddleware records request counts, latency, and in-flight gauge,
// adapted from pkg/interceptors/metrics.go (MetricsInterceptor) using
// metrics.RequestTracker the same way that interceptor does.
func metricsMiddleware(next http.Handler) http.Handler {
	m := metrics.Get()
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracker.Start(r.URL.Path)
		defer tracker.End(r.URL.Path)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.RecordHTTPRequest(r.Method, r.URL.Path, http.StatusText(rec.status), time.Since(start))
	})
}

// rateLimitMiddleware rejects requests over the configured limit with 429,
// adapted from pkg/interceptors/ratelimit.go (RateLimitInterceptor): on a
// limiter error it fails open (lets the request through) rather than
// blocking traffic because the limiter backend is unhealthy.
func rateLimitMiddleware(limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor) func(http.Handler) http.Handler {
	if keyExtractor == nil {
		keyExtractor = ratelimit.DefaultKeyExtractor
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metadata := map[string]string{
				"x-forwarded-for": r.Header.Get("X-Forwarded-For"),
				"x-real-ip":       r.Header.Get("X-Real-IP"),
				":authority":      r.RemoteAddr,
			}
			key := keyExtractor(r.Context(), r.URL.Path, metadata)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Log.Warn("rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				if info, infoErr := limiter.GetInfo(r.Context(), key); infoErr == nil && info != nil {
					w.Header().Set("Retry-After", info.RetryAfter.Round(time.Second).String())
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// chain applies middleware in the order given, outermost first, matching
// the teacher's UnaryServerInterceptors ordering (recovery, rate-limit,
// metrics, logging).
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
