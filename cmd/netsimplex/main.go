// Package main is the entry point for netsimplex, a minimum-cost flow
// solver built around the network simplex method.
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to
// lowest):
//  1. Environment variables (prefix: NETSIMPLEX_)
//  2. A config file (config.yaml, config/config.yaml, or the path
//     given by -config / CONFIG_PATH)
//  3. Default values (pkg/config/loader.go)
//
// # Modes
//
// Run without -once to start the HTTP API (POST /v1/solve, GET
// /v1/solve?graph_hash=, GET /v1/solve/{id}/history, /healthz, /metrics)
// and block until SIGINT or SIGTERM.
//
// Run with -graph file.json -once to solve a single graph read from
// disk and print the final SolutionState as JSON to stdout, without
// starting any server. file.json has the shape:
//
//	{
//	  "nodes": [{"id": "A", "balance": 10}, {"id": "B", "balance": -10}],
//	  "edges": [{"from": "A", "to": "B", "cost": 2, "capacity": 10}]
//	}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VladimirKondr/netsimplex/internal/domain"
	"github.com/VladimirKondr/netsimplex/internal/engine"
	"github.com/VladimirKondr/netsimplex/internal/httpapi"
	"github.com/VladimirKondr/netsimplex/migrations"
	"github.com/VladimirKondr/netsimplex/pkg/cache"
	"github.com/VladimirKondr/netsimplex/pkg/config"
	"github.com/VladimirKondr/netsimplex/pkg/historystore"
	"github.com/VladimirKondr/netsimplex/pkg/logger"
	"github.com/VladimirKondr/netsimplex/pkg/metrics"
	"github.com/VladimirKondr/netsimplex/pkg/ratelimit"
	"github.com/VladimirKondr/netsimplex/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (replaces the default search path; CONFIG_PATH, when it names an existing file, takes precedence)")
	graphPath := flag.String("graph", "", "path to a JSON graph file to solve in one-shot mode")
	once := flag.Bool("once", false, "solve -graph and print the result to stdout instead of starting the HTTP server")
	flag.Parse()

	loaderOpts := []config.LoaderOption{}
	if *configPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigPaths(*configPath))
	}
	cfg, err := config.NewLoader(loaderOpts...).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	if *once {
		if *graphPath == "" {
			fmt.Fprintln(os.Stderr, "-once requires -graph")
			os.Exit(1)
		}
		if err := runOnce(*graphPath); err != nil {
			logger.Log.Error("one-shot solve failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runServer(cfg)
}

// runOnce reads a graph from path, solves it to completion, and prints
// the final SolutionState as JSON. It does not start any server or
// touch the cache/history/rate-limit stack - a local debugging aid in
// the spirit of the teacher's scripts/ one-off binaries.
func runOnce(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read graph file: %w", err)
	}

	var doc struct {
		Nodes []struct {
			ID      string  `json:"id"`
			Balance float64 `json:"balance"`
		} `json:"nodes"`
		Edges []struct {
			From     string  `json:"from"`
			To       string  `json:"to"`
			Cost     float64 `json:"cost"`
			Capacity float64 `json:"capacity"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse graph file: %w", err)
	}

	graph := domain.NewGraph()
	for _, n := range doc.Nodes {
		if err := graph.AddNode(n.ID, n.Balance); err != nil {
			return fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		capacity := e.Capacity
		if capacity <= 0 {
			capacity = domain.Infinity
		}
		if err := graph.AddEdge(e.From, e.To, e.Cost, capacity); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", e.From, e.To, err)
		}
	}

	ctrl := engine.NewSolverController(graph)
	if err := ctrl.SolveAll(); err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ctrl.GetCurrentState())
}

// runServer wires the cache, history store, and rate limiter per
// config, builds the HTTP handler, and blocks serving requests until a
// shutdown signal arrives.
func runServer(cfg *config.Config) {
	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	deps := httpapi.Dependencies{}

	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to create cache, continuing without it", "error", err)
		} else {
			deps.SolverCache = cache.NewSolverCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("solver cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)

			solverCache := deps.SolverCache
			collector := metrics.NewSolveCacheCollector(cfg.Metrics.Namespace, cfg.App.Name, func() (metrics.SolveCacheStats, error) {
				stats, err := solverCache.Stats(context.Background())
				if err != nil {
					return metrics.SolveCacheStats{}, err
				}
				return metrics.SolveCacheStats{
					TotalKeys: stats.TotalKeys,
					Hits:      stats.Hits,
					Misses:    stats.Misses,
					HitRate:   stats.HitRate,
				}, nil
			})
			if err := prometheus.Register(collector); err != nil {
				logger.Log.Warn("failed to register solve cache collector", "error", err)
			}
		}
	}

	if cfg.Database.Driver != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := historystore.NewPostgresDB(ctx, &cfg.Database)
		cancel()
		if err != nil {
			logger.Log.Warn("failed to connect to history database, continuing without persistence", "error", err)
		} else {
			migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := historystore.RunMigrations(migrateCtx, db.Pool(), &cfg.Database, migrations.PostgresMigrations, cfg.Database.MigrationsPath); err != nil {
				logger.Log.Warn("failed to migrate history schema", "error", err)
			}
			migrateCancel()

			deps.HistoryStore = historystore.NewStore(db)
		}
	}

	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
			Namespace:       cfg.RateLimit.Namespace,
		})
		if err != nil {
			logger.Log.Warn("failed to create rate limiter, continuing without it", "error", err)
		} else {
			deps.RateLimiter = limiter
			logger.Log.Info("rate limiter initialized", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window)
		}
	}

	var srv *server.HTTPServer
	deps.Ready = func() bool { return srv != nil && srv.Ready() }

	handler := httpapi.NewHandler(deps)
	srv = server.New(cfg, handler)

	logger.Log.Info("starting netsimplex",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", deps.SolverCache != nil,
		"history_enabled", deps.HistoryStore != nil,
	)

	if err := srv.Run(); err != nil {
		logger.Log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
