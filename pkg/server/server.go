// Package server wraps net/http's server with the lifecycle the
// teacher's GRPCServer gives its gRPC server: telemetry/metrics bootstrap
// on Run, a liveness flag a healthz handler can read, and a bounded
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/VladimirKondr/netsimplex/pkg/config"
	"github.com/VladimirKondr/netsimplex/pkg/logger"
	"github.com/VladimirKondr/netsimplex/pkg/metrics"
	"github.com/VladimirKondr/netsimplex/pkg/telemetry"
)

// HTTPServer wraps a net/http.Server configured per cfg.HTTP, tracking a
// liveness flag the httpapi healthz handler can read via Ready(), and
// owning the telemetry provider's lifecycle.
type HTTPServer struct {
	server      *http.Server
	config      *config.Config
	serviceName string
	telemetry   *telemetry.Provider
	serving     atomic.Bool
	stopOnce    sync.Once
	stopCh      chan struct{}
}

// New creates an HTTPServer bound to cfg.HTTP.Port, serving handler.
func New(cfg *config.Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		config:      cfg,
		serviceName: cfg.App.Name,
		stopCh:      make(chan struct{}),
	}
}

// Ready reports whether the server has completed startup and has not
// yet begun shutdown.
func (s *HTTPServer) Ready() bool {
	return s.serving.Load()
}

// Run initializes telemetry and metrics per config, binds the configured
// port, and blocks until a shutdown signal arrives, then drains
// in-flight requests within HTTP.ShutdownTimeout.
func (s *HTTPServer) Run() error {
	ctx := context.Background()

	if s.config.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     s.config.Tracing.Enabled,
			Endpoint:    s.config.Tracing.Endpoint,
			ServiceName: s.config.Tracing.ServiceName,
			Version:     s.config.App.Version,
			Environment: s.config.App.Environment,
			SampleRate:  s.config.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("failed to init telemetry", "error", err)
		} else {
			s.telemetry = tp
			logger.Log.Info("telemetry initialized",
				"endpoint", s.config.Tracing.Endpoint,
				"sample_rate", s.config.Tracing.SampleRate,
			)
		}
	}

	if s.config.Metrics.Enabled {
		go func() {
			logger.Log.Info("starting metrics server",
				"port", s.config.Metrics.Port,
				"path", s.config.Metrics.Path,
			)
			if err := metrics.StartMetricsServer(s.config.Metrics.Port); err != nil {
				logger.Log.Error("metrics server failed", "error", err)
			}
		}()
	}

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.serving.Store(true)

	if m := metrics.Get(); m != nil {
		m.SetServiceInfo(s.config.App.Version, s.config.App.Environment)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("starting HTTP server",
			"service", s.serviceName,
			"addr", s.server.Addr,
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(errCh)
}

func (s *HTTPServer) waitForShutdown(errCh chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Log.Info("received shutdown signal", "signal", sig)
	case <-s.stopCh:
		logger.Log.Info("shutdown requested")
	}

	s.serving.Store(false)

	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			logger.Log.Warn("failed to shutdown telemetry", "error", err)
		}
	}

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Log.Warn("forcing server close", "error", err)
		return s.server.Close()
	}
	logger.Log.Info("server stopped gracefully")
	return nil
}

// Stop closes the listener immediately, dropping in-flight connections,
// and unblocks a pending Run().
func (s *HTTPServer) Stop() error {
	s.serving.Store(false)
	s.stopOnce.Do(func() { close(s.stopCh) })
	return s.server.Close()
}
