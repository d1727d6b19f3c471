package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/VladimirKondr/netsimplex/pkg/config"
	"github.com/VladimirKondr/netsimplex/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Init("error")
}

func testConfig(port int) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "test-app", Environment: "development"},
		HTTP: config.HTTPConfig{
			Port:            port,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(0)
	mux := http.NewServeMux()

	srv := New(cfg, mux)
	assert.NotNil(t, srv)
	assert.False(t, srv.Ready())
}

func TestHTTPServer_RunAndStop(t *testing.T) {
	cfg := testConfig(18080)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := New(cfg, mux)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	deadline := time.Now().Add(time.Second)
	for !srv.Ready() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, srv.Ready())

	assert.NoError(t, srv.Stop())

	select {
	case err := <-done:
		_ = err
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	assert.False(t, srv.Ready())
}
