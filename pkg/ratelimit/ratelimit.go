package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Standard errors returned by rate limiters.
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter is the interface implemented by rate limiter backends.
type Limiter interface {
	// Allow reports whether a single request for key is permitted.
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN reports whether n requests for key are permitted.
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait blocks until a request for key is permitted or ctx is done.
	Wait(ctx context.Context, key string) error

	// Reset clears the recorded usage for key.
	Reset(ctx context.Context, key string) error

	// GetInfo reports the current limit state for key.
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close releases the limiter's resources.
	Close() error
}

// LimitInfo describes a key's current rate limit state.
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config configures a rate limiter.
type Config struct {
	// Requests is the number of requests allowed per Window.
	Requests int `koanf:"requests"`

	// Window is the time window Requests applies to.
	Window time.Duration `koanf:"window"`

	// Strategy selects the in-memory limiting algorithm: sliding_window or
	// token_bucket. Any other value uses sliding_window. The Redis backend
	// always uses a sliding window and ignores this field.
	Strategy string `koanf:"strategy"`

	// KeyFunc names a KeyExtractor (ip, user, or method). The limiters in
	// this package take the key as given and do not read this field.
	KeyFunc string `koanf:"key_func"`

	// Backend selects the storage backend: memory or redis.
	Backend string `koanf:"backend"`

	// BurstSize is the token bucket's burst allowance.
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval is how often the in-memory backend sweeps expired entries.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis connection settings, used when Backend is "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Namespace prefixes every key a backend stores, so several
	// netsimplex deployments (or a solve-graph limiter next to a
	// history-list limiter) sharing one Redis/memory backend don't
	// collide on bucket names.
	Namespace string `koanf:"namespace"`
}

// DefaultConfig returns sensible default rate limit settings.
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		KeyFunc:         "ip",
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
		Namespace:       "netsimplex",
	}
}

// namespacedKey prefixes key with cfg's namespace, defaulting to the
// package default when cfg leaves it blank.
func namespacedKey(cfg *Config, key string) string {
	ns := cfg.Namespace
	if ns == "" {
		ns = "netsimplex"
	}
	return ns + ":" + key
}

// New constructs a Limiter for the backend named in cfg.
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor derives a rate limit key from a request's context and metadata.
type KeyExtractor func(ctx context.Context, method string, metadata map[string]string) string

// DefaultKeyExtractor derives a key from the caller's IP address.
func DefaultKeyExtractor(_ context.Context, _ string, metadata map[string]string) string {
	if ip, ok := metadata["x-forwarded-for"]; ok && ip != "" {
		return ip
	}
	if ip, ok := metadata["x-real-ip"]; ok && ip != "" {
		return ip
	}
	if peer, ok := metadata[":authority"]; ok {
		return peer
	}
	return "unknown"
}

// MethodKeyExtractor derives a key from the requested method/route.
func MethodKeyExtractor(_ context.Context, method string, _ map[string]string) string {
	return method
}

// UserKeyExtractor derives a key from an authenticated user id, falling back to IP.
func UserKeyExtractor(ctx context.Context, method string, metadata map[string]string) string {
	if userID, ok := metadata["x-user-id"]; ok && userID != "" {
		return userID
	}
	return DefaultKeyExtractor(ctx, method, metadata)
}

// CompositeKeyExtractor concatenates the keys produced by several extractors.
func CompositeKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(ctx context.Context, method string, metadata map[string]string) string {
		var key string
		for _, ext := range extractors {
			key += ext(ctx, method, metadata) + ":"
		}
		return key
	}
}

// RateLimitedMethods holds a per-method Config override, falling back to a default.
type RateLimitedMethods struct {
	mu            sync.RWMutex
	methods       map[string]*Config
	defaultConfig *Config
}

// NewRateLimitedMethods constructs a RateLimitedMethods with the given default.
func NewRateLimitedMethods(defaultCfg *Config) *RateLimitedMethods {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return &RateLimitedMethods{
		methods:       make(map[string]*Config),
		defaultConfig: defaultCfg,
	}
}

// Set overrides the Config used for method.
func (r *RateLimitedMethods) Set(method string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[method] = cfg
}

// Get returns the Config for method, or the default if unset.
func (r *RateLimitedMethods) Get(method string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.methods[method]; ok {
		return cfg
	}
	return r.defaultConfig
}
