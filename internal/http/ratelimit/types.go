package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	RequestsPerMinute int `json:"requestsPerMinute"`
	MaxRetries        int `json:"maxRetries"`
	InitialBackoffMs  int `json:"initialBackoffMs"`
	MaxBackoffMs      int `json:"maxBackoffMs"`
}

// DefaultConfig returns the default rate limit configuration, sized for the
// Keepa token budget (one request every 1.2s).
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 50,
		MaxRetries:        3,
		InitialBackoffMs:  500,
		MaxBackoffMs:      30000,
	}
}

// WithOverrides returns a config with the given overrides applied on top of
// the defaults.
func WithOverrides(overrides PartialConfig) Config {
	cfg := DefaultConfig()
	if overrides.RequestsPerMinute != nil {
		cfg.RequestsPerMinute = *overrides.RequestsPerMinute
	}
	if overrides.MaxRetries != nil {
		cfg.MaxRetries = *overrides.MaxRetries
	}
	if overrides.InitialBackoffMs != nil {
		cfg.InitialBackoffMs = *overrides.InitialBackoffMs
	}
	if overrides.MaxBackoffMs != nil {
		cfg.MaxBackoffMs = *overrides.MaxBackoffMs
	}
	return cfg
}

// PartialConfig allows partial configuration overrides
type PartialConfig struct {
	RequestsPerMinute *int `json:"requestsPerMinute,omitempty"`
	MaxRetries        *int `json:"maxRetries,omitempty"`
	InitialBackoffMs  *int `json:"initialBackoffMs,omitempty"`
	MaxBackoffMs      *int `json:"maxBackoffMs,omitempty"`
}

// RateLimiter enforces a minimum interval between requests. Safe for
// concurrent use; callers are served one at a time.
type RateLimiter struct {
	mu          sync.Mutex
	config      Config
	lastRequest int64 // Unix nanoseconds of last request, guarded by mu
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{config: config}
}

// NewRateLimiterDefault creates a rate limiter with default config
func NewRateLimiterDefault() *RateLimiter {
	return NewRateLimiter(DefaultConfig())
}

// GetConfig returns the current configuration
func (r *RateLimiter) GetConfig() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

// SetConfig updates the configuration
func (r *RateLimiter) SetConfig(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
}

// Throttle blocks until the minimum interval since the previous request has
// passed. The lock is held while sleeping, so concurrent callers queue and
// the interval holds between actual requests.
func (r *RateLimiter) Throttle() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.RequestsPerMinute <= 0 {
		return nil
	}
	minInterval := int64(time.Minute) / int64(r.config.RequestsPerMinute)

	elapsed := time.Now().UnixNano() - r.lastRequest
	if elapsed < minInterval {
		time.Sleep(time.Duration(minInterval - elapsed))
	}

	r.lastRequest = time.Now().UnixNano()
	return nil
}

// Reset resets the rate limiter state.
// Useful for testing or after long pauses.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRequest = 0
}
