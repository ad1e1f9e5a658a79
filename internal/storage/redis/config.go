package redis

import (
	"math/rand/v2"
	"time"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL applies to live sessions and is refreshed on every write
	SessionTTL time.Duration
	// FinishedTTL replaces SessionTTL once a session reaches finished
	FinishedTTL time.Duration

	// A write that loses the WATCH race sleeps a jittered, doubling delay
	// between RetryBaseDelay and RetryMaxDelay, then tries again until its
	// context ends. ContentionTimeout bounds callers without a deadline.
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	ContentionTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		SessionTTL:        24 * time.Hour,
		FinishedTTL:       time.Hour,
		RetryBaseDelay:    time.Millisecond,
		RetryMaxDelay:     50 * time.Millisecond,
		ContentionTimeout: 10 * time.Second,
	}
}

// backoff returns the sleep before retry number attempt+1: full jitter
// over an exponentially growing window
func (c Config) backoff(attempt int) time.Duration {
	base := c.RetryBaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	window := c.RetryMaxDelay
	if attempt < 30 {
		if w := base << attempt; w > 0 && (window <= 0 || w < window) {
			window = w
		}
	}
	if window <= 0 {
		window = base
	}
	return base/2 + rand.N(window)
}
