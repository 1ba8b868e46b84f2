package ratelimiter

import (
	"DocQA/backend/go/internal/config"
	"DocQA/backend/go/pkg/util"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is the interface for rate limiting.
// Allow returns true if a request is allowed, and false otherwise.
type RateLimiter interface {
	Allow() bool
}

// Factory builds a fresh limiter for a newly seen client.
type Factory func() RateLimiter

// NewFactory returns a Factory for the algorithm named in cfg.
func NewFactory(cfg config.RateLimiterConfig) (Factory, error) {
	switch cfg.Algorithm {
	case "", "tokenBucket":
		return func() RateLimiter { return NewTokenBucket(cfg.Rate, cfg.Capacity) }, nil
	case "fixedWindow", "slidingLog":
		window, err := time.ParseDuration(cfg.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid %s window: %w", cfg.Algorithm, err)
		}
		if cfg.Algorithm == "fixedWindow" {
			return func() RateLimiter { return NewFixedWindowCounter(cfg.Limit, window) }, nil
		}
		return func() RateLimiter { return NewSlidingWindowLog(cfg.Limit, window) }, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}

// PerClient keeps one limiter per client key. The least recently seen
// clients are forgotten once more than maxClients are tracked.
type PerClient struct {
	factory  Factory
	limiters *util.LRUCache[string, RateLimiter]
	mutex    sync.Mutex
}

func NewPerClient(factory Factory, maxClients int) (*PerClient, error) {
	limiters, err := util.NewWithConfig[string, RateLimiter](util.CacheConfig{Capacity: maxClients})
	if err != nil {
		return nil, err
	}
	return &PerClient{factory: factory, limiters: limiters}, nil
}

// Allow reports whether the client identified by key may proceed.
func (p *PerClient) Allow(key string) bool {
	p.mutex.Lock()
	limiter, ok := p.limiters.Get(key)
	if !ok {
		limiter = p.factory()
		p.limiters.Put(key, limiter, 1)
	}
	p.mutex.Unlock()
	return limiter.Allow()
}
