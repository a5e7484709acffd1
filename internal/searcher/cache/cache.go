// Package cache memoises search results in Redis. Keys carry the index
// generation, so results computed before a document was added are never
// served afterwards; stale keys simply age out through the TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps store. A nil breaker gets a default one; a key miss never
// counts as a breaker failure.
func New(store Store, ttl time.Duration, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *QueryCache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{
			IsFailure: IsFailure,
		})
	}
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		breaker: breaker,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// IsFailure reports whether err from the store should trip the breaker.
func IsFailure(err error) bool {
	return err != nil && !pkgredis.IsNilError(err)
}

// Get looks up a cached result. Store errors and an open breaker are
// reported as misses.
func (c *QueryCache) Get(ctx context.Context, key string) ([]indexer.Result, bool) {
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		return err
	})
	if err != nil {
		if !pkgredis.IsNilError(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var results []indexer.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return results, true
}

// Set stores results under key. Failures are logged and otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, key string, results []indexer.Result) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for the query, or runs compute
// once for all concurrent callers asking for the same key. The bool is true
// on a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	generation int64,
	compute func() ([]indexer.Result, error),
) ([]indexer.Result, bool, error) {
	key := BuildKey(query, limit, generation)
	if results, ok := c.Get(ctx, key); ok {
		return results, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		results, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]indexer.Result), false, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey hashes the query's distinct terms in sorted order, so queries
// that differ only in case, punctuation, word order or repetition share a
// key.
func BuildKey(query string, limit int, generation int64) string {
	terms := tokenizer.Unique(tokenizer.Tokenize(query))
	sort.Strings(terms)
	raw := fmt.Sprintf("%s|limit=%d|gen=%d", strings.Join(terms, ","), limit, generation)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
