package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore wraps a *Store with a read-through Redis cache in front of
// GetServices and GetDependencies — both full-table scans per §4.1 and the
// natural memoization points for a read-heavy query surface, following
// abc-service's own go-redis-backed caching layer.
type CachedStore struct {
	*Store
	rdb *redis.Client
	ttl time.Duration
}

const (
	servicesCacheKey = "trace-insights:services"
	DefaultCacheTTL  = 10 * time.Second
)

func NewCachedStore(s *Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{Store: s, rdb: rdb, ttl: ttl}
}

var _ Querier = (*CachedStore)(nil)

func (c *CachedStore) GetServices(ctx context.Context) ([]string, error) {
	if c.rdb == nil {
		return c.Store.GetServices(ctx)
	}
	if cached, err := c.rdb.Get(ctx, servicesCacheKey).Bytes(); err == nil {
		var services []string
		if json.Unmarshal(cached, &services) == nil {
			return services, nil
		}
	}
	services, err := c.Store.GetServices(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, merr := json.Marshal(services); merr == nil {
		c.rdb.Set(ctx, servicesCacheKey, encoded, c.ttl)
	}
	return services, nil
}

func (c *CachedStore) GetDependencies(ctx context.Context, lookback time.Duration) ([]Dependency, error) {
	if c.rdb == nil {
		return c.Store.GetDependencies(ctx, lookback)
	}
	key := keyForLookback(lookback)
	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var deps []Dependency
		if json.Unmarshal(cached, &deps) == nil {
			return deps, nil
		}
	}
	deps, err := c.Store.GetDependencies(ctx, lookback)
	if err != nil {
		return nil, err
	}
	if encoded, merr := json.Marshal(deps); merr == nil {
		c.rdb.Set(ctx, key, encoded, c.ttl)
	}
	return deps, nil
}

func keyForLookback(lookback time.Duration) string {
	return servicesCacheKey + "/deps/" + lookback.String()
}
