package describe

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// DefaultCachePrefix namespaces cached descriptions.
const DefaultCachePrefix = "gmod:describe:"

// CachedSource keeps raw descriptions in Redis for TTL. Cache failures are
// logged and fall through to the wrapped source.
type CachedSource struct {
	inner  Source
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

// WithCachePrefix overrides DefaultCachePrefix.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *CachedSource) {
		c.prefix = prefix
	}
}

// WithCacheLogger sets the logger for cache misses and failures.
func WithCacheLogger(logger zerolog.Logger) CacheOption {
	return func(c *CachedSource) {
		c.logger = logger
	}
}

// NewCachedSource wraps inner with a Redis cache. A zero ttl keeps entries
// until evicted.
func NewCachedSource(inner Source, client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *CachedSource {
	c := &CachedSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: DefaultCachePrefix,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached description or fetches and stores it.
func (c *CachedSource) Fetch(ctx context.Context, req Request) ([]byte, error) {
	key := c.prefix + req.Module
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.logger.Debug().Str("module", req.Module).Str("batch", req.BatchKey).Msg("describe cache hit")
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("module", req.Module).Msg("describe cache read failed")
	}

	data, err = c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("module", req.Module).Msg("describe cache write failed")
	}
	return data, nil
}

// ListModules delegates to the wrapped source. Listings are not cached.
func (c *CachedSource) ListModules(ctx context.Context) ([]ir.Module, error) {
	lister, ok := c.inner.(Lister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	return lister.ListModules(ctx)
}

// Invalidate drops the cached description of module.
func (c *CachedSource) Invalidate(ctx context.Context, module string) error {
	return c.client.Del(ctx, c.prefix+module).Err()
}
