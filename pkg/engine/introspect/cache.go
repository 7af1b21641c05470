package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheKey is where RedisCache stores the catalog
const DefaultCacheKey = "acrud:schema:catalog"

// RedisCache shares an introspected catalog between processes. Misses and
// Redis failures fall through to the wrapped provider. The decoded catalog
// is also held in process until the TTL passes or Invalidate is called, so
// repeated lookups within one save do not each go to Redis.
type RedisCache struct {
	client *redis.Client
	next   engine.SchemaProvider
	key    string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	local   engine.Catalog
	expires time.Time
}

// RedisOptions configures NewRedisClient
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewRedisClient connects and pings
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewRedisCache wraps next. A zero ttl keeps the entry until Invalidate.
func NewRedisCache(client *redis.Client, next engine.SchemaProvider, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		next:   next,
		key:    DefaultCacheKey,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithKey stores the catalog under a different key
func (c *RedisCache) WithKey(key string) *RedisCache {
	if key != "" {
		c.key = key
	}
	return c
}

// Catalog implements engine.SchemaProvider
func (c *RedisCache) Catalog(ctx context.Context) (engine.Catalog, error) {
	if catalog := c.cached(); catalog != nil {
		return catalog, nil
	}

	data, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		catalog, decodeErr := decodeCatalog(data)
		if decodeErr == nil {
			c.remember(catalog)
			return catalog, nil
		}
		slog.Warn("discarding unreadable cached schema", "key", c.key, "error", decodeErr)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		slog.Warn("schema cache unavailable", "key", c.key, "error", err)
	}

	catalog, err := c.next.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeCatalog(catalog)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, c.key, encoded, c.ttl).Err(); err != nil {
		slog.Warn("failed to cache schema", "key", c.key, "error", err)
	}

	c.remember(catalog)
	return catalog, nil
}

// Invalidate drops the in-process copy and deletes the cached catalog
func (c *RedisCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.local = nil
	c.mu.Unlock()

	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisCache) cached() engine.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.local == nil {
		return nil
	}
	if c.ttl > 0 && !c.now().Before(c.expires) {
		c.local = nil
		return nil
	}
	return c.local
}

func (c *RedisCache) remember(catalog engine.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.local = catalog
	c.expires = c.now().Add(c.ttl)
}

func encodeCatalog(catalog engine.Catalog) ([]byte, error) {
	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}

func decodeCatalog(data []byte) (engine.Catalog, error) {
	var catalog engine.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("empty catalog")
	}
	return catalog, nil
}
