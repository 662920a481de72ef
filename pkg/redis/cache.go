package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: figure and table outputs are cached through here
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// ErrCacheDisabled is returned by Ping when no Redis is configured
var ErrCacheDisabled = errors.New("cache disabled")

func (c *Cache) key(k string) string {
	return c.prefix + ":cache:" + k
}

// Ping checks the backing connection
func (c *Cache) Ping(ctx context.Context) error {
	if !c.client.Enabled() {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx)
}

// Get decodes the cached value of key into dest. A miss is (false, nil);
// connection errors are returned.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set stores the JSON encoding of value under key for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// GetOrSet fills dest from the cache, or from fn on a miss. The cache is
// best effort: a failed read or write only costs a recompute, so only
// fn's error is returned.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	// round-trip so dest looks the same on a hit and on a miss
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLShort = 1 * time.Minute // click-driven outputs
	TTLLong  = 1 * time.Hour   // outputs of the static dataset
)

// FigureKey is the cache key of one callback output for one set of
// control values. inputs must already be canonical (sorted JSON).
func FigureKey(output string, inputs string) string {
	sum := sha1.Sum([]byte(inputs))
	return fmt.Sprintf("figure:%s:%s", output, hex.EncodeToString(sum[:8]))
}

// StaticFigureKey is the cache key of a figure that takes no controls
func StaticFigureKey(id string) string {
	return fmt.Sprintf("figure:static:%s", id)
}
