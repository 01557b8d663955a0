package firecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// keyPrefix namespaces the cache entries in Redis.
const keyPrefix = "alarm-clock:recent-fire:"

// ErrNotFound is returned when no recent fire is cached for the id.
var ErrNotFound = errors.New("no recent fire cached")

// Cache stores recently fired definitions with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache over the provided Redis client. Entries expire after ttl.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// Remember snapshots the definition under its alarm id.
func (c *Cache) Remember(ctx context.Context, def *alarm.Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}

	if err := c.client.Set(ctx, key(def.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache definition: %w", err)
	}

	return nil
}

// Recall returns the cached definition for the id, or ErrNotFound once the
// entry expired or was never written.
func (c *Cache) Recall(ctx context.Context, id int64) (*alarm.Definition, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("read cached definition: %w", err)
	}

	def := &alarm.Definition{}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("decode cached definition: %w", err)
	}

	return def, nil
}

// key builds the Redis key for an alarm id.
func key(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}
