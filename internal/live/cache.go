package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insectlab/bugradar/internal/events"
)

// Cache keeps the most recent detection payload per rig in Redis so the
// browse server can answer "what does the rig see right now" without
// holding a broker subscription per request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

const keyPrefix = "det:latest:"

// DefaultTTL bounds staleness: an entry older than this means the rig has
// stopped publishing and the live view should say so.
const DefaultTTL = 10 * time.Second

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Set stores the payload, replacing any previous frame for the same rig.
func (c *Cache) Set(ctx context.Context, p *events.Payload) error {
	if err := events.Validate(p); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if len(data) > events.MaxPayloadSize {
		return fmt.Errorf("payload too large: %d bytes", len(data))
	}
	if err := c.client.Set(ctx, keyPrefix+p.RigID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the latest payload for a rig with AgeMS filled in, or
// (nil, nil) when nothing fresh is cached.
func (c *Cache) Get(ctx context.Context, rigID string) (*events.Payload, error) {
	data, err := c.client.Get(ctx, keyPrefix+rigID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var p events.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}
	p.AgeMS = time.Now().UnixMilli() - p.TSUnixMS
	if p.AgeMS < 0 {
		p.AgeMS = 0
	}
	return &p, nil
}
