package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindwell-assessment-server/internal/domain"
)

// Cache stores generated narratives in Redis so identical domain results
// across submissions reuse the same text instead of a fresh completion.
type Cache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewCache creates a Redis-backed narrative cache.
func NewCache(config domain.CacheConfig) (*Cache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// cachedNarrative is the stored cache entry.
type cachedNarrative struct {
	Text      string    `json:"text"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a cached narrative for the prompt. The second return
// value reports a cache hit.
func (c *Cache) Get(ctx context.Context, model string, prompt Prompt) (string, bool, error) {
	key := cacheKey(model, prompt)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil // Cache miss
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get narrative cache: %w", err)
	}

	var cached cachedNarrative
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return "", false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return "", false, nil
	}

	return cached.Text, true, nil
}

// Set caches a narrative for the prompt.
func (c *Cache) Set(ctx context.Context, model string, prompt Prompt, text string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := cachedNarrative{
		Text:      text,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal narrative cache entry: %w", err)
	}

	return c.redis.Set(ctx, cacheKey(model, prompt), jsonData, ttl).Err()
}

// Ping checks if the Redis connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.redis.Close()
}

// cacheKey hashes the prompt facts that determine the generated text.
// Prompts carry nothing person-specific, so the same result safely
// reuses the same text across submissions.
func cacheKey(model string, p Prompt) string {
	score := "nil"
	if p.Score != nil {
		score = fmt.Sprintf("%.1f", *p.Score)
	}
	tScore := "nil"
	if p.TScore != nil {
		tScore = fmt.Sprintf("%.1f", *p.TScore)
	}

	data := fmt.Sprintf("%s:%s:%s:%s:%s", model, p.DomainName, p.Interpretation, score, tScore)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("narrative:%x", hash[:8])
}
