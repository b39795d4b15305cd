package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTimeout = 500 * time.Millisecond

// Client is the EmbeddingClient capability (spec C1): it wraps a Provider
// with a content-hash cache. Cache reads/writes are best-effort — a Redis
// outage degrades to always calling the provider, it never surfaces as an
// error to the caller.
type Client struct {
	provider Provider
	rdb      *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

// NewClient builds a Client. rdb may be nil, in which case caching is
// disabled and every call reaches the provider.
func NewClient(provider Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{provider: provider, rdb: rdb, ttl: ttl, logger: logger}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "memoria:embed:" + hex.EncodeToString(sum[:])
}

// Embed returns the embedding for text, consulting the cache first.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	key := contentHash(text)

	if c.rdb != nil {
		if cached, ok := c.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		c.writeCache(ctx, key, vec)
	}
	return vec, nil
}

func (c *Client) readCache(ctx context.Context, key string) ([]float32, bool) {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	raw, err := c.rdb.Get(cctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("embedding cache read failed, falling back to provider", zap.Error(err))
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.logger.Debug("embedding cache entry corrupt, falling back to provider", zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *Client) writeCache(ctx context.Context, key string, vec []float32) {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	raw, err := json.Marshal(vec)
	if err != nil {
		c.logger.Debug("embedding cache marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(cctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("embedding cache write failed", zap.Error(err))
	}
}
