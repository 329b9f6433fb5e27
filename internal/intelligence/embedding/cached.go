package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/rxnguard/internal/infrastructure/database/redis"
	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// CachedEmbedder memoizes another embedder's vectors in Redis.  Keys include
// the inner embedder's name so switching providers never serves stale
// vectors.  Concurrent misses for one text call the inner embedder once.
type CachedEmbedder struct {
	inner  Embedder
	cache  redis.Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedEmbedder(inner Embedder, cache redis.Cache, ttl time.Duration, log logging.Logger) *CachedEmbedder {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedEmbedder{inner: inner, cache: cache, ttl: ttl, logger: log}
}

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEmbedder) Name() string { return c.inner.Name() }

// Key is the cache key for text.
func (c *CachedEmbedder) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + c.inner.Name() + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := c.cache.GetOrSet(ctx, c.Key(text), &vec, c.ttl, func(ctx context.Context) (interface{}, error) {
		v, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			return nil, errors.New(errors.ErrCodeAIInferenceFailed, "embedder returned an empty vector")
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

//Personal.AI order the ending
