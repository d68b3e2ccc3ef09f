package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/config"
)

const embeddingCacheTTL = 7 * 24 * time.Hour

// CachedEmbedder wraps an Embedder with a Redis cache. Question stems repeat
// across sessions, so most semantic-validation lookups hit the cache instead
// of the embedding API.
type CachedEmbedder struct {
	inner Embedder
	rdb   *redis.Client
	model string
	log   zerolog.Logger
}

// NewCachedEmbedder wraps inner with a Redis-backed cache keyed by model and
// a hash of the text.
func NewCachedEmbedder(inner Embedder, rdb *redis.Client, model string, log zerolog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		rdb:   rdb,
		model: model,
		log:   log.With().Str("component", "embedding_cache").Logger(),
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := config.CacheKey.EmbeddingKey(e.model, text)

	cached, err := e.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var vec []float64
		if err := json.Unmarshal(cached, &vec); err == nil {
			return vec, nil
		}
		// Corrupt cache entry — fall through and recompute.
		e.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		e.log.Warn().Err(err).Msg("embedding cache read failed")
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(vec); err == nil {
		if err := e.rdb.Set(ctx, key, raw, embeddingCacheTTL).Err(); err != nil {
			e.log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}

	return vec, nil
}
