package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gesetzbot/gesetzbot/internal/cache"
)

// Cached decorates an Embedder with a cache, so re-ingesting a law does not
// re-pay for embeddings of unchanged paragraphs.
type Cached struct {
	inner Embedder
	store cache.Cache
}

// NewCached wraps an embedder with the given cache.
func NewCached(inner Embedder, store cache.Cache) *Cached {
	return &Cached{inner: inner, store: store}
}

// Name returns the underlying embedding model identifier.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Embed returns the cached vector when present, otherwise embeds and caches.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(c.inner.Name(), text)

	if data, found := c.store.Get(key); found {
		var vector []float32
		if err := json.Unmarshal(data, &vector); err == nil {
			return vector, nil
		}
		// Corrupt entry: drop it and re-embed.
		_ = c.store.Delete(key)
	}

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}
	if err := c.store.Set(key, data, 0); err != nil {
		slog.Warn("cache embedding", "error", err)
	}
	return vector, nil
}
