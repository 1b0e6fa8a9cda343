package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gesetzbot/gesetzbot/internal/cache"
)

// countingEmbedder tracks how often the expensive path runs
type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *countingEmbedder) Name() string { return "counting" }

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func TestCached_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	cached := NewCached(inner, store)

	vec, err := cached.Embed(context.Background(), "§ 6 Bewertung")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	// Second call must be served from the cache.
	vec2, err := cached.Embed(context.Background(), "§ 6 Bewertung")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected the cache to serve the repeat, inner called %d times", inner.calls)
	}
	for i := range vec {
		if vec[i] != vec2[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, vec, vec2)
		}
	}

	// A different text misses.
	if _, err := cached.Embed(context.Background(), "§ 7 Absetzung"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a miss for new text, inner called %d times", inner.calls)
	}
}

func TestCached_CorruptEntryReembedded(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	cached := NewCached(inner, store)

	key := cache.EmbeddingKey(inner.Name(), "text")
	if err := store.Set(key, []byte("{not json"), time.Minute); err != nil {
		t.Fatal(err)
	}

	vec, err := cached.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should force a re-embed, inner called %d times", inner.calls)
	}
	if len(vec) != 1 || vec[0] != 1 {
		t.Errorf("unexpected vector: %v", vec)
	}

	// The corrupt entry is replaced with the fresh vector.
	if _, err := cached.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a hit after replacement, inner called %d times", inner.calls)
	}
}

func TestCached_InnerErrorPropagates(t *testing.T) {
	innerErr := errors.New("embedding failed")
	inner := &countingEmbedder{err: innerErr}
	cached := NewCached(inner, cache.NewMemoryCache(time.Minute, time.Minute))

	if _, err := cached.Embed(context.Background(), "text"); !errors.Is(err, innerErr) {
		t.Fatalf("expected the inner error, got %v", err)
	}
}

func TestCached_Name(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCached(inner, cache.NewMemoryCache(time.Minute, time.Minute))
	if cached.Name() != "counting" {
		t.Errorf("Name should delegate to the inner embedder, got %q", cached.Name())
	}
}
