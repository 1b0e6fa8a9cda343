// Package vector defines the storage interface for paragraph embeddings.
package vector

import (
	"context"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// Point is one indexable chunk: its human-readable key, embedding, the text
// as retrieved, and filterable metadata.
type Point struct {
	Key      string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// Index provides vector storage with filtered similarity search.
type Index interface {
	// Upsert inserts or updates points. Re-upserting a key replaces it.
	Upsert(ctx context.Context, points []Point) error

	// Query finds the top-k most similar chunks, restricted to the law
	// filter, ordered by decreasing similarity.
	Query(ctx context.Context, vector []float32, k int, laws model.LawFilter) ([]model.RetrievedChunk, error)

	// Delete removes all points matching the law filter.
	Delete(ctx context.Context, laws model.LawFilter) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (uint64, error)

	// Close releases resources.
	Close() error
}
