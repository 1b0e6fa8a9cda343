// Package embed maps text to fixed-length vectors for similarity retrieval.
package embed

import "context"

// Embedder converts free text into a numeric vector representation.
// Repeated embedding of identical text must yield vectors usable for
// consistent similarity ranking.
type Embedder interface {
	// Name returns the embedding model identifier
	Name() string

	// Embed returns the vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)
}
