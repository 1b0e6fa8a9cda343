// Package qa implements retrieval-augmented answering over the indexed
// statutes: vector retrieval, per-chunk relevance filtering, context
// synthesis and quiz generation.
package qa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gesetzbot/gesetzbot/internal/embed"
	"github.com/gesetzbot/gesetzbot/internal/model"
	"github.com/gesetzbot/gesetzbot/internal/vector"
)

// Retriever issues filtered similarity queries against the vector index.
type Retriever struct {
	embedder embed.Embedder
	index    vector.Index
}

// NewRetriever creates a retriever over the given embedder and index.
func NewRetriever(embedder embed.Embedder, index vector.Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve embeds the query and returns the top-k chunks restricted to the
// law filter, ordered by decreasing similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, laws model.LawFilter) ([]model.RetrievedChunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.index.Query(ctx, vec, k, laws)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	slog.Info("retrieved chunks", "query", query, "ids", ids)
	return chunks, nil
}
