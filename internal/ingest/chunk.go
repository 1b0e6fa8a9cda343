package ingest

import (
	"fmt"
	"log/slog"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// Default chunking bounds, in characters.
const (
	DefaultMaxChunk = 16000
	DefaultOverlap  = 500
)

// ChunkParagraphs splits oversized paragraph bodies into overlapping slices
// bounded by maxChunk characters. Paragraphs shorter than maxChunk pass
// through unchanged. Split parts share law, footnotes and version info, and
// carry a " Teil N" suffix on both section label and title.
//
// This is a pragmatic fixed-overlap splitter, not semantically aware: it may
// cut mid-sentence. The overlap ensures no clause is fully lost at a boundary.
func ChunkParagraphs(paras []model.Paragraph, maxChunk, overlap int) []model.Paragraph {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	out := make([]model.Paragraph, 0, len(paras))
	for _, p := range paras {
		textLen := len(p.Text)
		if textLen < maxChunk {
			out = append(out, p)
			continue
		}

		// For textLen just at maxChunk this yields a single part, which
		// still gets the " Teil 1" suffix.
		parts := textLen/(maxChunk+overlap) + 1
		chunkLen := textLen / parts
		for i := 0; i < parts; i++ {
			start := i * chunkLen
			if i > 0 {
				start -= overlap
			}
			end := (i+1)*chunkLen + overlap
			if end > textLen {
				end = textLen
			}
			suffix := fmt.Sprintf(" Teil %d", i+1)
			out = append(out, model.Paragraph{
				Law:         p.Law,
				Par:         p.Par + suffix,
				Title:       p.Title + suffix,
				Text:        p.Text[start:end],
				Footnotes:   p.Footnotes,
				VersionInfo: p.VersionInfo,
			})
		}
		slog.Info("split oversized paragraph",
			"par", p.Par, "length", textLen, "parts", parts)
	}
	return out
}
