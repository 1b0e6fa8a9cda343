package ingest

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

func TestChunkParagraphs_ShortPassThrough(t *testing.T) {
	paras := []model.Paragraph{
		{Law: "EStG", Par: "§ 6", Title: "Bewertung", Text: "kurzer Text"},
		{Law: "EStG", Par: "§ 7", Title: "Absetzung", Text: strings.Repeat("a", 99)},
	}

	out := ChunkParagraphs(paras, 100, 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(out))
	}
	for i := range paras {
		if !reflect.DeepEqual(out[i], paras[i]) {
			t.Errorf("paragraph %d was modified: %+v", i, out[i])
		}
	}
}

func TestChunkParagraphs_Split(t *testing.T) {
	text := strings.Repeat("x", 350)
	p := model.Paragraph{
		Law:         "EStG",
		Par:         "§ 6",
		Title:       "Bewertung",
		Text:        text,
		Footnotes:   "fn",
		VersionInfo: "Stand 2024",
	}

	maxChunk, overlap := 100, 20
	out := ChunkParagraphs([]model.Paragraph{p}, maxChunk, overlap)

	// 350/(100+20)+1 = 3 parts of base length 350/3 = 116
	if len(out) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(out))
	}

	for i, part := range out {
		suffix := fmt.Sprintf(" Teil %d", i+1)
		if part.Par != "§ 6"+suffix {
			t.Errorf("part %d: unexpected section label %q", i, part.Par)
		}
		if part.Title != "Bewertung"+suffix {
			t.Errorf("part %d: unexpected title %q", i, part.Title)
		}
		if part.Law != "EStG" || part.Footnotes != "fn" || part.VersionInfo != "Stand 2024" {
			t.Errorf("part %d: shared fields not carried over: %+v", i, part)
		}
	}

	// First part starts at the beginning, last part ends at the end.
	if !strings.HasPrefix(text, out[0].Text[:10]) {
		t.Error("first part does not start at the text beginning")
	}
	last := out[len(out)-1]
	if !strings.HasSuffix(text, last.Text) {
		t.Error("last part does not end at the text end")
	}

	// Adjacent parts overlap: each inner boundary is covered twice.
	chunkLen := len(text) / 3
	for i := 1; i < len(out); i++ {
		wantStart := i*chunkLen - 20
		if out[i].Text != text[wantStart:min(len(text), (i+1)*chunkLen+20)] {
			t.Errorf("part %d: unexpected slice bounds", i)
		}
	}
}

func TestChunkParagraphs_ExactBoundary(t *testing.T) {
	// A text of exactly maxChunk characters enters the split path but the
	// arithmetic yields a single part, which still gets the suffix.
	atLimit := model.Paragraph{Law: "X", Par: "§ 1", Title: "T", Text: strings.Repeat("a", 100)}
	out := ChunkParagraphs([]model.Paragraph{atLimit}, 100, 10)
	if len(out) != 1 {
		t.Fatalf("expected 1 part, got %d", len(out))
	}
	if out[0].Par != "§ 1 Teil 1" {
		t.Errorf("unexpected section label %q", out[0].Par)
	}
	if out[0].Text != atLimit.Text {
		t.Errorf("single part should carry the whole text, got %d chars", len(out[0].Text))
	}
}

func TestChunkParagraphs_Defaults(t *testing.T) {
	p := model.Paragraph{Law: "X", Par: "§ 1", Title: "T", Text: strings.Repeat("a", 1000)}

	// Non-positive bounds fall back to the defaults, under which this text
	// is short enough to pass through.
	out := ChunkParagraphs([]model.Paragraph{p}, 0, -1)
	if len(out) != 1 || !reflect.DeepEqual(out[0], p) {
		t.Errorf("expected pass-through under default bounds, got %d parts", len(out))
	}
}
