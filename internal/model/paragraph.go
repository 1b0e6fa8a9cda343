package model

import "strings"

// Paragraph represents one addressable provision of a statute, or a sub-slice
// of one produced by the chunker.
type Paragraph struct {
	Law         string `json:"law"`                    // Statute short code, e.g. "EStG"
	Par         string `json:"par"`                    // Section label, e.g. "§ 6"; chunked parts carry a " Teil N" suffix
	Title       string `json:"title"`                  // Provision heading
	Text        string `json:"text"`                   // Provision body
	Footnotes   string `json:"footnotes,omitempty"`    // Ancillary text, never embedded
	VersionInfo string `json:"version_info,omitempty"` // Document-level "as-of" note, never embedded

	// Embedding is populated by the embedding step, nil before.
	Embedding []float32 `json:"-"`
}

// Valid reports whether the paragraph carries enough content to be indexed.
func (p Paragraph) Valid() bool {
	if p.Law == "" || p.Par == "" {
		return false
	}
	return p.Title != "" || p.Text != ""
}

// Key returns the index key for the paragraph: the law code concatenated with
// the section label, with "§" stripped and spaces replaced by underscores.
// The key identifies a chunk for upsert and appears in citations.
func (p Paragraph) Key() string {
	par := strings.ReplaceAll(p.Par, "§", "")
	par = strings.ReplaceAll(par, " ", "_")
	return p.Law + par
}

// Document returns the text as it is indexed and retrieved: title and body
// separated by a blank line. Footnotes and version info are excluded.
func (p Paragraph) Document() string {
	return p.Title + "\n\n" + p.Text
}

// RetrievedChunk is a single vector index query result. Rank is implicit in
// result slice order, best similarity first.
type RetrievedChunk struct {
	ID       string // index key of the chunk
	Document string // title+body text as indexed
}

// LawFilter restricts retrieval to a set of law codes.
// Empty means unrestricted; one code means equality; several mean OR.
type LawFilter []string

// Restricted reports whether the filter narrows retrieval at all.
func (f LawFilter) Restricted() bool {
	return len(f) > 0
}
