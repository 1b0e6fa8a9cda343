package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/gesetzbot/gesetzbot/internal/model"
)

// ExtractDocument parses a gesetze-im-internet law document (gii-norm XML)
// into a flat list of paragraphs, preserving source order.
//
// A <norm> unit is accepted only if its <metadaten> block carries jurabk,
// enbez and titel, and its <textdaten> block carries a <text> field. Units
// failing either check, or ending up with neither title nor body, are
// skipped: many structural and transitional units in the source format carry
// no retrievable legal content. A document-level <standkommentar> revision
// note, if present, is attached to every emitted paragraph.
func ExtractDocument(r io.Reader) ([]model.Paragraph, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, fmt.Errorf("parse law document: %w", err)
	}

	versionInfo := collectVersionInfo(root)

	var paras []model.Paragraph
	for _, norm := range root.kids {
		if norm.name != "norm" {
			continue
		}
		p, ok := extractNorm(norm)
		if !ok {
			continue
		}
		p.VersionInfo = versionInfo
		if !p.Valid() {
			continue
		}
		paras = append(paras, p)
	}
	return paras, nil
}

// extractNorm pulls one paragraph out of a <norm> unit. ok is false when the
// unit fails the completeness checks.
func extractNorm(norm *node) (model.Paragraph, bool) {
	var p model.Paragraph
	valid := true

	for _, child := range norm.kids {
		switch child.name {
		case "metadaten":
			if !child.hasAll("jurabk", "enbez", "titel") {
				valid = false
				continue
			}
			for _, md := range child.kids {
				switch md.name {
				case "jurabk":
					p.Law = md.text()
				case "enbez":
					p.Par = md.text()
				case "titel":
					p.Title = md.text()
				}
			}
		case "textdaten":
			if !child.hasAll("text") {
				valid = false
				continue
			}
			for _, cont := range child.kids {
				switch cont.name {
				case "text":
					p.Text = cont.text()
				case "fussnoten":
					p.Footnotes = cont.text()
				}
			}
		}
	}

	if p.Title == "" && p.Text == "" {
		valid = false
	}
	return p, valid
}

// collectVersionInfo joins the text of all <standkommentar> elements in the
// document. The note usually lives in the first (law-level) norm unit.
func collectVersionInfo(root *node) string {
	var parts []string
	root.walk(func(n *node) {
		if n.name == "standkommentar" {
			if t := n.text(); t != "" {
				parts = append(parts, t)
			}
		}
	})
	return strings.Join(parts, " ")
}

// node is a generic XML element retaining child order, so that descendant
// text can be flattened in document order with markup collapsed.
type node struct {
	name  string
	kids  []*node
	parts []part
}

// part is one ordered content item of an element: either a character data
// segment or a child element.
type part struct {
	text  string
	child *node
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	// The official archives occasionally declare ISO-8859-1; accept any
	// single-byte charset the decoder can pass through.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	root := &node{}
	stack := []*node{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			child := &node{name: t.Name.Local}
			top.kids = append(top.kids, child)
			top.parts = append(top.parts, part{child: child})
			stack = append(stack, child)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("unbalanced element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.parts = append(top.parts, part{text: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("unexpected end of document inside %q", stack[len(stack)-1].name)
	}
	if len(root.kids) == 0 {
		return nil, fmt.Errorf("document has no root element")
	}
	// Descend past the document element so callers iterate <norm> units.
	return root.kids[0], nil
}

// text flattens all descendant character data in document order, trimming
// each segment and joining with single spaces.
func (n *node) text() string {
	var segs []string
	n.appendText(&segs)
	return strings.Join(segs, " ")
}

func (n *node) appendText(segs *[]string) {
	for _, p := range n.parts {
		if p.child != nil {
			p.child.appendText(segs)
			continue
		}
		if s := strings.TrimSpace(p.text); s != "" {
			*segs = append(*segs, s)
		}
	}
}

// hasAll reports whether the element has a direct child for every given name.
func (n *node) hasAll(names ...string) bool {
	present := make(map[string]bool, len(n.kids))
	for _, k := range n.kids {
		present[k.name] = true
	}
	for _, name := range names {
		if !present[name] {
			return false
		}
	}
	return true
}

// walk visits the element and all descendants in document order.
func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, k := range n.kids {
		k.walk(fn)
	}
}
