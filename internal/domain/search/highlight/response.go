// Package highlight models the OCR-highlighting search engine response and flattens it
// into an ordered list of located snippets.
package highlight

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the subset of a Solr select response the synthesizers consume.
type Response struct {
	Response        DocList          `json:"response"`
	OCRHighlighting Highlighting     `json:"ocrHighlighting"`
	Grouped         map[string]Group `json:"grouped,omitempty"`
}

// DocList is a page of matching documents.
type DocList struct {
	NumFound int        `json:"numFound"`
	Start    int        `json:"start"`
	Docs     []Document `json:"docs"`
}

// Document is the metadata record of one indexed page.
type Document struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	ImageURL      string `json:"image_url"`
	ManifestPath  string `json:"manifest_path,omitempty"`
	ManifestLabel string `json:"manifest_label,omitempty"`
}

// Group is one grouped field in a group.format=simple response.
type Group struct {
	Matches int     `json:"matches"`
	NGroups int     `json:"ngroups"`
	DocList DocList `json:"doclist"`
}

// Box is one highlighted term occurrence in absolute page pixels.
type Box struct {
	ULX  float64 `json:"ulx"`
	ULY  float64 `json:"uly"`
	LRX  float64 `json:"lrx"`
	LRY  float64 `json:"lry"`
	Text string  `json:"text"`
}

// Width returns lrx-ulx.
func (b Box) Width() float64 { return b.LRX - b.ULX }

// Height returns lry-uly.
func (b Box) Height() float64 { return b.LRY - b.ULY }

// Snippet is a context fragment with one marked match.
// Each inner slice of Highlights groups the boxes of one occurrence (a match can wrap lines).
type Snippet struct {
	Text       string  `json:"text"`
	Highlights [][]Box `json:"highlights"`
}

// FieldHighlights holds the snippets of one highlighted field.
type FieldHighlights struct {
	Snippets []Snippet `json:"snippets"`
	NumTotal int       `json:"numTotal"`
}

// DocumentHighlights are the highlighted fields of one document.
type DocumentHighlights struct {
	ID     string
	Fields map[string]FieldHighlights
}

// Field returns the highlights for name, or the zero value when the field is absent.
func (d DocumentHighlights) Field(name string) FieldHighlights {
	return d.Fields[name]
}

// Highlighting is the per-document highlight map, kept in the order the engine sent it.
type Highlighting struct {
	entries []DocumentHighlights
	index   map[string]int
}

// NewHighlighting builds a Highlighting from entries in the given order.
func NewHighlighting(entries ...DocumentHighlights) Highlighting {
	var h Highlighting
	for _, e := range entries {
		h.put(e.ID, e.Fields)
	}
	return h
}

// Entries returns the highlighted documents in engine order.
func (h Highlighting) Entries() []DocumentHighlights { return h.entries }

// Lookup returns the highlights of one document.
func (h Highlighting) Lookup(id string) (DocumentHighlights, bool) {
	i, ok := h.index[id]
	if !ok {
		return DocumentHighlights{}, false
	}
	return h.entries[i], true
}

// put keeps the first position of a repeated id and the last value.
func (h *Highlighting) put(id string, fields map[string]FieldHighlights) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	if i, ok := h.index[id]; ok {
		h.entries[i].Fields = fields
		return
	}
	h.index[id] = len(h.entries)
	h.entries = append(h.entries, DocumentHighlights{ID: id, Fields: fields})
}

// UnmarshalJSON decodes the object key by key so document order survives.
func (h *Highlighting) UnmarshalJSON(data []byte) error {
	*h = Highlighting{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode highlighting: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode highlighting: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode highlighting key: %w", err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode highlighting: unexpected key %v", keyTok)
		}
		var fields map[string]FieldHighlights
		if err := dec.Decode(&fields); err != nil {
			return fmt.Errorf("decode highlighting for %q: %w", id, err)
		}
		h.put(id, fields)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode highlighting: %w", err)
	}
	return nil
}

// Decode parses a raw engine body.
func Decode(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode search response: %w", err)
	}
	return resp, nil
}
