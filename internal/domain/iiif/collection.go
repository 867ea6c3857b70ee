package iiif

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/highlight"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/query"
)

// CollectionResponse is a Search-2 AnnotationPage.
type CollectionResponse struct {
	Context string               `json:"@context"`
	ID      string               `json:"id"`
	Type    string               `json:"type"`
	Ignored []string             `json:"ignored"`
	PartOf  AnnotationCollection `json:"partOf"`
	Prev    *PageRef             `json:"prev,omitempty"`
	Next    *PageRef             `json:"next,omitempty"`
	Items   []CollectionItem     `json:"items"`
}

// AnnotationCollection is the paged result set a page belongs to.
type AnnotationCollection struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Total int     `json:"total"`
	First PageRef `json:"first"`
	Last  PageRef `json:"last"`
}

// PageRef links to an AnnotationPage.
type PageRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// CollectionItem is the representative hit of one manifest.
type CollectionItem struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Motivation string      `json:"motivation"`
	Body       TextualBody `json:"body"`
	Target     Target      `json:"target"`
}

// TextualBody carries the highlighted snippet markup.
type TextualBody struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Format string `json:"format"`
}

// Target is the image region of the hit and the manifest that owns it.
type Target struct {
	ID     string      `json:"id"`
	PartOf ManifestRef `json:"partOf"`
}

// ManifestRef identifies the owning manifest.
type ManifestRef struct {
	ID    string              `json:"id"`
	Type  string              `json:"type"`
	Label map[string][]string `json:"label"`
}

// CollectionInput carries everything a collection response is built from.
type CollectionInput struct {
	DocumentID string
	Query      string
	Ignored    []string
	Page       int
	Rows       int
	Response   highlight.Response
}

// CollectionResult is a built page plus the grouped documents left out of it.
type CollectionResult struct {
	Page CollectionResponse
	// Skipped lists grouped document ids that had no highlight box to show.
	Skipped []string
}

// LastPage returns floor(|total-1| / rows), the zero-based index of the last page.
func LastPage(total, rows int) int {
	d := total - 1
	if d < 0 {
		d = -d
	}
	return d / rows
}

// BuildCollection synthesizes one page of a collection search.
// Each grouped manifest contributes one item built from the first box of its first
// highlight group.
func BuildCollection(ep Endpoints, in CollectionInput, ids ident.Generator) (CollectionResult, error) {
	if in.Rows <= 0 {
		return CollectionResult{}, fmt.Errorf("%w: rows must be positive, got %d", domain.ErrInvalidParameter, in.Rows)
	}
	group, ok := in.Response.Grouped[query.SourceField]
	if !ok {
		return CollectionResult{}, fmt.Errorf("%w: response has no grouped.%s section",
			domain.ErrSearchBackend, query.SourceField)
	}

	total := group.NGroups
	last := LastPage(total, in.Rows)
	links := pageLinks{ep: ep, in: in}

	resp := CollectionResponse{
		Context: SearchV2Context,
		ID:      links.page(in.Page),
		Type:    "AnnotationPage",
		Ignored: nonNil(in.Ignored),
		PartOf: AnnotationCollection{
			ID:    links.page(0),
			Type:  "AnnotationCollection",
			Total: total,
			First: PageRef{ID: links.page(0), Type: "AnnotationPage"},
			Last:  PageRef{ID: links.explicit(last), Type: "AnnotationPage"},
		},
		Items: make([]CollectionItem, 0, len(group.DocList.Docs)),
	}
	if in.Page > 0 {
		resp.Prev = &PageRef{ID: links.explicit(in.Page - 1), Type: "AnnotationPage"}
	}
	if in.Page < last {
		resp.Next = &PageRef{ID: links.explicit(in.Page + 1), Type: "AnnotationPage"}
	}

	var skipped []string
	for _, doc := range group.DocList.Docs {
		s, box, ok := firstBox(in.Response.OCRHighlighting, doc.ID)
		if !ok {
			skipped = append(skipped, doc.ID)
			continue
		}
		resp.Items = append(resp.Items, CollectionItem{
			ID:         ep.ImageServerURL + "/iiif/2/" + doc.ID + "/annotation/" + ids.NewID(),
			Type:       "Annotation",
			Motivation: "highlighting",
			Body: TextualBody{
				Type:   "TextualBody",
				Value:  s.Text,
				Format: "text/html",
			},
			Target: Target{
				ID: ep.imageTarget(doc.ImageURL, RegionOf(box)),
				PartOf: ManifestRef{
					ID:    doc.ManifestPath,
					Type:  "Manifest",
					Label: map[string][]string{"en": {doc.ManifestLabel}},
				},
			},
		})
	}

	return CollectionResult{Page: resp, Skipped: skipped}, nil
}

func firstBox(h highlight.Highlighting, id string) (highlight.Snippet, highlight.Box, bool) {
	dh, ok := h.Lookup(id)
	if !ok {
		return highlight.Snippet{}, highlight.Box{}, false
	}
	snippets := dh.Field(highlight.Field).Snippets
	if len(snippets) == 0 || len(snippets[0].Highlights) == 0 || len(snippets[0].Highlights[0]) == 0 {
		return highlight.Snippet{}, highlight.Box{}, false
	}
	return snippets[0], snippets[0].Highlights[0][0], true
}

// pageLinks renders page URLs. Rows is only spelled out when it differs from the default.
type pageLinks struct {
	ep Endpoints
	in CollectionInput
}

func (l pageLinks) base() string {
	return l.ep.CollectionSearchURL + "/" + l.in.DocumentID + "?q=" + l.in.Query
}

func (l pageLinks) rowsSuffix() string {
	if l.in.Rows == l.ep.DefaultRows || l.ep.DefaultRows == 0 {
		return ""
	}
	return "&rows=" + strconv.Itoa(l.in.Rows)
}

// page omits the page parameter for the first page.
func (l pageLinks) page(n int) string {
	if n == 0 {
		return l.base() + l.rowsSuffix()
	}
	return l.explicit(n)
}

// explicit always carries the page parameter.
func (l pageLinks) explicit(n int) string {
	return l.base() + "&page=" + strconv.Itoa(n) + l.rowsSuffix()
}
