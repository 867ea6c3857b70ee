package highlight

import "github.com/kailas-cloud/iiifsearch/internal/domain/search/query"

// Field is the highlighted OCR field both query shapes request.
const Field = query.TextField

// LocatedSnippet is a snippet annotated with the document it came from.
type LocatedSnippet struct {
	DocumentID   string
	CollectionID string
	ImageURL     string
	Text         string
	Highlights   [][]Box
}

// ManifestResult is the flattened highlighting of a manifest search.
type ManifestResult struct {
	NumTotal int
	Snippets []LocatedSnippet
	// Skipped lists highlighted document ids that had no metadata record.
	Skipped []string
}

// Normalize walks the highlighting in engine order and resolves each document's
// source and image from response.docs. Documents without a metadata record are
// skipped entirely, including their match count.
func Normalize(resp Response) ManifestResult {
	docs := make(map[string]Document, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		if _, dup := docs[d.ID]; !dup {
			docs[d.ID] = d
		}
	}

	out := ManifestResult{Snippets: make([]LocatedSnippet, 0)}
	for _, entry := range resp.OCRHighlighting.Entries() {
		doc, ok := docs[entry.ID]
		if !ok {
			out.Skipped = append(out.Skipped, entry.ID)
			continue
		}
		fh := entry.Field(Field)
		for _, s := range fh.Snippets {
			out.Snippets = append(out.Snippets, LocatedSnippet{
				DocumentID:   entry.ID,
				CollectionID: doc.Source,
				ImageURL:     doc.ImageURL,
				Text:         s.Text,
				Highlights:   s.Highlights,
			})
		}
		out.NumTotal += fh.NumTotal
	}
	return out
}
