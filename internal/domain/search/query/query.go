// Package query builds the Solr select parameters for manifest and collection searches.
package query

import (
	"fmt"
	"net/url"

	querystring "github.com/google/go-querystring/query"
)

// Solr field and tuning constants shared by both query shapes.
const (
	// TextField holds the OCR text and is the default search field.
	TextField = "ocr_text"
	// SourceField holds the owning manifest id; collection search groups on it.
	SourceField = "source"

	// ManifestRows bounds the number of pages returned for a single manifest.
	ManifestRows = 500
	// ManifestSnippets is the per-document snippet cap, large enough that no match is dropped.
	ManifestSnippets = 4096
)

// Params is a fully built set of Solr select parameters.
type Params interface {
	Values() (url.Values, error)
}

// ManifestParams searches every page of one manifest with absolute highlight coordinates.
type ManifestParams struct {
	Q               string `url:"q"`
	DF              string `url:"df"`
	FQ              string `url:"fq"`
	Rows            int    `url:"rows"`
	HL              string `url:"hl"`
	HLOCRFields     string `url:"hl.ocr.fl"`
	HLAbsolute      string `url:"hl.ocr.absoluteHighlights"`
	HLSnippets      int    `url:"hl.snippets"`
	HLWeightMatches string `url:"hl.weightMatches"`
}

// CollectionParams searches a collection prefix, one group (and one snippet) per manifest.
type CollectionParams struct {
	Q              string `url:"q"`
	DF             string `url:"df"`
	HL             string `url:"hl"`
	HLOCRFields    string `url:"hl.ocr.fl"`
	HLContextBlock string `url:"hl.ocr.contextBlock"`
	HLContextSize  int    `url:"hl.ocr.contextSize"`
	HLSnippets     int    `url:"hl.snippets"`
	Group          bool   `url:"group"`
	GroupField     string `url:"group.field"`
	GroupSort      string `url:"group.sort"`
	GroupLimit     int    `url:"group.limit"`
	GroupFormat    string `url:"group.format"`
	GroupNGroups   bool   `url:"group.ngroups"`
	Rows           int    `url:"rows"`
	Start          int    `url:"start"`
}

// Manifest builds the parameters for a single-manifest search.
// An empty documentID searches the whole index.
func Manifest(q, documentID string) ManifestParams {
	fq := "*:*"
	if documentID != "" {
		fq = SourceField + ":" + documentID
	}
	return ManifestParams{
		Q:               q,
		DF:              TextField,
		FQ:              fq,
		Rows:            ManifestRows,
		HL:              "on",
		HLOCRFields:     TextField,
		HLAbsolute:      "on",
		HLSnippets:      ManifestSnippets,
		HLWeightMatches: "true",
	}
}

// Collection builds the parameters for one page of a collection search.
func Collection(q, documentID string, rows, page int) CollectionParams {
	return CollectionParams{
		Q:              fmt.Sprintf("(%s) AND %s:%s*", q, SourceField, documentID),
		DF:             TextField,
		HL:             "true",
		HLOCRFields:    TextField,
		HLContextBlock: "line",
		HLContextSize:  1,
		HLSnippets:     1,
		Group:          true,
		GroupField:     SourceField,
		GroupSort:      "id asc",
		GroupLimit:     1,
		GroupFormat:    "simple",
		GroupNGroups:   true,
		Rows:           rows,
		Start:          page * rows,
	}
}

// Values flattens the parameters to their wire form.
func (p ManifestParams) Values() (url.Values, error) {
	return encode(p)
}

// Values flattens the parameters to their wire form.
func (p CollectionParams) Values() (url.Values, error) {
	return encode(p)
}

func encode(v any) (url.Values, error) {
	vals, err := querystring.Values(v)
	if err != nil {
		return nil, fmt.Errorf("encode solr params: %w", err)
	}
	return vals, nil
}
