package request

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/mode"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Request is a validated search request. It is immutable once constructed.
type Request struct {
	searchMode mode.Mode
	documentID string
	query      string
	ignored    []string
	page       int
	rows       int
}

// NewManifest builds a manifest search request. Only q is recognized.
func NewManifest(documentID string, p Params) (Request, error) {
	q, err := requireQuery(p)
	if err != nil {
		return Request{}, err
	}
	return Request{
		searchMode: mode.Manifest,
		documentID: documentID,
		query:      q,
		ignored:    ignoredParams(mode.Manifest, p),
	}, nil
}

// NewCollection builds a paginated collection search request.
// Defaults: page=0, rows=maxRows. Rows above maxRows are clamped to maxRows.
func NewCollection(documentID string, p Params, maxRows int) (Request, error) {
	if maxRows <= 0 {
		return Request{}, fmt.Errorf("max rows must be positive, got %d", maxRows)
	}
	q, err := requireQuery(p)
	if err != nil {
		return Request{}, err
	}

	page, err := intParam(p, "page", 0)
	if err != nil {
		return Request{}, err
	}
	rows, err := intParam(p, "rows", maxRows)
	if err != nil {
		return Request{}, err
	}
	if rows == 0 {
		return Request{}, domain.NewInvalidParameter("rows", "must be greater than zero")
	}
	if rows > maxRows {
		rows = maxRows
	}
	// page*rows becomes the engine's start offset and must not overflow.
	if page > math.MaxInt/rows {
		return Request{}, domain.NewInvalidParameter("page", "out of range")
	}

	return Request{
		searchMode: mode.Collection,
		documentID: documentID,
		query:      q,
		ignored:    ignoredParams(mode.Collection, p),
		page:       page,
		rows:       rows,
	}, nil
}

// Mode returns the search shape.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// DocumentID returns the manifest id or collection prefix being searched.
func (r *Request) DocumentID() string { return r.documentID }

// Query returns the raw query text as supplied by the client.
func (r *Request) Query() string { return r.query }

// Ignored returns the names of unrecognized parameters in first-appearance order.
func (r *Request) Ignored() []string {
	out := make([]string, len(r.ignored))
	copy(out, r.ignored)
	return out
}

// Page returns the zero-based page number (collection search only).
func (r *Request) Page() int { return r.page }

// Rows returns the page size (collection search only).
func (r *Request) Rows() int { return r.rows }

func requireQuery(p Params) (string, error) {
	q, _ := p.Get("q")
	if q == "" {
		return "", domain.NewInvalidParameter("q", "is required")
	}
	if len(q) > MaxQueryLength {
		return "", domain.NewInvalidParameter("q", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}
	return q, nil
}

// intParam parses a non-negative integer parameter. Empty or absent values use def.
func intParam(p Params, name string, def int) (int, error) {
	raw, ok := p.Get(name)
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewInvalidParameter(name, "must be an integer")
	}
	if n < 0 {
		return 0, domain.NewInvalidParameter(name, "must not be negative")
	}
	return n, nil
}

func ignoredParams(m mode.Mode, p Params) []string {
	ignored := make([]string, 0)
	for _, k := range p.keys {
		if !m.Recognizes(k) {
			ignored = append(ignored, k)
		}
	}
	return ignored
}
