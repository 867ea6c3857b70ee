package search

import (
	"context"
	"net/url"
)

// Engine runs a select query against the search engine and returns the raw body.
type Engine interface {
	Select(ctx context.Context, params url.Values) ([]byte, error)
}
