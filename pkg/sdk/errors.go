package iiifsearch

import "github.com/kailas-cloud/iiifsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidParameter = domain.ErrInvalidParameter
	ErrSearchBackend    = domain.ErrSearchBackend
	ErrMalformedSnippet = domain.ErrMalformedSnippet
)
