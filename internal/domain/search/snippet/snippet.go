// Package snippet extracts the marked match from a highlighted OCR snippet.
package snippet

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
)

// Delimiters the engine wraps around each matched term.
const (
	OpenTag  = "<em>"
	CloseTag = "</em>"
)

// Parts is a snippet split around its first marked match.
// Before + OpenTag + Match + CloseTag + After reproduces the original text.
type Parts struct {
	Before string
	Match  string
	After  string
}

// Split locates the first OpenTag/CloseTag pair in text.
// Further pairs are left untouched inside After. The match must not be empty.
func Split(text string) (Parts, error) {
	open := strings.Index(text, OpenTag)
	if open < 0 {
		return Parts{}, fmt.Errorf("%w: no %s marker in %q", domain.ErrMalformedSnippet, OpenTag, text)
	}
	rest := text[open+len(OpenTag):]
	end := strings.Index(rest, CloseTag)
	if end < 0 {
		return Parts{}, fmt.Errorf("%w: unterminated %s marker in %q", domain.ErrMalformedSnippet, OpenTag, text)
	}
	if end == 0 {
		return Parts{}, fmt.Errorf("%w: empty %s marker in %q", domain.ErrMalformedSnippet, OpenTag, text)
	}
	return Parts{
		Before: text[:open],
		Match:  rest[:end],
		After:  rest[end+len(CloseTag):],
	}, nil
}

// String reassembles the marked snippet.
func (p Parts) String() string {
	return p.Before + OpenTag + p.Match + CloseTag + p.After
}
