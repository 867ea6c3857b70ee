package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter signals a malformed or out-of-range request parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSearchBackend signals an unreachable search engine or a non-2xx engine response.
	ErrSearchBackend = errors.New("search backend error")
	// ErrMalformedSnippet signals a highlight snippet without a match marker.
	ErrMalformedSnippet = errors.New("malformed snippet")
	// ErrMissingDocumentMetadata signals a highlighted document with no metadata record.
	ErrMissingDocumentMetadata = errors.New("missing document metadata")
)

// BackendError wraps ErrSearchBackend with the failing request URL.
// StatusCode is 0 when the request never produced a response.
type BackendError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s returned status %d", ErrSearchBackend.Error(), e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrSearchBackend.Error(), e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrSearchBackend.Error(), e.URL)
	}
}

func (e *BackendError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSearchBackend, e.Err}
	}
	return []error{ErrSearchBackend}
}

// NewBackendError creates a search backend error for a failed request.
func NewBackendError(url string, statusCode int, cause error) error {
	return &BackendError{URL: url, StatusCode: statusCode, Err: cause}
}

// InvalidParameterError wraps ErrInvalidParameter with the offending parameter name.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidParameter.Error(), e.Name, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

// NewInvalidParameter creates an invalid parameter error.
func NewInvalidParameter(name, reason string) error {
	return &InvalidParameterError{Name: name, Reason: reason}
}
