package mode

// Mode is the search shape requested by the client.
type Mode string

// Search mode constants.
const (
	// Manifest searches a single document and answers with a Search-1 AnnotationList.
	Manifest Mode = "manifest"
	// Collection searches every document under a prefix and answers with a paginated
	// Search-2 AnnotationPage.
	Collection Mode = "collection"
)

var knownParams = map[Mode]map[string]struct{}{
	Manifest:   {"q": {}},
	Collection: {"q": {}, "page": {}, "rows": {}},
}

// Recognizes reports whether the query parameter is consumed by this mode.
// Anything else is echoed back to the client as ignored.
func (m Mode) Recognizes(param string) bool {
	_, ok := knownParams[m][param]
	return ok
}
