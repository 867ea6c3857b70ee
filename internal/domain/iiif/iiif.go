// Package iiif synthesizes IIIF Search API response documents from normalized
// search engine results.
package iiif

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/iiifsearch/internal/domain/search/highlight"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
)

// JSON-LD contexts emitted by the two response shapes.
const (
	PresentationContext = "https://iiif.io/api/presentation/3/context.json"
	SearchV1Context     = "https://iiif.io/api/search/1/context.json"
	SearchV2Context     = "http://iiif.io/api/search/2/context.json"
)

// Endpoints are the public base URLs used to mint ids and targets.
type Endpoints struct {
	ManifestServerURL   string
	ManifestSearchURL   string
	CollectionSearchURL string
	ImageServerURL      string
	// DefaultRows is the page size a collection link implies when it carries no rows parameter.
	DefaultRows int
}

// Region is an image region in absolute pixels.
type Region struct {
	X, Y, W, H float64
}

// RegionOf converts a highlight box into x/y/width/height. Coordinates are not rounded.
func RegionOf(b highlight.Box) Region {
	return Region{X: b.ULX, Y: b.ULY, W: b.Width(), H: b.Height()}
}

// Fragment renders the region as a media fragment, e.g. "xywh=10,20,30,40".
func (r Region) Fragment() string {
	var sb strings.Builder
	sb.WriteString("xywh=")
	for i, v := range [...]float64{r.X, r.Y, r.W, r.H} {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return sb.String()
}

// imageTarget addresses a region of an image on the image server.
func (e Endpoints) imageTarget(imageURL string, r Region) string {
	return e.ImageServerURL + "/iiif/2/" + imageURL + "#" + r.Fragment()
}
