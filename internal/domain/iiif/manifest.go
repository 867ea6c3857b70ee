package iiif

import (
	"fmt"

	"github.com/kailas-cloud/iiifsearch/internal/domain/search/highlight"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/snippet"
)

// ManifestResponse is a Search-1 sc:AnnotationList.
type ManifestResponse struct {
	Context   []string     `json:"@context"`
	ID        string       `json:"@id"`
	Type      string       `json:"@type"`
	Within    Layer        `json:"within"`
	Resources []Annotation `json:"resources"`
	Hits      []Hit        `json:"hits"`
}

// Layer describes the full result set the list belongs to.
type Layer struct {
	Type    string   `json:"@type"`
	Total   int      `json:"total"`
	Ignored []string `json:"ignored"`
}

// Annotation paints one highlighted word onto a canvas region.
type Annotation struct {
	ID         string        `json:"@id"`
	Type       string        `json:"@type"`
	Motivation string        `json:"motivation"`
	Resource   ContentAsText `json:"resource"`
	On         string        `json:"on"`
}

// ContentAsText is the annotation body.
type ContentAsText struct {
	Type  string `json:"@type"`
	Chars string `json:"chars"`
}

// Hit groups the annotations of one match with its surrounding text.
type Hit struct {
	Type        string   `json:"@type"`
	Annotations []string `json:"annotations"`
	Match       string   `json:"match"`
	Before      string   `json:"before"`
	After       string   `json:"after"`
}

// ManifestInput carries everything a manifest response is built from.
type ManifestInput struct {
	DocumentID string
	Query      string
	Ignored    []string
	Result     highlight.ManifestResult
}

// BuildManifest synthesizes the AnnotationList for a manifest search.
// Every box becomes an annotation; every highlight group becomes one hit that
// references the annotations of its boxes in order.
func BuildManifest(ep Endpoints, in ManifestInput, ids ident.Generator) (ManifestResponse, error) {
	resp := ManifestResponse{
		Context: []string{PresentationContext, SearchV1Context},
		ID:      ep.ManifestSearchURL + "/" + in.DocumentID + "?q=" + in.Query,
		Type:    "sc:AnnotationList",
		Within: Layer{
			Type:    "sc:Layer",
			Total:   in.Result.NumTotal,
			Ignored: nonNil(in.Ignored),
		},
		Resources: make([]Annotation, 0),
		Hits:      make([]Hit, 0),
	}

	for _, s := range in.Result.Snippets {
		parts, err := snippet.Split(s.Text)
		if err != nil {
			return ManifestResponse{}, fmt.Errorf("document %s: %w", s.DocumentID, err)
		}

		for _, group := range s.Highlights {
			annoIDs := make([]string, 0, len(group))
			for _, box := range group {
				id := ep.ManifestServerURL + "/" + s.DocumentID + "/annotation/" + ids.NewID()
				annoIDs = append(annoIDs, id)
				resp.Resources = append(resp.Resources, Annotation{
					ID:         id,
					Type:       "oa:Annotation",
					Motivation: "sc:painting",
					Resource: ContentAsText{
						Type:  "cnt:ContentAsText",
						Chars: box.Text,
					},
					On: ep.imageTarget(s.ImageURL, RegionOf(box)),
				})
			}
			resp.Hits = append(resp.Hits, Hit{
				Type:        "search:Hit",
				Annotations: annoIDs,
				Match:       parts.Match,
				Before:      parts.Before,
				After:       parts.After,
			})
		}
	}

	return resp, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
