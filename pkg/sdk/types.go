package iiifsearch

import "github.com/kailas-cloud/iiifsearch/internal/domain/iiif"

// Endpoints are the public base URLs embedded in IIIF responses.
type Endpoints = iiif.Endpoints

// ManifestResponse is a Search API 1 sc:AnnotationList.
type ManifestResponse = iiif.ManifestResponse

// CollectionResponse is one Search API 2 AnnotationPage.
type CollectionResponse = iiif.CollectionResponse
