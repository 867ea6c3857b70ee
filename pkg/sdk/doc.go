// Package iiifsearch embeds the IIIF full-text search engine in a Go program.
//
// It talks to a Solr core with the OCR highlighting plugin directly, without
// going through the HTTP API, and returns the same IIIF documents the server
// produces.
//
//	client, _ := iiifsearch.New(
//	    iiifsearch.WithSolr("http://localhost:8983", "iiif"),
//	    iiifsearch.WithEndpoints(iiifsearch.Endpoints{
//	        ManifestServerURL:   "https://iiif.example.org/manifest",
//	        ManifestSearchURL:   "https://iiif.example.org/iiif/search/manifest",
//	        CollectionSearchURL: "https://iiif.example.org/iiif/search/collection",
//	        ImageServerURL:      "https://images.example.org",
//	    }),
//	)
//	list, _ := client.SearchManifest(ctx, "vol-1", "river")
//	page, _ := client.SearchCollection(ctx, "vol", "river", iiifsearch.Page(2), iiifsearch.Rows(20))
package iiifsearch
