package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/config"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
	logpkg "github.com/kailas-cloud/iiifsearch/internal/logger"
	chiTransport "github.com/kailas-cloud/iiifsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/iiifsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/iiifsearch/internal/usecase/search"
)

// --- Mocks ---

type stubEngine struct{}

func (stubEngine) Select(_ context.Context, _ url.Values) ([]byte, error) {
	return []byte(`{"response": {"docs": []}, "ocrHighlighting": {}}`), nil
}

func (stubEngine) Ping(_ context.Context) error { return nil }

func testRouter() http.Handler {
	cfg := config.Config{
		Solr: config.SolrConfig{MaxRows: 100},
		IIIF: config.IIIFConfig{
			ManifestServerURL:   "https://iiif.example.org/manifest",
			ManifestSearchURL:   "https://iiif.example.org/search/manifest",
			CollectionSearchURL: "https://iiif.example.org/search/collection",
			ImageServerURL:      "https://images.example.org",
		},
	}
	server := chiTransport.NewServer(
		searchuc.New(stubEngine{}, ident.NewSequence("t"), endpoints(cfg)),
		healthuc.New(stubEngine{}),
		cfg.Solr.MaxRows,
		zap.NewNop(),
	)
	return newRouter(server, zap.NewNop())
}

// --- Tests ---

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/iiif/search/manifest/vol?q=x", http.NoBody)
	req.Header.Set("Origin", "https://viewer.example.org")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/iiif/search/manifest/vol", http.NoBody)
	req.Header.Set("Origin", "https://viewer.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_Gzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/iiif/search/manifest/vol?q=x", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp chiTransport.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != chiTransport.CodeInternal {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestWideEventMiddleware_ContextLogger(t *testing.T) {
	var got *zap.Logger
	h := wideEventMiddleware(zap.NewNop())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = logpkg.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if got == nil {
		t.Fatal("expected request logger in context")
	}
}

func TestEndpoints(t *testing.T) {
	ep := endpoints(config.Config{
		Solr: config.SolrConfig{MaxRows: 42},
		IIIF: config.IIIFConfig{ImageServerURL: "https://img"},
	})
	if ep.DefaultRows != 42 || ep.ImageServerURL != "https://img" {
		t.Errorf("endpoints = %+v", ep)
	}
}
