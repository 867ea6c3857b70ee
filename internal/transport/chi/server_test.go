package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/domain/iiif"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
	healthuc "github.com/kailas-cloud/iiifsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/iiifsearch/internal/usecase/search"
)

// --- Mocks ---

type mockEngine struct {
	body    []byte
	err     error
	pingErr error
	calls   int
	last    url.Values
}

func (m *mockEngine) Select(_ context.Context, params url.Values) ([]byte, error) {
	m.calls++
	m.last = params
	return m.body, m.err
}

func (m *mockEngine) Ping(_ context.Context) error { return m.pingErr }

const manifestBody = `{
  "response": {"docs": [{"id": "p1", "source": "vol", "image_url": "vol/p1.jp2"}]},
  "ocrHighlighting": {"p1": {"ocr_text": {"numTotal": 1, "snippets": [
    {"text": "by the <em>river</em>", "highlights": [[{"ulx": 10, "uly": 20, "lrx": 50, "lry": 40, "text": "river"}]]}
  ]}}}
}`

const collectionBody = `{
  "grouped": {"source": {"matches": 5, "ngroups": 5, "doclist": {"docs": [
    {"id": "vol_1", "source": "vol", "image_url": "vol/1.jp2", "manifest_path": "https://m/vol", "manifest_label": "Vol"}
  ]}}},
  "ocrHighlighting": {"vol_1": {"ocr_text": {"numTotal": 1, "snippets": [
    {"text": "<em>river</em>", "highlights": [[{"ulx": 1, "uly": 1, "lrx": 2, "lry": 2}]]}
  ]}}}
}`

func newTestRouter(eng *mockEngine) http.Handler {
	endpoints := iiif.Endpoints{
		ManifestServerURL:   "https://iiif.example.org/manifest",
		ManifestSearchURL:   "https://iiif.example.org/search/manifest",
		CollectionSearchURL: "https://iiif.example.org/search/collection",
		ImageServerURL:      "https://images.example.org",
		DefaultRows:         100,
	}
	s := NewServer(
		searchuc.New(eng, ident.NewSequence("t"), endpoints),
		healthuc.New(eng),
		100,
		zap.NewNop(),
	)
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

// --- Tests ---

func TestSearchManifest_OK(t *testing.T) {
	eng := &mockEngine{body: []byte(manifestBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/manifest/vol?q=river&motivation=painting")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp iiif.ManifestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "sc:AnnotationList" {
		t.Errorf("@type = %q", resp.Type)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].Match != "river" || resp.Hits[0].Before != "by the " {
		t.Errorf("hits = %+v", resp.Hits)
	}
	if len(resp.Within.Ignored) != 1 || resp.Within.Ignored[0] != "motivation" {
		t.Errorf("ignored = %v", resp.Within.Ignored)
	}
}

func TestSearchManifest_LastQueryValueWins(t *testing.T) {
	eng := &mockEngine{body: []byte(manifestBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/manifest/vol?q=a&q=b")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := eng.last.Get("q"); got != "b" {
		t.Errorf("engine q = %q, want b", got)
	}
	var resp iiif.ManifestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(resp.ID, "?q=b") {
		t.Errorf("@id = %q", resp.ID)
	}
}

func TestSearchManifest_MissingQuery(t *testing.T) {
	eng := &mockEngine{body: []byte(manifestBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/manifest/vol")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != CodeInvalidParameter || resp.Parameter != "q" {
		t.Errorf("error = %+v", resp)
	}
	if eng.calls != 0 {
		t.Errorf("engine should not be called")
	}
}

func TestSearchManifest_MalformedEscape(t *testing.T) {
	rec := do(t, newTestRouter(&mockEngine{}), "/iiif/search/manifest/vol?q=%zz")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSearchManifest_BackendError(t *testing.T) {
	eng := &mockEngine{err: domain.NewBackendError("http://solr:8983/solr/ocr/select?q=secret", 500, nil)}
	rec := do(t, newTestRouter(eng), "/iiif/search/manifest/vol?q=x")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != CodeSearchBackend {
		t.Errorf("code = %q", resp.Code)
	}
	if strings.Contains(resp.Message, "solr:8983") {
		t.Errorf("message leaks backend URL: %q", resp.Message)
	}
}

func TestSearchManifest_MalformedSnippet(t *testing.T) {
	body := strings.Replace(manifestBody, "<em>river</em>", "river", 1)
	rec := do(t, newTestRouter(&mockEngine{body: []byte(body)}), "/iiif/search/manifest/vol?q=x")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeMalformedSnippet {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestSearchManifest_Pretty(t *testing.T) {
	eng := &mockEngine{body: []byte(manifestBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/manifest/vol?q=river&pretty")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "\n  \"@id\"") {
		t.Errorf("expected indented output, got %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"pretty"`) {
		t.Error("pretty should be reported as ignored")
	}
}

func TestSearchCollection_OK(t *testing.T) {
	eng := &mockEngine{body: []byte(collectionBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol?q=river&page=1&rows=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := eng.last.Get("start"); got != "2" {
		t.Errorf("engine start = %q, want 2", got)
	}
	var resp iiif.CollectionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	base := "https://iiif.example.org/search/collection/vol?q=river"
	if resp.ID != base+"&page=1&rows=2" {
		t.Errorf("id = %q", resp.ID)
	}
	if resp.Prev == nil || resp.Next == nil {
		t.Fatalf("prev=%v next=%v, want both", resp.Prev, resp.Next)
	}
	if len(resp.Items) != 1 {
		t.Errorf("items = %d", len(resp.Items))
	}
}

func TestSearchCollection_NoHTMLEscaping(t *testing.T) {
	eng := &mockEngine{body: []byte(collectionBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol?q=river&page=1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{`"value":"<em>river</em>"`, `?q=river&page=1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
	for _, escaped := range []string{`\u003c`, `\u0026`} {
		if strings.Contains(body, escaped) {
			t.Errorf("body contains %s: %s", escaped, body)
		}
	}
}

func TestSearchCollection_PageOverflow(t *testing.T) {
	eng := &mockEngine{body: []byte(collectionBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol?q=river&page=9223372036854775807&rows=100")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if resp := decodeError(t, rec); resp.Parameter != "page" {
		t.Errorf("parameter = %q", resp.Parameter)
	}
	if eng.calls != 0 {
		t.Errorf("engine called %d times", eng.calls)
	}
}

func TestSearchCollection_ZeroRows(t *testing.T) {
	eng := &mockEngine{body: []byte(collectionBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol?q=river&rows=0")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Parameter != "rows" {
		t.Errorf("parameter = %q", resp.Parameter)
	}
}

func TestSearchCollection_RowsClamped(t *testing.T) {
	eng := &mockEngine{body: []byte(collectionBody)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol?q=river&rows=100000")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := eng.last.Get("rows"); got != "100" {
		t.Errorf("engine rows = %q, want 100", got)
	}
}

func TestSearchCollectionRaw_PassThrough(t *testing.T) {
	body := `{"grouped":{"source":{"ngroups":0}},"extra":"kept"}`
	eng := &mockEngine{body: []byte(body)}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol/raw?q=river")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != body {
		t.Errorf("body = %s", rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSearchCollectionRaw_BackendError(t *testing.T) {
	eng := &mockEngine{err: domain.NewBackendError("http://solr/select", 0, errors.New("refused"))}
	rec := do(t, newTestRouter(eng), "/iiif/search/collection/vol/raw?q=river")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"degraded", errors.New("down"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&mockEngine{pingErr: tt.pingErr}), "/health")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(&mockEngine{}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSafeDomainMessage(t *testing.T) {
	if got := safeDomainMessage(errors.New("dial tcp 10.0.0.1:8983")); got != "internal error" {
		t.Errorf("got %q", got)
	}
	if got := safeDomainMessage(domain.NewBackendError("http://x", 503, nil)); got != domain.ErrSearchBackend.Error() {
		t.Errorf("got %q", got)
	}
}
