package iiifsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/domain/search/request"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
	solrTransport "github.com/kailas-cloud/iiifsearch/internal/transport/solr"
	healthuc "github.com/kailas-cloud/iiifsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/iiifsearch/internal/usecase/search"
)

const (
	defaultMaxRows     = 100
	defaultHTTPTimeout = 30 * time.Second
)

// searchUseCase is the internal interface for searches; swapped out in tests.
type searchUseCase interface {
	Manifest(ctx context.Context, req *request.Request) (ManifestResponse, error)
	Collection(ctx context.Context, req *request.Request) (CollectionResponse, error)
	CollectionRaw(ctx context.Context, req *request.Request) ([]byte, error)
}

// Client is the iiifsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	maxRows   int
	obs       *observer
}

// New creates a Client. WithSolr is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{maxRows: defaultMaxRows}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.solrURL == "" || cfg.core == "" {
		return nil, errors.New("iiifsearch: solr address and core required (use WithSolr)")
	}
	if cfg.maxRows <= 0 {
		return nil, fmt.Errorf("iiifsearch: max rows must be positive, got %d", cfg.maxRows)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.endpoints.DefaultRows == 0 {
		cfg.endpoints.DefaultRows = cfg.maxRows
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	solr := solrTransport.NewClient(&solrTransport.Config{
		BaseURL:    cfg.solrURL,
		Core:       cfg.core,
		HTTPClient: cfg.httpClient,
		Logger:     zap.NewNop(),
	})

	return &Client{
		searchSvc: searchuc.New(solr, ident.Random{}, cfg.endpoints),
		healthSvc: healthuc.New(solr),
		maxRows:   cfg.maxRows,
		obs:       obs,
	}, nil
}

// SearchManifest searches the OCR text of one manifest.
func (c *Client) SearchManifest(ctx context.Context, manifestID, q string) (resp ManifestResponse, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(ctx, "search_manifest", start, err,
			slog.String("manifest_id", manifestID), slog.String("query", q))
	}()

	params, err := request.Normalize(map[string][]string{"q": {q}}, []string{"q"})
	if err != nil {
		return ManifestResponse{}, err
	}
	req, err := request.NewManifest(manifestID, params)
	if err != nil {
		return ManifestResponse{}, err
	}
	return c.searchSvc.Manifest(ctx, &req)
}

// SearchCollection searches every manifest under a collection prefix and
// returns one page of results.
func (c *Client) SearchCollection(
	ctx context.Context, prefix, q string, opts ...CollectionOption,
) (resp CollectionResponse, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(ctx, "search_collection", start, err,
			slog.String("collection_id", prefix), slog.String("query", q))
	}()

	req, err := c.collectionRequest(prefix, q, opts)
	if err != nil {
		return CollectionResponse{}, err
	}
	return c.searchSvc.Collection(ctx, &req)
}

// SearchCollectionRaw runs a collection search and returns the Solr body unmodified.
func (c *Client) SearchCollectionRaw(
	ctx context.Context, prefix, q string, opts ...CollectionOption,
) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(ctx, "search_collection_raw", start, err,
			slog.String("collection_id", prefix), slog.String("query", q))
	}()

	req, err := c.collectionRequest(prefix, q, opts)
	if err != nil {
		return nil, err
	}
	return c.searchSvc.CollectionRaw(ctx, &req)
}

func (c *Client) collectionRequest(prefix, q string, opts []CollectionOption) (request.Request, error) {
	var cq collectionQuery
	for _, o := range opts {
		o(&cq)
	}

	values := map[string][]string{"q": {q}}
	order := []string{"q"}
	if cq.page != nil {
		values["page"] = []string{strconv.Itoa(*cq.page)}
		order = append(order, "page")
	}
	if cq.rows != nil {
		values["rows"] = []string{strconv.Itoa(*cq.rows)}
		order = append(order, "rows")
	}

	params, err := request.Normalize(values, order)
	if err != nil {
		return request.Request{}, err
	}
	return request.NewCollection(prefix, params, c.maxRows)
}
