package iiifsearch

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	solrURL    string
	core       string
	httpClient *http.Client

	endpoints Endpoints
	maxRows   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSolr sets the Solr server (scheme://host:port) and core to query.
func WithSolr(baseURL, core string) Option {
	return optionFunc(func(c *clientConfig) {
		c.solrURL = baseURL
		c.core = core
	})
}

// WithHTTPClient sets the HTTP client used for Solr requests.
// Defaults to a client with a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithEndpoints sets the public URLs embedded in responses.
func WithEndpoints(ep Endpoints) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoints = ep
	})
}

// WithMaxRows caps the collection page size; it is also the default page size.
// Default: 100.
func WithMaxRows(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRows = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// CollectionOption tunes a single collection search.
type CollectionOption func(*collectionQuery)

type collectionQuery struct {
	page *int
	rows *int
}

// Page selects the zero-based result page.
func Page(n int) CollectionOption {
	return func(q *collectionQuery) { q.page = &n }
}

// Rows sets the page size. Values above the configured maximum are clamped.
func Rows(n int) CollectionOption {
	return func(q *collectionQuery) { q.rows = &n }
}
