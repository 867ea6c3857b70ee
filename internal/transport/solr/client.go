// Package solr is the HTTP client for a Solr core with the OCR highlighting plugin.
package solr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/metrics"
)

const (
	tracerName = "github.com/kailas-cloud/iiifsearch/internal/transport/solr"

	// errorBodyLimit caps how much of a failed response body is logged.
	errorBodyLimit = 512
)

// Config holds the search engine connection settings.
type Config struct {
	// BaseURL is scheme://host:port of the Solr server, without the /solr path.
	BaseURL    string
	Core       string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues select and ping requests against one Solr core.
// It never retries and never interprets the response body.
type Client struct {
	selectURL string
	pingURL   string
	core      string
	http      *http.Client
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewClient creates a Solr client.
func NewClient(cfg *Config) *Client {
	coreURL := strings.TrimRight(cfg.BaseURL, "/") + "/solr/" + url.PathEscape(cfg.Core)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		selectURL: coreURL + "/select",
		pingURL:   coreURL + "/admin/ping",
		core:      cfg.Core,
		http:      httpClient,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Select runs a query and returns the raw JSON body.
// Transport failures and non-2xx statuses are returned as *domain.BackendError.
func (c *Client) Select(ctx context.Context, params url.Values) ([]byte, error) {
	target := c.selectURL + "?" + params.Encode()
	c.logger.Debug("solr select", zap.String("url", target))
	return c.get(ctx, "select", target)
}

// Ping checks that the core answers its ping handler.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.get(ctx, "ping", c.pingURL+"?wt=json"); err != nil {
		return fmt.Errorf("ping solr: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, target string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "solr."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("solr.core", c.core),
			attribute.String("http.request.method", http.MethodGet),
		),
	)
	defer span.End()

	start := time.Now()
	body, status, err := c.do(ctx, target)
	duration := time.Since(start)

	statusLabel := strconv.Itoa(status)
	if status == 0 {
		statusLabel = "error"
	}
	metrics.SolrRequestsTotal.WithLabelValues(op, statusLabel).Inc()
	metrics.SolrRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Error("solr request failed",
			zap.String("operation", op),
			zap.String("url", target),
			zap.Duration("latency", duration),
			zap.Error(err),
		)
		return nil, domain.NewBackendError(target, 0, err)
	}

	if status < 200 || status > 299 {
		span.SetStatus(codes.Error, http.StatusText(status))
		c.logger.Error("solr returned non-2xx status",
			zap.String("operation", op),
			zap.String("url", target),
			zap.Int("status", status),
			zap.Duration("latency", duration),
			zap.String("body", truncate(body, errorBodyLimit)),
		)
		return nil, domain.NewBackendError(target, status, nil)
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
