package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/config"
	"github.com/kailas-cloud/iiifsearch/internal/domain/iiif"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
	logpkg "github.com/kailas-cloud/iiifsearch/internal/logger"
	"github.com/kailas-cloud/iiifsearch/internal/metrics"
	solrTransport "github.com/kailas-cloud/iiifsearch/internal/transport/solr"
	searchuc "github.com/kailas-cloud/iiifsearch/internal/usecase/search"
)

// app is the composition root shared by every subcommand.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	solr   *solrTransport.Client
	search *searchuc.Service
}

func newApp(cmd *cli.Command) (*app, error) {
	env := cmd.String("env")

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Register solr metrics explicitly (no init())
	metrics.RegisterSolrMetrics()

	solr := solrTransport.NewClient(&solrTransport.Config{
		BaseURL:    cfg.Solr.BaseURL(),
		Core:       cfg.Solr.Core,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Solr.TimeoutSec) * time.Second},
		Logger:     logger,
	})

	return &app{
		env:    env,
		cfg:    cfg,
		logger: logger,
		solr:   solr,
		search: searchuc.New(solr, ident.Random{}, endpoints(cfg)),
	}, nil
}

func endpoints(cfg config.Config) iiif.Endpoints {
	return iiif.Endpoints{
		ManifestServerURL:   cfg.IIIF.ManifestServerURL,
		ManifestSearchURL:   cfg.IIIF.ManifestSearchURL,
		CollectionSearchURL: cfg.IIIF.CollectionSearchURL,
		ImageServerURL:      cfg.IIIF.ImageServerURL,
		DefaultRows:         cfg.Solr.MaxRows,
	}
}
