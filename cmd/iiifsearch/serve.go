package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/tracing"
	chiTransport "github.com/kailas-cloud/iiifsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/iiifsearch/internal/usecase/health"
	"github.com/kailas-cloud/iiifsearch/internal/version"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP search API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if !a.cfg.HasService("web") {
		return errors.New("no web service configured")
	}

	a.logger.Info("Starting iiifsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.String("solr", a.cfg.Solr.BaseURL()),
		zap.String("solr_core", a.cfg.Solr.Core),
		zap.Int("max_rows", a.cfg.Solr.MaxRows),
	)

	shutdownTracing, err := tracing.Init("iiifsearch", version.Version, a.cfg.Tracing.SampleRatio)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Solr being down is not fatal: /health reports it and searches answer 502.
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := a.solr.Ping(pingCtx); err != nil {
		a.logger.Warn("Solr not reachable at startup", zap.Error(err))
	} else {
		a.logger.Info("Connected to Solr")
	}
	cancelPing()

	server := chiTransport.NewServer(a.search, healthuc.New(a.solr), a.cfg.Solr.MaxRows, a.logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(server, a.logger),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("Error flushing traces", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
