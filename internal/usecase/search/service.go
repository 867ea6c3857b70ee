package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
	"github.com/kailas-cloud/iiifsearch/internal/domain/iiif"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/highlight"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/query"
	"github.com/kailas-cloud/iiifsearch/internal/domain/search/request"
	"github.com/kailas-cloud/iiifsearch/internal/ident"
	logpkg "github.com/kailas-cloud/iiifsearch/internal/logger"
	"github.com/kailas-cloud/iiifsearch/internal/metrics"
)

// Service answers IIIF search requests with exactly one engine call each.
type Service struct {
	engine    Engine
	ids       ident.Generator
	endpoints iiif.Endpoints
}

// New creates a search service.
func New(engine Engine, ids ident.Generator, endpoints iiif.Endpoints) *Service {
	return &Service{engine: engine, ids: ids, endpoints: endpoints}
}

// Manifest searches one manifest and builds a Search-1 AnnotationList.
func (s *Service) Manifest(ctx context.Context, req *request.Request) (iiif.ManifestResponse, error) {
	if req.Mode() != mode.Manifest {
		return iiif.ManifestResponse{}, fmt.Errorf("manifest search called with %s request", req.Mode())
	}
	log := requestLogger(ctx, req)

	body, err := s.selectRaw(ctx, query.Manifest(req.Query(), req.DocumentID()))
	if err != nil {
		return iiif.ManifestResponse{}, err
	}
	resp, err := decode(body)
	if err != nil {
		log.Error("undecodable search response", zap.Error(err))
		return iiif.ManifestResponse{}, err
	}

	result := highlight.Normalize(resp)
	for _, id := range result.Skipped {
		log.Warn("skipping highlighted document",
			zap.String("highlighted_id", id),
			zap.Error(domain.ErrMissingDocumentMetadata),
		)
	}
	metrics.SearchSkippedDocumentsTotal.WithLabelValues(string(mode.Manifest)).Add(float64(len(result.Skipped)))

	out, err := iiif.BuildManifest(s.endpoints, iiif.ManifestInput{
		DocumentID: req.DocumentID(),
		Query:      req.Query(),
		Ignored:    req.Ignored(),
		Result:     result,
	}, s.ids)
	if err != nil {
		log.Error("cannot build manifest response", zap.Error(err))
		return iiif.ManifestResponse{}, fmt.Errorf("build manifest response: %w", err)
	}
	return out, nil
}

// Collection searches a collection prefix and builds one Search-2 AnnotationPage.
func (s *Service) Collection(ctx context.Context, req *request.Request) (iiif.CollectionResponse, error) {
	log := requestLogger(ctx, req)

	body, err := s.CollectionRaw(ctx, req)
	if err != nil {
		return iiif.CollectionResponse{}, err
	}
	resp, err := decode(body)
	if err != nil {
		log.Error("undecodable search response", zap.Error(err))
		return iiif.CollectionResponse{}, err
	}

	res, err := iiif.BuildCollection(s.endpoints, iiif.CollectionInput{
		DocumentID: req.DocumentID(),
		Query:      req.Query(),
		Ignored:    req.Ignored(),
		Page:       req.Page(),
		Rows:       req.Rows(),
		Response:   resp,
	}, s.ids)
	if err != nil {
		log.Error("cannot build collection response", zap.Error(err))
		return iiif.CollectionResponse{}, fmt.Errorf("build collection response: %w", err)
	}
	for _, id := range res.Skipped {
		log.Warn("skipping grouped document without highlight box", zap.String("grouped_id", id))
	}
	metrics.SearchSkippedDocumentsTotal.WithLabelValues(string(mode.Collection)).Add(float64(len(res.Skipped)))

	return res.Page, nil
}

// CollectionRaw runs the collection query and returns the engine body unmodified.
func (s *Service) CollectionRaw(ctx context.Context, req *request.Request) ([]byte, error) {
	if req.Mode() != mode.Collection {
		return nil, fmt.Errorf("collection search called with %s request", req.Mode())
	}
	return s.selectRaw(ctx, query.Collection(req.Query(), req.DocumentID(), req.Rows(), req.Page()))
}

func (s *Service) selectRaw(ctx context.Context, p query.Params) ([]byte, error) {
	vals, err := p.Values()
	if err != nil {
		return nil, err
	}
	body, err := s.engine.Select(ctx, vals)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return body, nil
}

func decode(body []byte) (highlight.Response, error) {
	resp, err := highlight.Decode(body)
	if err != nil {
		return highlight.Response{}, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
	}
	return resp, nil
}

func requestLogger(ctx context.Context, req *request.Request) *zap.Logger {
	return logpkg.FromContext(ctx).With(
		zap.String("mode", string(req.Mode())),
		zap.String("document_id", req.DocumentID()),
		zap.String("query", req.Query()),
	)
}
