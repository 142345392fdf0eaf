package service

import (
	"context"
	"strings"
	"time"

	"service-hub/internal/config"
	"service-hub/internal/domain"
	"service-hub/internal/dto"
	"service-hub/internal/metrics"
	"service-hub/internal/util"

	"go.uber.org/zap"
)

const (
	requestSummaryLength = 200

	// defaultEmbedTimeout bounds embedding work inside a request. A caller
	// that would wait longer for a limiter token fails with ErrRateLimitExceeded.
	defaultEmbedTimeout = 5 * time.Second
)

// SearchService defines the similarity search operations exposed to callers.
type SearchService interface {
	SearchServices(ctx context.Context, req *dto.SearchServicesRequest) (*dto.ServiceMatchListResponse, error)
	FindSimilarServices(ctx context.Context, serviceID string, limit int) (*dto.ServiceMatchListResponse, error)
	FindMatchingServices(ctx context.Context, requestID, callerID string, limit int) (*dto.ServiceMatchListResponse, error)
	ScoreRequestForService(ctx context.Context, serviceID, requestID, callerID string) (*dto.RequestMatchResponse, error)
}

// RequestMatcher ranks active services against a stored service request.
type RequestMatcher interface {
	MatchRequest(ctx context.Context, requestID string, limit int) (*domain.ServiceRequest, *domain.MatchPage, error)
}

type searchService struct {
	services     domain.ServiceRepository
	requests     domain.ServiceRequestRepository
	embedder     domain.EmbeddingService
	store        EmbeddingStore
	cfg          config.SearchConfig
	dimension    int
	embedTimeout time.Duration
	logger       *zap.Logger
}

// SearchEngine is the search service together with the request matcher used
// by the fan-out.
type SearchEngine interface {
	SearchService
	RequestMatcher
}

// NewSearchService creates a new SearchEngine.
func NewSearchService(
	services domain.ServiceRepository,
	requests domain.ServiceRequestRepository,
	embedder domain.EmbeddingService,
	store EmbeddingStore,
	cfg config.SearchConfig,
	dimension int,
	embedTimeout time.Duration,
	logger *zap.Logger,
) SearchEngine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if dimension <= 0 {
		dimension = domain.DefaultEmbeddingDimension
	}
	if embedTimeout <= 0 {
		embedTimeout = defaultEmbedTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &searchService{
		services:     services,
		requests:     requests,
		embedder:     embedder,
		store:        store,
		cfg:          cfg,
		dimension:    dimension,
		embedTimeout: embedTimeout,
		logger:       logger,
	}
}

// ensureVector runs lazy regeneration under the interactive embedding deadline.
func (s *searchService) ensureVector(ctx context.Context, kind domain.EntityKind, id string, current domain.EntityEmbeddings, text domain.EmbeddableText) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	return s.store.EnsureCombinedVector(ctx, kind, id, current, text)
}

func (s *searchService) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// SearchServices ranks active services against free text.
func (s *searchService) SearchServices(ctx context.Context, req *dto.SearchServicesRequest) (*dto.ServiceMatchListResponse, error) {
	query := strings.TrimSpace(req.Query)

	var verrs domain.ValidationErrors
	if query == "" {
		verrs = append(verrs, domain.NewMissingFieldError("q"))
	}
	threshold := s.cfg.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold < 0 || threshold > 1 {
			verrs = append(verrs, domain.NewOutOfRangeError("threshold", threshold, 0, 1))
		}
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		verrs = append(verrs, domain.NewOutOfRangeError("min_price", *req.MinPrice, 0, *req.MaxPrice))
	}
	if req.Offset < 0 {
		verrs = append(verrs, domain.NewOutOfRangeError("offset", req.Offset, 0, "unbounded"))
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	limit := s.normalizeLimit(req.Limit)

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	vector, err := s.embedder.Generate(embedCtx, query)
	cancel()
	if err == nil {
		err = domain.ValidateVector(vector, s.dimension)
	}
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("text", "error").Inc()
		s.logger.Error("Failed to embed search query", zap.Error(err))
		return nil, domain.NewEmbeddingError(err)
	}

	page, err := s.services.SearchServices(ctx, domain.SimilarityQuery{
		Vector: vector,
		Filters: domain.SearchFilters{
			CategoryID: req.CategoryID,
			ProviderID: req.ProviderID,
			MinPrice:   req.MinPrice,
			MaxPrice:   req.MaxPrice,
			ActiveOnly: true,
		},
		MinSimilarity: &threshold,
		Limit:         limit,
		Offset:        req.Offset,
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("text", "error").Inc()
		return nil, domain.NewInternalError("Failed to search services", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues("text", "success").Inc()
	metrics.SearchResultsReturned.WithLabelValues("text").Observe(float64(len(page.Matches)))
	return toServiceMatchList(page, limit, req.Offset), nil
}

// FindSimilarServices ranks active services against a stored service, never
// returning the service itself.
func (s *searchService) FindSimilarServices(ctx context.Context, serviceID string, limit int) (*dto.ServiceMatchListResponse, error) {
	source, err := s.services.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service", err)
	}
	if source == nil {
		return nil, domain.NewServiceNotFoundError(serviceID)
	}

	vector, err := s.ensureVector(ctx, domain.EntityKindService, source.ID, source.Embeddings, source.Text())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("similar", "error").Inc()
		return nil, domain.NewEmbeddingError(err)
	}

	limit = s.normalizeLimit(limit)
	page, err := s.services.SearchServices(ctx, domain.SimilarityQuery{
		Vector:    vector,
		Filters:   domain.SearchFilters{ActiveOnly: true},
		ExcludeID: source.ID,
		Limit:     limit,
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("similar", "error").Inc()
		return nil, domain.NewInternalError("Failed to find similar services", err)
	}
	page.Matches = withoutService(page.Matches, source.ID)

	metrics.SearchRequestsTotal.WithLabelValues("similar", "success").Inc()
	metrics.SearchResultsReturned.WithLabelValues("similar").Observe(float64(len(page.Matches)))
	return toServiceMatchList(page, limit, 0), nil
}

// MatchRequest loads a request, regenerating its combined vector when absent,
// and ranks active services against it.
func (s *searchService) MatchRequest(ctx context.Context, requestID string, limit int) (*domain.ServiceRequest, *domain.MatchPage, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.matchLoadedRequest(ctx, req, limit)
	if err != nil {
		return nil, nil, err
	}
	return req, page, nil
}

// FindMatchingServices is MatchRequest restricted to the request's owner.
func (s *searchService) FindMatchingServices(ctx context.Context, requestID, callerID string, limit int) (*dto.ServiceMatchListResponse, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != callerID {
		return nil, domain.NewForbiddenError("Only the request owner can view its matches")
	}

	if limit <= 0 {
		limit = domain.FanOutTopN
	}
	limit = s.normalizeLimit(limit)
	page, err := s.matchLoadedRequest(ctx, req, limit)
	if err != nil {
		return nil, err
	}
	return toServiceMatchList(page, limit, 0), nil
}

func (s *searchService) loadRequest(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	req, err := s.requests.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service request", err)
	}
	if req == nil {
		return nil, domain.NewRequestNotFoundError(requestID)
	}
	return req, nil
}

func (s *searchService) matchLoadedRequest(ctx context.Context, req *domain.ServiceRequest, limit int) (*domain.MatchPage, error) {
	if limit <= 0 {
		limit = domain.FanOutTopN
	}

	vector, err := s.ensureVector(ctx, domain.EntityKindServiceRequest, req.ID, req.Embeddings, req.Text())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("request", "error").Inc()
		return nil, domain.NewEmbeddingError(err)
	}
	req.Embeddings.CombinedVector = vector

	page, err := s.services.SearchServices(ctx, domain.SimilarityQuery{
		Vector:  vector,
		Filters: domain.SearchFilters{ActiveOnly: true},
		Limit:   limit,
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("request", "error").Inc()
		return nil, domain.NewInternalError("Failed to match services", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues("request", "success").Inc()
	metrics.SearchResultsReturned.WithLabelValues("request").Observe(float64(len(page.Matches)))
	return page, nil
}

// ScoreRequestForService is the provider view: how well a request fits one of
// the caller's services.
func (s *searchService) ScoreRequestForService(ctx context.Context, serviceID, requestID, callerID string) (*dto.RequestMatchResponse, error) {
	svc, err := s.services.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service", err)
	}
	if svc == nil {
		return nil, domain.NewServiceNotFoundError(serviceID)
	}
	if svc.ProviderID != callerID {
		return nil, domain.NewForbiddenError("Only the service owner can inspect request matches")
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	serviceVector, err := s.ensureVector(ctx, domain.EntityKindService, svc.ID, svc.Embeddings, svc.Text())
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}
	requestVector, err := s.ensureVector(ctx, domain.EntityKindServiceRequest, req.ID, req.Embeddings, req.Text())
	if err != nil {
		return nil, domain.NewEmbeddingError(err)
	}

	similarity, err := util.CosineSimilarity(requestVector, serviceVector)
	if err != nil {
		return nil, domain.NewInternalError("Failed to score request", err)
	}

	match := domain.RequestMatch{Request: req, ServiceID: svc.ID, Similarity: similarity}
	return toRequestMatchResponse(match), nil
}

func withoutService(matches []domain.ServiceMatch, id string) []domain.ServiceMatch {
	out := matches[:0]
	for _, m := range matches {
		if m.Service != nil && m.Service.ID == id {
			continue
		}
		out = append(out, m)
	}
	return out
}
