package embedding

import (
	"context"
	"errors"
	"time"

	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"go.uber.org/zap"
)

// InstrumentedEmbeddingService records provider call metrics and logs failures.
type InstrumentedEmbeddingService struct {
	next     domain.EmbeddingService
	provider string
	model    string
	logger   *zap.Logger
}

func NewInstrumentedEmbeddingService(next domain.EmbeddingService, provider, model string, logger *zap.Logger) *InstrumentedEmbeddingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbeddingService{next: next, provider: provider, model: model, logger: logger}
}

func (s *InstrumentedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := s.next.Generate(ctx, text)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(s.provider, s.model, errorType(err)).Inc()
		s.logger.Warn("embedding request failed",
			zap.String("provider", s.provider),
			zap.String("model", s.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())
	s.logger.Debug("embedding request completed",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrDailyQuotaExceeded):
		return "daily_quota"
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return "rate_limit"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "provider_error"
	}
}
