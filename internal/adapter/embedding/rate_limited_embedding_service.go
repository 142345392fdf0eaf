package embedding

import (
	"context"
	"fmt"
	"time"

	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"golang.org/x/time/rate"
)

// NewProviderLimiter returns the token bucket shared by every caller of the
// embedding provider in this process.
func NewProviderLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

// RateLimitedEmbeddingService makes every provider call take a token first.
// Interactive requests and the backfill job share one limiter, so together
// they stay under the account quota.
type RateLimitedEmbeddingService struct {
	next    domain.EmbeddingService
	limiter *rate.Limiter
}

func NewRateLimitedEmbeddingService(next domain.EmbeddingService, limiter *rate.Limiter) *RateLimitedEmbeddingService {
	return &RateLimitedEmbeddingService{next: next, limiter: limiter}
}

// Generate blocks for a token. If the context ends, or its deadline is too
// close for a token to arrive, the call fails with ErrRateLimitExceeded
// without reaching the provider.
func (s *RateLimitedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for embedding quota: %w: %v", domain.ErrRateLimitExceeded, err)
	}
	metrics.EmbeddingRateLimitWait.Observe(time.Since(start).Seconds())
	return s.next.Generate(ctx, text)
}
