package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"service-hub/internal/cache"
	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultEmbeddingTTL = 168 * time.Hour

	// sharedCallTimeout bounds a coalesced provider call whose initiator had
	// no deadline.
	sharedCallTimeout = time.Minute
)

// CachedEmbeddingService serves repeated texts from the cache and collapses
// concurrent misses for the same text into one provider call.
type CachedEmbeddingService struct {
	next    domain.EmbeddingService
	cache   domain.Cache
	model   string
	ttl     time.Duration
	logger  *zap.Logger
	sfGroup singleflight.Group
}

// NewCachedEmbeddingService wraps next. model namespaces the keys so that
// switching models never serves stale vectors.
func NewCachedEmbeddingService(next domain.EmbeddingService, c domain.Cache, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbeddingService {
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbeddingService{next: next, cache: c, model: model, ttl: ttl, logger: logger}
}

func (s *CachedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	cacheKey := cache.EmbeddingKey(s.model, text)

	if vec, ok := s.lookup(ctx, cacheKey); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	ch := s.sfGroup.DoChan(cacheKey, func() (interface{}, error) {
		callCtx, cancel := sharedCallContext(ctx)
		defer cancel()
		vec, err := s.next.Generate(callCtx, text)
		if err != nil {
			return nil, err
		}
		s.store(callCtx, cacheKey, vec)
		return vec, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	vec, ok := res.Val.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight.DoChan for embedding: %T", res.Val)
	}
	return vec, nil
}

// sharedCallContext detaches a coalesced call from the cancellation of the
// caller that started it. That caller's deadline still applies, so limiter
// waits keep failing fast.
func sharedCallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithTimeout(detached, sharedCallTimeout)
}

func (s *CachedEmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("embedding cache read failed", zap.String("cache_key", key), zap.Error(err))
		}
		return nil, false
	}

	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&vec); err != nil || len(vec) == 0 {
		s.logger.Warn("discarding undecodable cached embedding", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (s *CachedEmbeddingService) store(ctx context.Context, key string, vec []float32) {
	if s.cache == nil {
		return
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		s.logger.Error("failed to gob encode embedding for caching", zap.String("cache_key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, buf.String(), s.ttl); err != nil {
		s.logger.Warn("failed to cache embedding", zap.String("cache_key", key), zap.Error(err))
	}
}
