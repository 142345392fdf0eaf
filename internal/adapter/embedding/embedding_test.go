package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"service-hub/internal/cache"
	"service-hub/internal/config"
	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MockEmbedder is a mock type for the langchaingo embeddings.Embedder interface
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// countingEmbedder is a hand-rolled domain.EmbeddingService that counts calls.
type countingEmbedder struct {
	calls atomic.Int32
	vec   []float32
	err   error
	delay time.Duration
}

func (c *countingEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func TestNewOllamaEmbeddingService(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		_, err := NewOllamaEmbeddingService("http://localhost:11434", "nomic-embed-text")
		assert.NoError(t, err)
	})

	t.Run("empty server URL", func(t *testing.T) {
		_, err := NewOllamaEmbeddingService("", "nomic-embed-text")
		assert.ErrorContains(t, err, "ollama server URL cannot be empty")
	})

	t.Run("empty model name", func(t *testing.T) {
		_, err := NewOllamaEmbeddingService("http://localhost:11434", "")
		assert.ErrorContains(t, err, "ollama model name cannot be empty")
	})
}

func TestOllamaEmbeddingService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		service := &OllamaEmbeddingService{embedder: mockEmb}
		expected := []float32{0.1, 0.2, 0.3}
		mockEmb.On("EmbedQuery", ctx, "test text").Return(expected, nil).Once()

		result, err := service.Generate(ctx, "test text")
		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		mockEmb.AssertExpectations(t)
	})

	t.Run("empty text", func(t *testing.T) {
		service := &OllamaEmbeddingService{embedder: new(MockEmbedder)}
		_, err := service.Generate(ctx, "")
		assert.ErrorIs(t, err, domain.ErrEmbeddingGenerationFailed)
	})

	t.Run("embedder error", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		service := &OllamaEmbeddingService{embedder: mockEmb}
		cause := errors.New("connection refused")
		mockEmb.On("EmbedQuery", ctx, "test text").Return(nil, cause).Once()

		_, err := service.Generate(ctx, "test text")
		assert.ErrorIs(t, err, domain.ErrEmbeddingGenerationFailed)
		assert.ErrorIs(t, err, cause)
		mockEmb.AssertExpectations(t)
	})
}

func TestCachedEmbeddingService(t *testing.T) {
	ctx := context.Background()
	text := "Plumbing repair services"
	key := cache.EmbeddingKey("test-model", text)

	t.Run("miss populates cache and hit skips provider", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{1, 2, 3}}
		mc := new(MockCache)

		var stored string
		mc.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()
		mc.On("Set", mock.Anything, key, mock.AnythingOfType("string"), time.Hour).
			Run(func(args mock.Arguments) { stored = args.String(2) }).
			Return(nil).Once()

		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())
		vec, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vec)
		require.NotEmpty(t, stored)

		mc.On("Get", ctx, key).Return(stored, nil).Once()
		vec, err = svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vec)
		assert.Equal(t, int32(1), inner.calls.Load())
		mc.AssertExpectations(t)
	})

	t.Run("corrupt entry falls through to provider", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{4, 5}}
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return("not gob", nil).Once()
		mc.On("Set", mock.Anything, key, mock.Anything, defaultEmbeddingTTL).Return(nil).Once()

		svc := NewCachedEmbeddingService(inner, mc, "test-model", 0, nil)
		vec, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, []float32{4, 5}, vec)
		mc.AssertExpectations(t)
	})

	t.Run("cache outage does not fail generation", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{7}}
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return("", errors.New("redis down")).Once()
		mc.On("Set", mock.Anything, key, mock.Anything, time.Hour).Return(errors.New("redis down")).Once()

		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())
		vec, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, []float32{7}, vec)
	})

	t.Run("provider errors are not cached", func(t *testing.T) {
		inner := &countingEmbedder{err: domain.ErrRateLimitExceeded}
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()

		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())
		_, err := svc.Generate(ctx, text)
		assert.ErrorIs(t, err, domain.ErrRateLimitExceeded)
		mc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent misses share one provider call", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{1}, delay: 200 * time.Millisecond}
		mc := new(MockCache)
		mc.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
		mc.On("Set", mock.Anything, key, mock.Anything, time.Hour).Return(nil)

		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Generate(ctx, text)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), inner.calls.Load())
	})

	t.Run("initiator cancelling does not fail joined callers", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{9}, delay: 300 * time.Millisecond}
		mc := new(MockCache)
		mc.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
		mc.On("Set", mock.Anything, key, mock.Anything, time.Hour).Return(nil)
		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := svc.Generate(firstCtx, text)
			firstErr <- err
		}()
		time.Sleep(50 * time.Millisecond)

		secondVec := make(chan []float32, 1)
		go func() {
			vec, err := svc.Generate(ctx, text)
			assert.NoError(t, err)
			secondVec <- vec
		}()
		time.Sleep(50 * time.Millisecond)
		cancelFirst()

		assert.ErrorIs(t, <-firstErr, context.Canceled)
		assert.Equal(t, []float32{9}, <-secondVec)
		assert.Equal(t, int32(1), inner.calls.Load())
	})

	t.Run("initiator deadline still bounds the shared call", func(t *testing.T) {
		inner := &countingEmbedder{vec: []float32{9}, delay: time.Second}
		mc := new(MockCache)
		mc.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
		svc := NewCachedEmbeddingService(inner, mc, "test-model", time.Hour, zap.NewNop())

		shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := svc.Generate(shortCtx, text)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestRateLimitedEmbeddingService(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	limiter := NewProviderLimiter(1, 1) // one token per minute
	svc := NewRateLimitedEmbeddingService(inner, limiter)

	_, err := svc.Generate(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = svc.Generate(ctx, "second")
	assert.ErrorIs(t, err, domain.ErrRateLimitExceeded)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRateLimitedEmbeddingService_SharedAcrossCallers(t *testing.T) {
	limiter := NewProviderLimiter(1, 1)
	interactive := NewRateLimitedEmbeddingService(&countingEmbedder{vec: []float32{1}}, limiter)
	backfill := NewRateLimitedEmbeddingService(&countingEmbedder{vec: []float32{1}}, limiter)

	_, err := interactive.Generate(context.Background(), "request text")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = backfill.Generate(ctx, "service text")
	assert.ErrorIs(t, err, domain.ErrRateLimitExceeded)
}

func TestNewProviderLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewProviderLimiter(0, 1).Limit())
	assert.Equal(t, 1, NewProviderLimiter(15, 0).Burst())
	assert.InDelta(t, 0.25, float64(NewProviderLimiter(15, 1).Limit()), 1e-9)
}

func TestInstrumentedEmbeddingService(t *testing.T) {
	ctx := context.Background()

	ok := NewInstrumentedEmbeddingService(&countingEmbedder{vec: []float32{1}}, "unit", "ok-model", zap.NewNop())
	_, err := ok.Generate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues("unit", "ok-model", "success")))

	failing := NewInstrumentedEmbeddingService(&countingEmbedder{err: domain.ErrDailyQuotaExceeded}, "unit", "quota-model", nil)
	_, err = failing.Generate(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrDailyQuotaExceeded)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EmbeddingErrorsTotal.WithLabelValues("unit", "quota-model", "daily_quota")))
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "rate_limit", errorType(domain.ErrRateLimitExceeded))
	assert.Equal(t, "daily_quota", errorType(domain.ErrDailyQuotaExceeded))
	assert.Equal(t, "timeout", errorType(context.DeadlineExceeded))
	assert.Equal(t, "provider_error", errorType(domain.ErrEmbeddingGenerationFailed))
}

func TestNewEmbeddingService(t *testing.T) {
	cfg := config.EmbeddingConfig{
		Source:            "ollama",
		Dimension:         768,
		RequestsPerMinute: 15,
		Burst:             1,
		Ollama:            config.OllamaConfig{ServerURL: "http://localhost:11434", Model: "nomic-embed-text"},
	}

	svc, err := NewEmbeddingService(cfg, new(MockCache), nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CachedEmbeddingService{}, svc)

	svc, err = NewEmbeddingService(cfg, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedEmbeddingService{}, svc)

	cfg.Source = "unknown"
	_, err = NewEmbeddingService(cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)

	cfg.Source = "openai"
	_, err = NewEmbeddingService(cfg, nil, nil, zap.NewNop())
	assert.ErrorContains(t, err, "API key")
}
