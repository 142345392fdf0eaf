package embedding

import (
	"fmt"

	"service-hub/internal/config"
	"service-hub/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewEmbeddingService builds the provider selected by cfg.Source and wraps it
// as cache -> rate limiter -> instrumentation -> provider. A nil cache skips
// the cache layer.
func NewEmbeddingService(cfg config.EmbeddingConfig, c domain.Cache, limiter *rate.Limiter, logger *zap.Logger) (domain.EmbeddingService, error) {
	var (
		provider domain.EmbeddingService
		model    string
	)

	switch cfg.Source {
	case "openai":
		svc, err := NewOpenAIEmbeddingService(OpenAIConfig{
			APIKey:    cfg.OpenAI.APIKey,
			BaseURL:   cfg.OpenAI.BaseURL,
			Model:     cfg.OpenAI.Model,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		provider, model = svc, cfg.OpenAI.Model
	case "ollama":
		svc, err := NewOllamaEmbeddingService(cfg.Ollama.ServerURL, cfg.Ollama.Model)
		if err != nil {
			return nil, err
		}
		provider, model = svc, cfg.Ollama.Model
	default:
		return nil, fmt.Errorf("unsupported embedding source: %s", cfg.Source)
	}

	if limiter == nil {
		limiter = NewProviderLimiter(cfg.RequestsPerMinute, cfg.Burst)
	}

	var svc domain.EmbeddingService = NewInstrumentedEmbeddingService(provider, cfg.Source, model, logger)
	svc = NewRateLimitedEmbeddingService(svc, limiter)
	if c != nil {
		svc = NewCachedEmbeddingService(svc, c, model, cfg.CacheTTL, logger)
	}
	return svc, nil
}
