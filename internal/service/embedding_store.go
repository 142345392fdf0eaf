package service

import (
	"context"
	"fmt"

	"service-hub/internal/domain"
	"service-hub/internal/metrics"

	"go.uber.org/zap"
)

// EmbeddingStore regenerates and persists the vectors of services and requests.
type EmbeddingStore interface {
	// Refresh generates all vectors from text and writes them in one partial update.
	Refresh(ctx context.Context, kind domain.EntityKind, id string, text domain.EmbeddableText) (domain.EntityEmbeddings, error)

	// EnsureCombinedVector returns the stored combined vector, regenerating and
	// persisting it first when it is absent.
	EnsureCombinedVector(ctx context.Context, kind domain.EntityKind, id string, current domain.EntityEmbeddings, text domain.EmbeddableText) ([]float32, error)
}

type embeddingStore struct {
	generator EmbeddingGenerator
	stores    map[domain.EntityKind]domain.EmbeddingStore
	logger    *zap.Logger
}

// NewEmbeddingStore creates an EmbeddingStore writing through the given repositories.
func NewEmbeddingStore(
	generator EmbeddingGenerator,
	services domain.EmbeddingStore,
	requests domain.EmbeddingStore,
	logger *zap.Logger,
) EmbeddingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &embeddingStore{
		generator: generator,
		stores: map[domain.EntityKind]domain.EmbeddingStore{
			domain.EntityKindService:        services,
			domain.EntityKindServiceRequest: requests,
		},
		logger: logger,
	}
}

func (s *embeddingStore) Refresh(ctx context.Context, kind domain.EntityKind, id string, text domain.EmbeddableText) (domain.EntityEmbeddings, error) {
	store, ok := s.stores[kind]
	if !ok || store == nil {
		return domain.EntityEmbeddings{}, fmt.Errorf("no embedding store for %q", kind)
	}

	embeddings, err := s.generator.GenerateServiceEmbeddings(ctx, text)
	if err != nil {
		return domain.EntityEmbeddings{}, err
	}
	if err := store.UpdateEmbeddings(ctx, id, embeddings); err != nil {
		return domain.EntityEmbeddings{}, fmt.Errorf("persist %s embeddings: %w", kind, err)
	}
	return embeddings, nil
}

func (s *embeddingStore) EnsureCombinedVector(ctx context.Context, kind domain.EntityKind, id string, current domain.EntityEmbeddings, text domain.EmbeddableText) ([]float32, error) {
	if current.HasCombined() {
		return current.CombinedVector, nil
	}

	s.logger.Info("Combined vector missing, regenerating",
		zap.String("kind", string(kind)),
		zap.String("entity_id", id),
	)
	embeddings, err := s.Refresh(ctx, kind, id, text)
	if err != nil {
		metrics.LazyRegenerationsTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.Warn("Lazy embedding regeneration failed",
			zap.String("kind", string(kind)),
			zap.String("entity_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorMissing, err)
	}
	metrics.LazyRegenerationsTotal.WithLabelValues(string(kind), "success").Inc()
	return embeddings.CombinedVector, nil
}
