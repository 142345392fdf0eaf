package service

import (
	"context"
	"fmt"
	"strings"

	"service-hub/internal/domain"
)

// EmbeddingGenerator turns the free text of an entity into its four vectors.
type EmbeddingGenerator interface {
	GenerateServiceEmbeddings(ctx context.Context, text domain.EmbeddableText) (domain.EntityEmbeddings, error)
}

type embeddingGenerator struct {
	embedder  domain.EmbeddingService
	dimension int
}

// NewEmbeddingGenerator creates a generator validating every vector against dimension.
func NewEmbeddingGenerator(embedder domain.EmbeddingService, dimension int) EmbeddingGenerator {
	if dimension <= 0 {
		dimension = domain.DefaultEmbeddingDimension
	}
	return &embeddingGenerator{embedder: embedder, dimension: dimension}
}

// GenerateServiceEmbeddings calls the provider once per non-empty field and once
// more for the combined text. An empty field yields an absent vector.
func (g *embeddingGenerator) GenerateServiceEmbeddings(ctx context.Context, text domain.EmbeddableText) (domain.EntityEmbeddings, error) {
	var out domain.EntityEmbeddings

	combined := text.CombinedText()
	if combined == "" {
		return out, fmt.Errorf("%w: entity has no text to embed", domain.ErrEmbeddingGenerationFailed)
	}

	var err error
	if out.TitleVector, err = g.generate(ctx, "title", text.Title); err != nil {
		return domain.EntityEmbeddings{}, err
	}
	if out.DescriptionVector, err = g.generate(ctx, "description", text.Description); err != nil {
		return domain.EntityEmbeddings{}, err
	}
	if out.TagsVector, err = g.generate(ctx, "tags", text.TagsText()); err != nil {
		return domain.EntityEmbeddings{}, err
	}
	if out.CombinedVector, err = g.generate(ctx, "combined", combined); err != nil {
		return domain.EntityEmbeddings{}, err
	}
	return out, nil
}

func (g *embeddingGenerator) generate(ctx context.Context, field, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vec, err := g.embedder.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s embedding: %w", field, err)
	}
	if err := domain.ValidateVector(vec, g.dimension); err != nil {
		return nil, fmt.Errorf("%s embedding: %w", field, err)
	}
	return vec, nil
}
