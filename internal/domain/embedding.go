package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultEmbeddingDimension is the vector length produced by the configured
// embedding models (text-embedding-004, nomic-embed-text).
const DefaultEmbeddingDimension = 768

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// EmbeddableText is the free text of a service or service request that feeds
// the four stored vectors.
type EmbeddableText struct {
	Title       string
	Description string
	Tags        []string
}

// TagsText joins the non-empty tags in their original order.
func (t EmbeddableText) TagsText() string {
	tags := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, ", ")
}

// CombinedText is the concatenation of every non-empty field: title, then
// description, then the joined tags.
func (t EmbeddableText) CombinedText() string {
	parts := make([]string, 0, 3)
	if title := strings.TrimSpace(t.Title); title != "" {
		parts = append(parts, title)
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		parts = append(parts, desc)
	}
	if tags := t.TagsText(); tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, ". ")
}

// Differs reports whether any text field changed, which makes stored vectors stale.
func (t EmbeddableText) Differs(other EmbeddableText) bool {
	if t.Title != other.Title || t.Description != other.Description {
		return true
	}
	if len(t.Tags) != len(other.Tags) {
		return true
	}
	for i := range t.Tags {
		if t.Tags[i] != other.Tags[i] {
			return true
		}
	}
	return false
}

// EntityEmbeddings holds the vectors owned by an embeddable entity. A nil
// vector means absent.
type EntityEmbeddings struct {
	TitleVector       []float32
	DescriptionVector []float32
	TagsVector        []float32
	CombinedVector    []float32
	UpdatedAt         *time.Time
}

// HasCombined reports whether the entity is eligible for similarity search.
func (e EntityEmbeddings) HasCombined() bool {
	return len(e.CombinedVector) > 0
}

// Validate rejects any present vector whose length differs from dim.
func (e EntityEmbeddings) Validate(dim int) error {
	named := []struct {
		name string
		vec  []float32
	}{
		{"title", e.TitleVector},
		{"description", e.DescriptionVector},
		{"tags", e.TagsVector},
		{"combined", e.CombinedVector},
	}
	for _, n := range named {
		if n.vec == nil {
			continue
		}
		if err := ValidateVector(n.vec, dim); err != nil {
			return fmt.Errorf("%s vector: %w", n.name, err)
		}
	}
	return nil
}

// ValidateVector checks the vector length and rejects NaN/Inf components.
func ValidateVector(vec []float32, dim int) error {
	if len(vec) != dim {
		return fmt.Errorf("%w: expected %d dimensions, got %d", ErrMalformedVector, dim, len(vec))
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite component at index %d", ErrMalformedVector, i)
		}
	}
	return nil
}

// EntityKind names the two embeddable tables.
type EntityKind string

const (
	EntityKindService        EntityKind = "service"
	EntityKindServiceRequest EntityKind = "service_request"
)

// EmbeddingStore persists vectors on behalf of an entity without touching its
// other columns.
type EmbeddingStore interface {
	UpdateEmbeddings(ctx context.Context, id string, embeddings EntityEmbeddings) error
}
