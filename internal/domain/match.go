package domain

import (
	"math"
)

// Matching policy. The fan-out constants are not configuration.
const (
	// HighConfidenceThreshold is the strict lower bound a candidate's similarity
	// must exceed for its provider to be notified about a new request.
	HighConfidenceThreshold = 0.6

	// FanOutTopN is how many ranked candidates a new request retrieves.
	FanOutTopN = 10

	// DefaultSearchThreshold is the similarity floor applied to free-text search
	// when the caller does not supply one.
	DefaultSearchThreshold = 0.3
)

// SearchFilters are predicates applied to candidates before ranking. All set
// filters compose with AND.
type SearchFilters struct {
	CategoryID string
	ProviderID string
	MinPrice   *float64
	MaxPrice   *float64
	ActiveOnly bool
}

// Accepts reports whether a service satisfies every set filter.
func (f SearchFilters) Accepts(s *Service) bool {
	if s == nil {
		return false
	}
	if f.ActiveOnly && !s.IsActive {
		return false
	}
	if f.CategoryID != "" && s.CategoryID != f.CategoryID {
		return false
	}
	if f.ProviderID != "" && s.ProviderID != f.ProviderID {
		return false
	}
	if f.MinPrice != nil && s.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && s.Price > *f.MaxPrice {
		return false
	}
	return true
}

// SimilarityQuery is a nearest-neighbour query over service combined vectors.
type SimilarityQuery struct {
	Vector  []float32
	Filters SearchFilters
	// MinSimilarity is an optional floor; nil applies none.
	MinSimilarity *float64
	// ExcludeID drops one service from candidacy (self-similarity).
	ExcludeID string
	Limit     int
	Offset    int
}

// ServiceMatch is a ranked, ephemeral projection of a service.
type ServiceMatch struct {
	Service    *Service
	Similarity float64
}

// Percentage is the human-facing score of the match.
func (m ServiceMatch) Percentage() int {
	return MatchPercentage(m.Similarity)
}

// IsHighConfidence reports whether the match qualifies for provider notification.
func (m ServiceMatch) IsHighConfidence() bool {
	return m.Similarity > HighConfidenceThreshold
}

// MatchPage is one page of ranked matches. Ties in similarity have no defined order.
type MatchPage struct {
	Matches []ServiceMatch
	Total   int
}

// MatchPercentage converts a similarity in [-1, 1] to a rounded percentage.
func MatchPercentage(similarity float64) int {
	return int(math.Round(similarity * 100))
}

// HighConfidenceMatches keeps the matches above HighConfidenceThreshold,
// preserving rank order.
func HighConfidenceMatches(matches []ServiceMatch) []ServiceMatch {
	out := make([]ServiceMatch, 0, len(matches))
	for _, m := range matches {
		if m.IsHighConfidence() {
			out = append(out, m)
		}
	}
	return out
}

// RequestMatch is the provider-facing view: how well a customer's request fits
// one of the provider's services.
type RequestMatch struct {
	Request    *ServiceRequest
	ServiceID  string
	Similarity float64
}
