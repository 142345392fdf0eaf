package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"service-hub/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint. Gemini's
// compatibility layer (text-embedding-004) is the default deployment target.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// OpenAIEmbeddingService implements domain.EmbeddingService over the
// OpenAI embeddings API.
type OpenAIEmbeddingService struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAIEmbeddingService creates a new OpenAIEmbeddingService.
func NewOpenAIEmbeddingService(cfg OpenAIConfig) (*OpenAIEmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model name cannot be empty")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIEmbeddingService{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: cfg.Dimension,
	}, nil
}

// Generate creates an embedding for the given text.
func (s *OpenAIEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: input text cannot be empty for embedding", domain.ErrEmbeddingGenerationFailed)
	}

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          s.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if s.dimension > 0 {
		req.Dimensions = s.dimension
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", domain.ErrEmbeddingGenerationFailed)
	}
	return resp.Data[0].Embedding, nil
}

// dailyQuotaMarkers identify a 429 that will not clear until the quota window
// resets, as opposed to a per-minute throttle.
var dailyQuotaMarkers = []string{"insufficient_quota", "perday", "per day", "daily"}

// classifyAPIError maps provider failures onto the embedding error taxonomy.
func classifyAPIError(err error) error {
	status := 0
	detail := ""

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		detail = string(reqErr.Body)
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		detail = fmt.Sprintf("%s %s %v", apiErr.Message, apiErr.Type, apiErr.Code)
	}

	if status == http.StatusTooManyRequests {
		if isDailyQuota(detail) {
			return fmt.Errorf("embedding API error %d: %w", status, domain.ErrDailyQuotaExceeded)
		}
		return fmt.Errorf("embedding API error %d: %w", status, domain.ErrRateLimitExceeded)
	}
	if status != 0 {
		return fmt.Errorf("embedding API error %d: %s: %w", status, strings.TrimSpace(detail), domain.ErrEmbeddingGenerationFailed)
	}
	return fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingGenerationFailed, err)
}

func isDailyQuota(detail string) bool {
	lower := strings.ToLower(detail)
	for _, marker := range dailyQuotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
