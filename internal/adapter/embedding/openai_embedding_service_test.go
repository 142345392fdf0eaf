package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"service-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIService(t *testing.T, handler http.HandlerFunc) *OpenAIEmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewOpenAIEmbeddingService(OpenAIConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "text-embedding-004",
		Dimension: 4,
	})
	require.NoError(t, err)
	return svc
}

func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewOpenAIEmbeddingService_Validation(t *testing.T) {
	_, err := NewOpenAIEmbeddingService(OpenAIConfig{Model: "m"})
	assert.ErrorContains(t, err, "API key cannot be empty")

	_, err = NewOpenAIEmbeddingService(OpenAIConfig{APIKey: "k"})
	assert.ErrorContains(t, err, "model name cannot be empty")
}

func TestOpenAIEmbeddingService_Generate(t *testing.T) {
	expected := []float32{0.1, 0.2, 0.3, 0.4}

	svc := newTestOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"need a plumber urgently"}, req.Input)
		assert.Equal(t, "text-embedding-004", req.Model)
		assert.Equal(t, 4, req.Dimensions)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-004",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": expected},
			},
		})
	})

	vec, err := svc.Generate(context.Background(), "need a plumber urgently")
	require.NoError(t, err)
	assert.Equal(t, expected, vec)
}

func TestOpenAIEmbeddingService_Generate_EmptyText(t *testing.T) {
	svc := newTestOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for empty text")
	})
	_, err := svc.Generate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmbeddingGenerationFailed)
}

func TestOpenAIEmbeddingService_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "per-minute throttle",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Quota exceeded for quota metric 'Requests per minute'","type":"rate_limit_exceeded","code":429}}`,
			want:   domain.ErrRateLimitExceeded,
		},
		{
			name:   "daily quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Quota exceeded for metric GenerateRequestsPerDayPerProjectPerModel","type":"","code":429}}`,
			want:   domain.ErrDailyQuotaExceeded,
		},
		{
			name:   "insufficient quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			want:   domain.ErrDailyQuotaExceeded,
		},
		{
			name:   "non-standard body with daily marker",
			status: http.StatusTooManyRequests,
			body:   `[{"error":{"code":429,"message":"daily limit reached","status":"RESOURCE_EXHAUSTED"}}]`,
			want:   domain.ErrDailyQuotaExceeded,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"internal","type":"server_error","code":500}}`,
			want:   domain.ErrEmbeddingGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, tt.body)
			})
			_, err := svc.Generate(context.Background(), "fix leaking faucet")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAIEmbeddingService_EmptyResponse(t *testing.T) {
	svc := newTestOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"text-embedding-004"}`))
	})
	_, err := svc.Generate(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmbeddingGenerationFailed)
}
