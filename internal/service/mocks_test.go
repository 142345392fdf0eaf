package service

import (
	"context"
	"sync"

	"service-hub/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockServiceRepository ---
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) CreateService(ctx context.Context, service *domain.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) UpdateService(ctx context.Context, service *domain.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) UpdateEmbeddings(ctx context.Context, id string, embeddings domain.EntityEmbeddings) error {
	args := m.Called(ctx, id, embeddings)
	return args.Error(0)
}

func (m *MockServiceRepository) SearchServices(ctx context.Context, query domain.SimilarityQuery) (*domain.MatchPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchPage), args.Error(1)
}

func (m *MockServiceRepository) ListServicesMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*domain.Service, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Service), args.Error(1)
}

// --- MockServiceRequestRepository ---
type MockServiceRequestRepository struct {
	mock.Mock
}

func (m *MockServiceRequestRepository) CreateServiceRequest(ctx context.Context, request *domain.ServiceRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) GetServiceRequestByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) UpdateEmbeddings(ctx context.Context, id string, embeddings domain.EntityEmbeddings) error {
	args := m.Called(ctx, id, embeddings)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) ListRequestsMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ServiceRequest), args.Error(1)
}

// --- MockProviderDirectory ---
type MockProviderDirectory struct {
	mock.Mock
}

func (m *MockProviderDirectory) GetProviderByID(ctx context.Context, id string) (*domain.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Provider), args.Error(1)
}

// --- MockEmbeddingService ---
type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// --- MockNotificationPublisher ---
type MockNotificationPublisher struct {
	mock.Mock
}

func (m *MockNotificationPublisher) Publish(ctx context.Context, intent *domain.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

// --- MockEmbeddingStore ---
type MockEmbeddingStore struct {
	mock.Mock
}

func (m *MockEmbeddingStore) Refresh(ctx context.Context, kind domain.EntityKind, id string, text domain.EmbeddableText) (domain.EntityEmbeddings, error) {
	args := m.Called(ctx, kind, id, text)
	return args.Get(0).(domain.EntityEmbeddings), args.Error(1)
}

func (m *MockEmbeddingStore) EnsureCombinedVector(ctx context.Context, kind domain.EntityKind, id string, current domain.EntityEmbeddings, text domain.EmbeddableText) ([]float32, error) {
	args := m.Called(ctx, kind, id, current, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// recordingTrigger runs nothing and records the request ids it was given.
type recordingTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingTrigger) Trigger(_ context.Context, requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, requestID)
}

func (r *recordingTrigger) triggered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// testVector returns a dim-length vector filled with v.
func testVector(dim int, v float32) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = v
	}
	return vec
}

func floatPtr(f float64) *float64 { return &f }
