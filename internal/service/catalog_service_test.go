package service

import (
	"context"
	"testing"

	"service-hub/internal/domain"
	"service-hub/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	services *MockServiceRepository
	requests *MockServiceRequestRepository
	store    *MockEmbeddingStore
	trigger  *recordingTrigger
	catalog  CatalogService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		services: new(MockServiceRepository),
		requests: new(MockServiceRequestRepository),
		store:    new(MockEmbeddingStore),
		trigger:  &recordingTrigger{},
	}
	f.catalog = NewCatalogService(f.services, f.requests, f.store, f.trigger, 0, nil)
	return f
}

func assignID(id string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		switch e := args.Get(1).(type) {
		case *domain.Service:
			e.ID = id
		case *domain.ServiceRequest:
			e.ID = id
		}
	}
}

func TestCreateService(t *testing.T) {
	f := newCatalogFixture()
	f.services.On("CreateService", mock.Anything, mock.AnythingOfType("*domain.Service")).Run(assignID("svc1")).Return(nil)
	f.store.On("Refresh", mock.Anything, domain.EntityKindService, "svc1", mock.Anything).
		Return(domain.EntityEmbeddings{CombinedVector: testVector(testDimension, 0.1)}, nil)

	resp, err := f.catalog.CreateService(context.Background(), "p1", &dto.ServiceCreateRequest{
		CategoryID:  "plumbing",
		Title:       "Plumbing repair services",
		Description: "Leaks, clogs and installs",
		Tags:        []string{"pipes"},
		Price:       90,
	})

	require.NoError(t, err)
	assert.Equal(t, "svc1", resp.ID)
	assert.Equal(t, "p1", resp.ProviderID)
	assert.True(t, resp.IsActive)
	assert.True(t, resp.HasEmbedding)
	assert.Equal(t, []string{}, resp.Images)
}

func TestCreateService_EmbeddingFailureStillCreates(t *testing.T) {
	f := newCatalogFixture()
	f.services.On("CreateService", mock.Anything, mock.Anything).Run(assignID("svc1")).Return(nil)
	f.store.On("Refresh", mock.Anything, domain.EntityKindService, "svc1", mock.Anything).
		Return(domain.EntityEmbeddings{}, domain.ErrEmbeddingGenerationFailed)

	resp, err := f.catalog.CreateService(context.Background(), "p1", &dto.ServiceCreateRequest{
		CategoryID: "plumbing", Title: "Plumbing", Description: "Fix leaks", Price: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, "svc1", resp.ID)
	assert.False(t, resp.HasEmbedding)
	f.services.AssertExpectations(t)
}

func TestCreateService_Validation(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.catalog.CreateService(context.Background(), "p1", &dto.ServiceCreateRequest{Price: -1})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	f.services.AssertNotCalled(t, "CreateService", mock.Anything, mock.Anything)
}

func TestUpdateService(t *testing.T) {
	existing := func() *domain.Service {
		svc := plumbingService("svc1", "p1")
		svc.Tags = []string{"pipes"}
		return svc
	}

	t.Run("price change keeps vectors", func(t *testing.T) {
		f := newCatalogFixture()
		f.services.On("GetServiceByID", mock.Anything, "svc1").Return(existing(), nil)
		f.services.On("UpdateService", mock.Anything, mock.MatchedBy(func(s *domain.Service) bool {
			return s.Price == 120
		})).Return(nil)

		price := 120.0
		resp, err := f.catalog.UpdateService(context.Background(), "svc1", "p1", &dto.ServiceUpdateRequest{Price: &price})

		require.NoError(t, err)
		assert.Equal(t, 120.0, resp.Price)
		assert.True(t, resp.HasEmbedding)
		f.store.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("text change regenerates", func(t *testing.T) {
		f := newCatalogFixture()
		f.services.On("GetServiceByID", mock.Anything, "svc1").Return(existing(), nil)
		f.services.On("UpdateService", mock.Anything, mock.Anything).Return(nil)
		f.store.On("Refresh", mock.Anything, domain.EntityKindService, "svc1", mock.MatchedBy(func(text domain.EmbeddableText) bool {
			return assert.ObjectsAreEqual([]string{"pipes", "heaters"}, text.Tags)
		})).Return(domain.EntityEmbeddings{CombinedVector: testVector(testDimension, 0.3)}, nil).Once()

		tags := []string{"pipes", "heaters"}
		_, err := f.catalog.UpdateService(context.Background(), "svc1", "p1", &dto.ServiceUpdateRequest{Tags: &tags})

		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newCatalogFixture()
		f.services.On("GetServiceByID", mock.Anything, "svc1").Return(existing(), nil)

		title := "Hijacked"
		_, err := f.catalog.UpdateService(context.Background(), "svc1", "p2", &dto.ServiceUpdateRequest{Title: &title})

		assertDomainCode(t, err, domain.CodeForbidden)
		f.services.AssertNotCalled(t, "UpdateService", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newCatalogFixture()
		f.services.On("GetServiceByID", mock.Anything, "svc1").Return(nil, nil)

		_, err := f.catalog.UpdateService(context.Background(), "svc1", "p1", &dto.ServiceUpdateRequest{})

		assertDomainCode(t, err, domain.CodeServiceNotFound)
	})
}

func TestCreateServiceRequest_EmbeddingFailureStillPersistsAndTriggers(t *testing.T) {
	f := newCatalogFixture()
	f.requests.On("CreateServiceRequest", mock.Anything, mock.MatchedBy(func(r *domain.ServiceRequest) bool {
		return r.CustomerID == "cust1" && r.Description == "need a plumber urgently"
	})).Run(assignID("req1")).Return(nil)
	f.store.On("Refresh", mock.Anything, domain.EntityKindServiceRequest, "req1", mock.Anything).
		Return(domain.EntityEmbeddings{}, domain.ErrEmbeddingGenerationFailed)

	resp, err := f.catalog.CreateServiceRequest(context.Background(), "cust1", &dto.ServiceRequestCreateRequest{
		Description: "need a plumber urgently",
	})

	require.NoError(t, err)
	assert.Equal(t, "req1", resp.ID)
	assert.False(t, resp.HasEmbedding)
	assert.Equal(t, []string{"req1"}, f.trigger.triggered())
}

func TestCreateServiceRequest_PersistFailure(t *testing.T) {
	f := newCatalogFixture()
	f.requests.On("CreateServiceRequest", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := f.catalog.CreateServiceRequest(context.Background(), "cust1", &dto.ServiceRequestCreateRequest{Description: "d"})

	assertDomainCode(t, err, domain.CodeInternal)
	assert.Empty(t, f.trigger.triggered())
	f.store.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetServiceRequest(t *testing.T) {
	f := newCatalogFixture()
	f.requests.On("GetServiceRequestByID", mock.Anything, "req1").
		Return(&domain.ServiceRequest{ID: "req1", CustomerID: "cust1", Description: "d"}, nil)
	f.requests.On("GetServiceRequestByID", mock.Anything, "gone").Return(nil, nil)

	resp, err := f.catalog.GetServiceRequest(context.Background(), "req1", "cust1")
	require.NoError(t, err)
	assert.Equal(t, "cust1", resp.CustomerID)

	_, err = f.catalog.GetServiceRequest(context.Background(), "req1", "cust2")
	assertDomainCode(t, err, domain.CodeForbidden)

	_, err = f.catalog.GetServiceRequest(context.Background(), "gone", "cust1")
	assertDomainCode(t, err, domain.CodeRequestNotFound)
}
