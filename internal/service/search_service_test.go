package service

import (
	"context"
	"errors"
	"testing"

	"service-hub/internal/config"
	"service-hub/internal/domain"
	"service-hub/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	services *MockServiceRepository
	requests *MockServiceRequestRepository
	embedder *MockEmbeddingService
	engine   SearchEngine
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		services: new(MockServiceRepository),
		requests: new(MockServiceRequestRepository),
		embedder: new(MockEmbeddingService),
	}
	store := newTestEmbeddingStore(f.embedder, f.services, f.requests)
	f.engine = NewSearchService(f.services, f.requests, f.embedder, store,
		config.SearchConfig{DefaultThreshold: 0.3, DefaultLimit: 20, MaxLimit: 100}, testDimension, 0, nil)
	return f
}

func plumbingService(id string, providerID string) *domain.Service {
	return &domain.Service{
		ID:          id,
		ProviderID:  providerID,
		CategoryID:  "plumbing",
		Title:       "Plumbing repair services",
		Description: "Leaks, clogs and installs",
		Price:       90,
		IsActive:    true,
		Embeddings:  domain.EntityEmbeddings{CombinedVector: testVector(testDimension, 0.5)},
	}
}

func assertDomainCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var domainErr *domain.DomainError
	if assert.True(t, errors.As(err, &domainErr), "expected a DomainError, got %v", err) {
		assert.Equal(t, code, domainErr.Code)
	}
}

func TestSearchServices_ReturnsOnlyRelevantServices(t *testing.T) {
	f := newSearchFixture()
	queryVec := testVector(testDimension, 0.25)
	f.embedder.On("Generate", mock.Anything, "fix leaking faucet").Return(queryVec, nil)
	f.services.On("SearchServices", mock.Anything, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.MinSimilarity != nil && *q.MinSimilarity == 0.3 &&
			q.Filters.ActiveOnly && q.Limit == 20 && q.Offset == 0 &&
			assert.ObjectsAreEqual(queryVec, q.Vector)
	})).Return(&domain.MatchPage{
		Matches: []domain.ServiceMatch{{Service: plumbingService("svc-plumbing", "p1"), Similarity: 0.82}},
		Total:   2,
	}, nil)

	resp, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{Query: "fix leaking faucet"})

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	match := resp.Matches[0]
	assert.Equal(t, "svc-plumbing", match.Service.ID)
	assert.Greater(t, match.Similarity, 0.3)
	assert.Equal(t, 82, match.MatchPercentage)
	assert.True(t, match.Service.HasEmbedding)
	assert.Equal(t, 2, resp.Total)
	f.services.AssertExpectations(t)
}

func TestSearchServices_NoResultsIsNotAnError(t *testing.T) {
	f := newSearchFixture()
	f.embedder.On("Generate", mock.Anything, mock.Anything).Return(testVector(testDimension, 0.1), nil)
	f.services.On("SearchServices", mock.Anything, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.Filters.CategoryID == "X" && q.Filters.ActiveOnly
	})).Return(&domain.MatchPage{Matches: []domain.ServiceMatch{}, Total: 0}, nil)

	resp, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{Query: "anything", CategoryID: "X"})

	require.NoError(t, err)
	assert.NotNil(t, resp.Matches)
	assert.Empty(t, resp.Matches)
	assert.Equal(t, 0, resp.Total)
}

func TestSearchServices_FiltersAndLimits(t *testing.T) {
	f := newSearchFixture()
	f.embedder.On("Generate", mock.Anything, mock.Anything).Return(testVector(testDimension, 0.1), nil)
	f.services.On("SearchServices", mock.Anything, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.Limit == 100 && q.Offset == 40 &&
			q.Filters.ProviderID == "p1" &&
			*q.Filters.MinPrice == 10 && *q.Filters.MaxPrice == 50 &&
			*q.MinSimilarity == 0.7
	})).Return(&domain.MatchPage{}, nil)

	resp, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{
		Query:      "piano tuning",
		ProviderID: "p1",
		MinPrice:   floatPtr(10),
		MaxPrice:   floatPtr(50),
		Threshold:  floatPtr(0.7),
		Limit:      1000,
		Offset:     40,
	})

	require.NoError(t, err)
	assert.Equal(t, 100, resp.Limit)
	assert.Equal(t, 40, resp.Offset)
	f.services.AssertExpectations(t)
}

func TestSearchServices_Validation(t *testing.T) {
	f := newSearchFixture()

	_, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{
		Query:     " ",
		Threshold: floatPtr(1.5),
		MinPrice:  floatPtr(100),
		MaxPrice:  floatPtr(10),
	})

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
	f.embedder.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSearchServices_Failures(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		f := newSearchFixture()
		f.embedder.On("Generate", mock.Anything, mock.Anything).Return(nil, domain.ErrEmbeddingGenerationFailed)

		_, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{Query: "q"})

		assertDomainCode(t, err, domain.CodeEmbeddingFailed)
		f.services.AssertNotCalled(t, "SearchServices", mock.Anything, mock.Anything)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		f := newSearchFixture()
		f.embedder.On("Generate", mock.Anything, mock.Anything).Return(testVector(testDimension, 0.1), nil)
		f.services.On("SearchServices", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := f.engine.SearchServices(context.Background(), &dto.SearchServicesRequest{Query: "q"})

		assertDomainCode(t, err, domain.CodeInternal)
	})
}

func TestFindSimilarServices_ExcludesSelf(t *testing.T) {
	f := newSearchFixture()
	source := plumbingService("svc1", "p1")
	f.services.On("GetServiceByID", mock.Anything, "svc1").Return(source, nil)
	f.services.On("SearchServices", mock.Anything, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.ExcludeID == "svc1" && q.MinSimilarity == nil && q.Limit == 5
	})).Return(&domain.MatchPage{
		Matches: []domain.ServiceMatch{
			{Service: plumbingService("svc1", "p1"), Similarity: 1},
			{Service: plumbingService("svc2", "p2"), Similarity: 0.9},
		},
		Total: 2,
	}, nil)

	resp, err := f.engine.FindSimilarServices(context.Background(), "svc1", 5)

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "svc2", resp.Matches[0].Service.ID)
	f.embedder.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFindSimilarServices_NotFound(t *testing.T) {
	f := newSearchFixture()
	f.services.On("GetServiceByID", mock.Anything, "missing").Return(nil, nil)

	_, err := f.engine.FindSimilarServices(context.Background(), "missing", 5)

	assertDomainCode(t, err, domain.CodeServiceNotFound)
}

func TestFindMatchingServices_LazyRegeneration(t *testing.T) {
	f := newSearchFixture()
	request := &domain.ServiceRequest{ID: "req1", CustomerID: "cust1", Description: "need a plumber urgently"}
	regenerated := testVector(testDimension, 0.6)

	f.requests.On("GetServiceRequestByID", mock.Anything, "req1").Return(request, nil)
	f.embedder.On("Generate", mock.Anything, "need a plumber urgently").Return(regenerated, nil)
	f.requests.On("UpdateEmbeddings", mock.Anything, "req1", mock.MatchedBy(func(e domain.EntityEmbeddings) bool {
		return assert.ObjectsAreEqual(regenerated, e.CombinedVector)
	})).Return(nil).Once()
	f.services.On("SearchServices", mock.Anything, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.Limit == domain.FanOutTopN && q.Filters.ActiveOnly && assert.ObjectsAreEqual(regenerated, q.Vector)
	})).Return(&domain.MatchPage{
		Matches: []domain.ServiceMatch{{Service: plumbingService("svc1", "p1"), Similarity: 0.75}},
		Total:   1,
	}, nil)

	resp, err := f.engine.FindMatchingServices(context.Background(), "req1", "cust1", 0)

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, 75, resp.Matches[0].MatchPercentage)
	f.requests.AssertExpectations(t)
}

func TestFindMatchingServices_Errors(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		f := newSearchFixture()
		f.requests.On("GetServiceRequestByID", mock.Anything, "req1").
			Return(&domain.ServiceRequest{ID: "req1", CustomerID: "cust1", Description: "d"}, nil)

		_, err := f.engine.FindMatchingServices(context.Background(), "req1", "someone-else", 10)

		assertDomainCode(t, err, domain.CodeForbidden)
		f.embedder.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("request missing", func(t *testing.T) {
		f := newSearchFixture()
		f.requests.On("GetServiceRequestByID", mock.Anything, "gone").Return(nil, nil)

		_, err := f.engine.FindMatchingServices(context.Background(), "gone", "cust1", 10)

		assertDomainCode(t, err, domain.CodeRequestNotFound)
	})

	t.Run("regeneration fails", func(t *testing.T) {
		f := newSearchFixture()
		f.requests.On("GetServiceRequestByID", mock.Anything, "req1").
			Return(&domain.ServiceRequest{ID: "req1", CustomerID: "cust1", Description: "d"}, nil)
		f.embedder.On("Generate", mock.Anything, mock.Anything).Return(nil, domain.ErrDailyQuotaExceeded)

		_, err := f.engine.FindMatchingServices(context.Background(), "req1", "cust1", 10)

		assertDomainCode(t, err, domain.CodeEmbeddingFailed)
		assert.ErrorIs(t, err, domain.ErrVectorMissing)
		f.services.AssertNotCalled(t, "SearchServices", mock.Anything, mock.Anything)
	})
}

func TestScoreRequestForService(t *testing.T) {
	f := newSearchFixture()
	svc := plumbingService("svc1", "p1")
	request := &domain.ServiceRequest{
		ID:          "req1",
		CustomerID:  "cust1",
		Title:       "Leak",
		Description: "need a plumber urgently",
		Embeddings:  domain.EntityEmbeddings{CombinedVector: testVector(testDimension, 0.2)},
	}
	f.services.On("GetServiceByID", mock.Anything, "svc1").Return(svc, nil)
	f.requests.On("GetServiceRequestByID", mock.Anything, "req1").Return(request, nil)

	resp, err := f.engine.ScoreRequestForService(context.Background(), "svc1", "req1", "p1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, resp.Similarity, 1e-6)
	assert.Equal(t, 100, resp.MatchPercentage)
	assert.Equal(t, "need a plumber urgently", resp.RequestSummary)
	assert.Equal(t, []string{}, resp.Tags)

	_, err = f.engine.ScoreRequestForService(context.Background(), "svc1", "req1", "p2")
	assertDomainCode(t, err, domain.CodeForbidden)
}
