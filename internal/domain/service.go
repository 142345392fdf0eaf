package domain

import (
	"context"
)

// ServiceRepository defines the interface for service persistence and
// similarity queries. Services lacking a combined vector are never returned by
// the similarity methods.
type ServiceRepository interface {
	EmbeddingStore

	// CreateService persists a new service; vectors may be absent.
	CreateService(ctx context.Context, service *Service) error

	// GetServiceByID returns (nil, nil) when the service does not exist.
	GetServiceByID(ctx context.Context, id string) (*Service, error)

	// UpdateService writes the non-vector columns of an existing service.
	UpdateService(ctx context.Context, service *Service) error

	// SearchServices ranks candidates passing the filters by descending similarity.
	SearchServices(ctx context.Context, query SimilarityQuery) (*MatchPage, error)

	// ListServicesMissingEmbeddings returns up to limit services without a
	// combined vector whose id sorts after afterID, in id order.
	ListServicesMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*Service, error)
}

// ServiceRequestRepository defines the interface for service request persistence
type ServiceRequestRepository interface {
	EmbeddingStore

	// CreateServiceRequest persists a new request; vectors may be absent.
	CreateServiceRequest(ctx context.Context, request *ServiceRequest) error

	// GetServiceRequestByID returns (nil, nil) when the request does not exist.
	GetServiceRequestByID(ctx context.Context, id string) (*ServiceRequest, error)

	// ListRequestsMissingEmbeddings returns up to limit requests without a
	// combined vector whose id sorts after afterID, in id order.
	ListRequestsMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*ServiceRequest, error)
}

// ProviderDirectory resolves the contact identity of a provider.
type ProviderDirectory interface {
	// GetProviderByID returns (nil, nil) when the provider does not exist.
	GetProviderByID(ctx context.Context, id string) (*Provider, error)
}
