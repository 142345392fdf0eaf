package service

import (
	"context"
	"errors"
	"time"

	"service-hub/internal/domain"
	"service-hub/internal/dto"

	"go.uber.org/zap"
)

// CatalogService defines the create/read/update operations for services and
// service requests. Embedding failures never fail these operations.
type CatalogService interface {
	CreateService(ctx context.Context, providerID string, req *dto.ServiceCreateRequest) (*dto.ServiceResponse, error)
	UpdateService(ctx context.Context, serviceID, callerID string, req *dto.ServiceUpdateRequest) (*dto.ServiceResponse, error)
	GetService(ctx context.Context, serviceID string) (*dto.ServiceResponse, error)
	CreateServiceRequest(ctx context.Context, customerID string, req *dto.ServiceRequestCreateRequest) (*dto.ServiceRequestResponse, error)
	GetServiceRequest(ctx context.Context, requestID, callerID string) (*dto.ServiceRequestResponse, error)
}

type catalogService struct {
	services domain.ServiceRepository
	requests domain.ServiceRequestRepository
	store    EmbeddingStore
	fanOut   FanOutTrigger
	// embedTimeout bounds vector generation, including the limiter wait.
	embedTimeout time.Duration
	logger       *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	services domain.ServiceRepository,
	requests domain.ServiceRequestRepository,
	store EmbeddingStore,
	fanOut FanOutTrigger,
	embedTimeout time.Duration,
	logger *zap.Logger,
) CatalogService {
	if embedTimeout <= 0 {
		embedTimeout = defaultEmbedTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		services:     services,
		requests:     requests,
		store:        store,
		fanOut:       fanOut,
		embedTimeout: embedTimeout,
		logger:       logger,
	}
}

func (s *catalogService) CreateService(ctx context.Context, providerID string, req *dto.ServiceCreateRequest) (*dto.ServiceResponse, error) {
	svc := domain.NewService(providerID, req.CategoryID, req.Title, req.Description, req.Tags, req.Price)
	svc.Images = req.Images
	if err := svc.Validate(); err != nil {
		return nil, err
	}

	if err := s.services.CreateService(ctx, svc); err != nil {
		return nil, domain.NewInternalError("Failed to create service", err)
	}
	s.refreshEmbeddings(ctx, domain.EntityKindService, svc.ID, svc.Text(), &svc.Embeddings)

	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *catalogService) UpdateService(ctx context.Context, serviceID, callerID string, req *dto.ServiceUpdateRequest) (*dto.ServiceResponse, error) {
	svc, err := s.services.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service", err)
	}
	if svc == nil {
		return nil, domain.NewServiceNotFoundError(serviceID)
	}
	if svc.ProviderID != callerID {
		return nil, domain.NewForbiddenError("Only the service owner can update it")
	}

	textChanged := svc.Apply(toServicePatch(req))
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.services.UpdateService(ctx, svc); err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			return nil, domain.NewServiceNotFoundError(serviceID)
		}
		return nil, domain.NewInternalError("Failed to update service", err)
	}
	if textChanged {
		s.refreshEmbeddings(ctx, domain.EntityKindService, svc.ID, svc.Text(), &svc.Embeddings)
	}

	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *catalogService) GetService(ctx context.Context, serviceID string) (*dto.ServiceResponse, error) {
	svc, err := s.services.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service", err)
	}
	if svc == nil {
		return nil, domain.NewServiceNotFoundError(serviceID)
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

// CreateServiceRequest persists the request, then embeds it best-effort, then
// triggers the detached provider fan-out.
func (s *catalogService) CreateServiceRequest(ctx context.Context, customerID string, req *dto.ServiceRequestCreateRequest) (*dto.ServiceRequestResponse, error) {
	sr := domain.NewServiceRequest(customerID, req.CategoryID, req.Title, req.Description, req.Tags, req.Budget)
	if err := sr.Validate(); err != nil {
		return nil, err
	}

	if err := s.requests.CreateServiceRequest(ctx, sr); err != nil {
		return nil, domain.NewInternalError("Failed to create service request", err)
	}
	s.refreshEmbeddings(ctx, domain.EntityKindServiceRequest, sr.ID, sr.Text(), &sr.Embeddings)

	if s.fanOut != nil {
		s.fanOut.Trigger(ctx, sr.ID)
	}
	return toServiceRequestResponse(sr), nil
}

func (s *catalogService) GetServiceRequest(ctx context.Context, requestID, callerID string) (*dto.ServiceRequestResponse, error) {
	sr, err := s.requests.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get service request", err)
	}
	if sr == nil {
		return nil, domain.NewRequestNotFoundError(requestID)
	}
	if sr.CustomerID != callerID {
		return nil, domain.NewForbiddenError("Only the request owner can view it")
	}
	return toServiceRequestResponse(sr), nil
}

// refreshEmbeddings stores fresh vectors into dst, logging and swallowing any failure.
func (s *catalogService) refreshEmbeddings(ctx context.Context, kind domain.EntityKind, id string, text domain.EmbeddableText, dst *domain.EntityEmbeddings) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	embeddings, err := s.store.Refresh(ctx, kind, id, text)
	if err != nil {
		s.logger.Warn("Embedding generation failed, entity saved without vectors",
			zap.String("kind", string(kind)),
			zap.String("entity_id", id),
			zap.Error(err),
		)
		return
	}
	*dst = embeddings
}

func toServicePatch(req *dto.ServiceUpdateRequest) domain.ServicePatch {
	patch := domain.ServicePatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
		CategoryID:  req.CategoryID,
	}
	if req.Tags != nil {
		patch.Tags = *req.Tags
		patch.TagsSet = true
	}
	if req.Images != nil {
		patch.Images = *req.Images
		patch.ImagesSet = true
	}
	return patch
}
