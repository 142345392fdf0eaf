package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"service-hub/internal/domain"
	"service-hub/internal/repository/models"
	"service-hub/internal/util"

	"github.com/Masterminds/squirrel"
)

var serviceRequestColumns = []string{
	"id", "customer_id", "category_id", "title", "description", "tags", "budget",
	"combined_vector", "embedding_updated_at", "created_at", "updated_at",
}

type ServiceRequestDatabaseAdapter struct {
	db        DBTX
	dimension int
}

// NewServiceRequestDatabaseAdapter creates a new instance of ServiceRequestDatabaseAdapter
func NewServiceRequestDatabaseAdapter(db DBTX, dimension int) domain.ServiceRequestRepository {
	if dimension <= 0 {
		dimension = domain.DefaultEmbeddingDimension
	}
	return &ServiceRequestDatabaseAdapter{db: db, dimension: dimension}
}

func (r *ServiceRequestDatabaseAdapter) CreateServiceRequest(ctx context.Context, request *domain.ServiceRequest) error {
	if request.ID == "" {
		request.ID = util.NewULID()
	}
	now := time.Now()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	query, args, err := psql.Insert("service_requests").
		Columns("id", "customer_id", "category_id", "title", "description", "tags", "budget", "created_at", "updated_at").
		Values(request.ID, request.CustomerID, util.StringToNullString(request.CategoryID), request.Title,
			request.Description, models.StringSlice(request.Tags), util.Float64PtrToNullFloat64(request.Budget),
			request.CreatedAt, request.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build service request insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

func (r *ServiceRequestDatabaseAdapter) GetServiceRequestByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query, args, err := psql.Select(serviceRequestColumns...).
		From("service_requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build service request query: %w", err)
	}

	var row models.ServiceRequest
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service request %s: %w", id, err)
	}
	return toDomainServiceRequest(&row), nil
}

func (r *ServiceRequestDatabaseAdapter) UpdateEmbeddings(ctx context.Context, id string, embeddings domain.EntityEmbeddings) error {
	return updateEmbeddings(ctx, r.db, "service_requests", id, embeddings, r.dimension)
}

func (r *ServiceRequestDatabaseAdapter) ListRequestsMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*domain.ServiceRequest, error) {
	query, args, err := psql.Select(serviceRequestColumns...).
		From("service_requests").
		Where(squirrel.And{
			squirrel.Expr("combined_vector IS NULL"),
			squirrel.Gt{"id": afterID},
		}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build backfill query: %w", err)
	}

	var rows []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list requests missing embeddings: %w", err)
	}

	requests := make([]*domain.ServiceRequest, len(rows))
	for i := range rows {
		requests[i] = toDomainServiceRequest(&rows[i])
	}
	return requests, nil
}

func toDomainServiceRequest(m *models.ServiceRequest) *domain.ServiceRequest {
	if m == nil {
		return nil
	}
	return &domain.ServiceRequest{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		CategoryID:  m.CategoryID.String,
		Title:       m.Title,
		Description: m.Description,
		Tags:        []string(m.Tags),
		Budget:      util.NullFloat64ToPtr(m.Budget),
		Embeddings: domain.EntityEmbeddings{
			CombinedVector: vectorSlice(m.CombinedVector),
			UpdatedAt:      util.NullTimeToPtr(m.EmbeddingUpdatedAt),
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
