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
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

var serviceColumns = []string{
	"s.id", "s.provider_id", "s.category_id", "s.title", "s.description", "s.tags",
	"s.price", "s.images", "s.is_active", "s.created_at", "s.updated_at",
	"p.name AS provider_name", "c.name AS category_name",
}

// ServiceDatabaseAdapter stores services in Postgres and ranks them with
// pgvector's cosine distance operator.
type ServiceDatabaseAdapter struct {
	db        DBTX
	dimension int
}

// NewServiceDatabaseAdapter creates a new instance of ServiceDatabaseAdapter
func NewServiceDatabaseAdapter(db DBTX, dimension int) domain.ServiceRepository {
	if dimension <= 0 {
		dimension = domain.DefaultEmbeddingDimension
	}
	return &ServiceDatabaseAdapter{db: db, dimension: dimension}
}

func (r *ServiceDatabaseAdapter) CreateService(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = util.NewULID()
	}
	now := time.Now()
	if service.CreatedAt.IsZero() {
		service.CreatedAt = now
	}
	service.UpdatedAt = now

	query, args, err := psql.Insert("services").
		Columns("id", "provider_id", "category_id", "title", "description", "tags", "price", "images", "is_active", "created_at", "updated_at").
		Values(service.ID, service.ProviderID, service.CategoryID, service.Title, service.Description,
			models.StringSlice(service.Tags), service.Price, models.StringSlice(service.Images),
			service.IsActive, service.CreatedAt, service.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build service insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

// GetServiceByID also loads the combined vector, which the lazy regeneration
// and provider views need.
func (r *ServiceDatabaseAdapter) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	query, args, err := psql.Select(serviceColumns...).
		Columns("s.combined_vector", "s.embedding_updated_at").
		From("services s").
		LeftJoin("providers p ON p.id = s.provider_id").
		LeftJoin("categories c ON c.id = s.category_id").
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build service query: %w", err)
	}

	var row models.Service
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}
	return toDomainService(&row), nil
}

func (r *ServiceDatabaseAdapter) UpdateService(ctx context.Context, service *domain.Service) error {
	service.UpdatedAt = time.Now()
	query, args, err := psql.Update("services").
		Set("category_id", service.CategoryID).
		Set("title", service.Title).
		Set("description", service.Description).
		Set("tags", models.StringSlice(service.Tags)).
		Set("price", service.Price).
		Set("images", models.StringSlice(service.Images)).
		Set("is_active", service.IsActive).
		Set("updated_at", service.UpdatedAt).
		Where(squirrel.Eq{"id": service.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build service update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update service %s: %w", service.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: service %s", domain.ErrEntityNotFound, service.ID)
	}
	return nil
}

func (r *ServiceDatabaseAdapter) UpdateEmbeddings(ctx context.Context, id string, embeddings domain.EntityEmbeddings) error {
	return updateEmbeddings(ctx, r.db, "services", id, embeddings, r.dimension)
}

// candidateFilter is the predicate shared by the page and count queries.
// Rows without a combined vector never qualify.
func candidateFilter(q domain.SimilarityQuery) squirrel.And {
	where := squirrel.And{squirrel.Expr("s.combined_vector IS NOT NULL")}
	f := q.Filters
	if f.ActiveOnly {
		where = append(where, squirrel.Eq{"s.is_active": true})
	}
	if f.CategoryID != "" {
		where = append(where, squirrel.Eq{"s.category_id": f.CategoryID})
	}
	if f.ProviderID != "" {
		where = append(where, squirrel.Eq{"s.provider_id": f.ProviderID})
	}
	if f.MinPrice != nil {
		where = append(where, squirrel.GtOrEq{"s.price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		where = append(where, squirrel.LtOrEq{"s.price": *f.MaxPrice})
	}
	if q.ExcludeID != "" {
		where = append(where, squirrel.NotEq{"s.id": q.ExcludeID})
	}
	return where
}

// SearchServices runs the ranked page and the total count concurrently. The
// count ignores the similarity floor. Ties in distance come back in whatever
// order the index yields them. The page is filtered and offset exactly even
// past the default HNSW candidate list; see selectRanked.
func (r *ServiceDatabaseAdapter) SearchServices(ctx context.Context, q domain.SimilarityQuery) (*domain.MatchPage, error) {
	if err := domain.ValidateVector(q.Vector, r.dimension); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", q.Limit)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("search offset must not be negative, got %d", q.Offset)
	}

	vec := pgvector.NewVector(q.Vector)
	where := candidateFilter(q)

	pageBuilder := psql.Select(serviceColumns...).
		Column(squirrel.Expr("s.combined_vector <=> ?::vector AS distance", vec)).
		From("services s").
		LeftJoin("providers p ON p.id = s.provider_id").
		LeftJoin("categories c ON c.id = s.category_id").
		Where(where)
	if q.MinSimilarity != nil {
		pageBuilder = pageBuilder.Where(squirrel.Expr("(s.combined_vector <=> ?::vector) <= ?", vec, 1-*q.MinSimilarity))
	}
	pageQuery, pageArgs, err := pageBuilder.
		OrderBy("distance ASC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build similarity query: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("services s").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var (
		rows  []models.ServiceMatch
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := selectRanked(gctx, r.db, &rows, q.Limit, q.Offset, pageQuery, pageArgs...); err != nil {
			return fmt.Errorf("failed to run similarity query: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.GetContext(gctx, &total, countQuery, countArgs...); err != nil {
			return fmt.Errorf("failed to count candidates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]domain.ServiceMatch, 0, len(rows))
	for i := range rows {
		matches = append(matches, domain.ServiceMatch{
			Service:    toDomainServiceMatch(&rows[i]),
			Similarity: util.SimilarityFromDistance(rows[i].Distance),
		})
	}
	return &domain.MatchPage{Matches: matches, Total: total}, nil
}

func (r *ServiceDatabaseAdapter) ListServicesMissingEmbeddings(ctx context.Context, afterID string, limit int) ([]*domain.Service, error) {
	query, args, err := psql.Select(serviceColumns...).
		Columns("s.combined_vector", "s.embedding_updated_at").
		From("services s").
		LeftJoin("providers p ON p.id = s.provider_id").
		LeftJoin("categories c ON c.id = s.category_id").
		Where(squirrel.And{
			squirrel.Expr("s.combined_vector IS NULL"),
			squirrel.Gt{"s.id": afterID},
		}).
		OrderBy("s.id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build backfill query: %w", err)
	}

	var rows []models.Service
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list services missing embeddings: %w", err)
	}

	services := make([]*domain.Service, len(rows))
	for i := range rows {
		services[i] = toDomainService(&rows[i])
	}
	return services, nil
}

func toDomainService(m *models.Service) *domain.Service {
	if m == nil {
		return nil
	}
	return &domain.Service{
		ID:          m.ID,
		ProviderID:  m.ProviderID,
		CategoryID:  m.CategoryID,
		Title:       m.Title,
		Description: m.Description,
		Tags:        []string(m.Tags),
		Price:       m.Price,
		Images:      []string(m.Images),
		IsActive:    m.IsActive,
		Embeddings: domain.EntityEmbeddings{
			CombinedVector: vectorSlice(m.CombinedVector),
			UpdatedAt:      util.NullTimeToPtr(m.EmbeddingUpdatedAt),
		},
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		ProviderName: m.ProviderName.String,
		CategoryName: m.CategoryName.String,
	}
}

func toDomainServiceMatch(m *models.ServiceMatch) *domain.Service {
	return &domain.Service{
		ID:           m.ID,
		ProviderID:   m.ProviderID,
		CategoryID:   m.CategoryID,
		Title:        m.Title,
		Description:  m.Description,
		Tags:         []string(m.Tags),
		Price:        m.Price,
		Images:       []string(m.Images),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		ProviderName: m.ProviderName.String,
		CategoryName: m.CategoryName.String,
	}
}
