package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"service-hub/internal/domain"
	"service-hub/internal/repository/models"

	"github.com/Masterminds/squirrel"
)

type ProviderDatabaseAdapter struct {
	db DBTX
}

// NewProviderDatabaseAdapter creates a new instance of ProviderDatabaseAdapter
func NewProviderDatabaseAdapter(db DBTX) domain.ProviderDirectory {
	return &ProviderDatabaseAdapter{db: db}
}

func (r *ProviderDatabaseAdapter) GetProviderByID(ctx context.Context, id string) (*domain.Provider, error) {
	query, args, err := psql.Select("id", "name", "email", "phone").
		From("providers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build provider query: %w", err)
	}

	var row models.Provider
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get provider %s: %w", id, err)
	}
	return &domain.Provider{
		ID:    row.ID,
		Name:  row.Name,
		Email: row.Email.String,
		Phone: row.Phone.String,
	}, nil
}
