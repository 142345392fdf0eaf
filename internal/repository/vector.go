package repository

import (
	"context"
	"fmt"

	"service-hub/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// vectorParam binds a vector as a typed parameter; nil becomes NULL.
func vectorParam(v []float32) squirrel.Sqlizer {
	if v == nil {
		return squirrel.Expr("NULL::vector")
	}
	return squirrel.Expr("?::vector", pgvector.NewVector(v))
}

func vectorSlice(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}

// updateEmbeddings overwrites the four vector columns of one row and stamps
// embedding_updated_at. No other column is touched.
func updateEmbeddings(ctx context.Context, db DBTX, table, id string, e domain.EntityEmbeddings, dimension int) error {
	if err := e.Validate(dimension); err != nil {
		return err
	}

	query, args, err := psql.Update(table).
		Set("title_vector", vectorParam(e.TitleVector)).
		Set("description_vector", vectorParam(e.DescriptionVector)).
		Set("tags_vector", vectorParam(e.TagsVector)).
		Set("combined_vector", vectorParam(e.CombinedVector)).
		Set("embedding_updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build embedding update for %s: %w", table, err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update embeddings for %s %s: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, table, id)
	}
	return nil
}
