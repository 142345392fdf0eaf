package repository

import (
	"context"
	"fmt"
)

// pgvector keeps hnsw.ef_search within these bounds.
const (
	minEfSearch = 40
	maxEfSearch = 1000
)

// efSearchFor sizes the HNSW candidate list to cover the requested window.
func efSearchFor(limit, offset int) int {
	ef := limit + offset
	if ef < minEfSearch {
		return minEfSearch
	}
	if ef > maxEfSearch {
		return maxEfSearch
	}
	return ef
}

// selectRanked runs an ORDER BY distance query. On a connection that can open
// transactions it enables strict-order iterative index scans first, so rows
// removed by WHERE filters and rows skipped by OFFSET do not shrink the page.
func selectRanked(ctx context.Context, db DBTX, dest interface{}, limit, offset int, query string, args ...interface{}) (err error) {
	beginner, ok := db.(TxBeginner)
	if !ok {
		return db.SelectContext(ctx, dest, query, args...)
	}

	tx, err := beginner.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ranked scan: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SET LOCAL hnsw.iterative_scan = strict_order"); err != nil {
		return fmt.Errorf("failed to enable iterative scan: %w", err)
	}
	// SET does not take bind parameters; the value is an int.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearchFor(limit, offset))); err != nil {
		return fmt.Errorf("failed to size ef_search: %w", err)
	}
	if err = tx.SelectContext(ctx, dest, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}
