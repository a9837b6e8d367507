package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// getOne scans a single row into a new T. A missing row is nil, nil so
// callers can tell "absent" from a failed query.
func getOne[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*T, error) {
	var row T
	err := sqlx.GetContext(ctx, q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// normalizePage clamps a negative offset to zero. ok is false when limit
// leaves nothing to return.
func normalizePage(limit, offset int) (int, int, bool) {
	if offset < 0 {
		offset = 0
	}
	return limit, offset, limit > 0
}
