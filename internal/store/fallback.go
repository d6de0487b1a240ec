package store

import (
	"context"
	"fmt"
)

// FindResult is the outcome of FindWithFallback.
type FindResult struct {
	Rows []Row
	// Fallback is true when the rows came from the unfiltered read.
	Fallback bool
	// QueryErr holds the filtered query failure that triggered the fallback,
	// if any.
	QueryErr error
}

// FindWithFallback runs the filtered query and, when it fails or returns no
// rows, reads the whole table once. The store's filter evaluation is not
// reliable, so an empty filtered answer is never trusted on its own. Callers
// that fall back must filter the rows locally. An error is returned only when
// the full read fails too.
func FindWithFallback(ctx context.Context, q Querier, table, filter string) (FindResult, error) {
	var queryErr error
	if filter != "" {
		rows, err := q.QueryRows(ctx, table, filter)
		if err == nil && len(rows) > 0 {
			return FindResult{Rows: rows}, nil
		}
		queryErr = err
	}

	rows, err := q.ReadAllRows(ctx, table)
	if err != nil {
		if queryErr != nil {
			return FindResult{QueryErr: queryErr}, fmt.Errorf("store: %s fallback read failed after query error (%v): %w", table, queryErr, err)
		}
		return FindResult{}, fmt.Errorf("store: %s fallback read: %w", table, err)
	}
	return FindResult{Rows: rows, Fallback: true, QueryErr: queryErr}, nil
}
