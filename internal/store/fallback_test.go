package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedQuerier struct {
	queryRows []Row
	queryErr  error
	readRows  []Row
	readErr   error
	queries   int
	reads     int
}

func (s *scriptedQuerier) QueryRows(context.Context, string, string) ([]Row, error) {
	s.queries++
	return s.queryRows, s.queryErr
}

func (s *scriptedQuerier) ReadAllRows(context.Context, string) ([]Row, error) {
	s.reads++
	return s.readRows, s.readErr
}

func TestFindWithFallback(t *testing.T) {
	queryErr := errors.New("filter timeout")
	readErr := errors.New("connection reset")

	tests := []struct {
		name         string
		filter       string
		q            *scriptedQuerier
		wantRows     int
		wantFallback bool
		wantErr      bool
		wantReads    int
	}{
		{
			name:      "filtered rows are trusted",
			filter:    "Filter(T, TRUE)",
			q:         &scriptedQuerier{queryRows: []Row{{"a": 1}}},
			wantRows:  1,
			wantReads: 0,
		},
		{
			name:         "empty filtered answer falls back",
			filter:       "Filter(T, TRUE)",
			q:            &scriptedQuerier{readRows: []Row{{"a": 1}, {"a": 2}}},
			wantRows:     2,
			wantFallback: true,
			wantReads:    1,
		},
		{
			name:         "query error falls back",
			filter:       "Filter(T, TRUE)",
			q:            &scriptedQuerier{queryErr: queryErr, readRows: []Row{{"a": 1}}},
			wantRows:     1,
			wantFallback: true,
			wantReads:    1,
		},
		{
			name:      "both failing surfaces error",
			filter:    "Filter(T, TRUE)",
			q:         &scriptedQuerier{queryErr: queryErr, readErr: readErr},
			wantErr:   true,
			wantReads: 1,
		},
		{
			name:         "no filter reads directly",
			q:            &scriptedQuerier{readRows: []Row{{"a": 1}}},
			wantRows:     1,
			wantFallback: true,
			wantReads:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := FindWithFallback(context.Background(), tt.q, "T", tt.filter)
			assert.Equal(t, tt.wantReads, tt.q.reads, "full reads")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, readErr))
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Rows, tt.wantRows)
			assert.Equal(t, tt.wantFallback, res.Fallback)
		})
	}
}

func TestFindWithFallbackKeepsQueryError(t *testing.T) {
	queryErr := errors.New("bad selector")
	q := &scriptedQuerier{queryErr: queryErr, readRows: []Row{{"a": 1}}}

	res, err := FindWithFallback(context.Background(), q, "T", "Filter(T, [x] = 1)")
	require.NoError(t, err)
	assert.Equal(t, queryErr, res.QueryErr)
}
