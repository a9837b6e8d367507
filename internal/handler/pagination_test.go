package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"defaults", "", DefaultPinPageSize, 0},
		{"explicit values", "?limit=5&offset=10", 5, 10},
		{"limit capped", "?limit=5000", MaxPinPageSize, 0},
		{"empty values use defaults", "?limit=&offset=", DefaultPinPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParsePagination(httptest.NewRequest("GET", "/api/pins"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.limit, page.Limit)
			assert.Equal(t, tt.offset, page.Offset)
		})
	}
}

func TestParsePagination_Rejects(t *testing.T) {
	for _, query := range []string{"?offset=-1", "?offset=abc", "?limit=0", "?limit=-3", "?limit=ten"} {
		t.Run(query, func(t *testing.T) {
			_, err := ParsePagination(httptest.NewRequest("GET", "/api/pins"+query, nil))
			assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
		})
	}
}
