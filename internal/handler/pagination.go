package handler

import (
	"net/http"
	"strconv"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
)

// Pin history pages. Each pin row is small, but the review screen only
// renders a couple of dozen at a time.
const (
	DefaultPinPageSize = 20
	MaxPinPageSize     = 100
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query string. Missing
// values take the defaults and an oversized limit is capped; anything that
// is not a non-negative integer is rejected.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	page := PaginationParams{Limit: DefaultPinPageSize}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, apperrors.InvalidInput("limit", "must be a positive integer")
		}
		page.Limit = min(limit, MaxPinPageSize)
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, apperrors.InvalidInput("offset", "must be a non-negative integer")
		}
		page.Offset = offset
	}

	return page, nil
}
