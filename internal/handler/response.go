package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func notFound(resource string) error {
	return apperrors.NotFound(resource)
}

// decodeJSON reads the request body into dst. An oversize body surfaces as
// 413 through the returned status.
func decodeJSON(r *http.Request, dst any) (int, error) {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return 0, nil
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, apperrors.ValidationError("Request body too large")
	case errors.Is(err, io.EOF):
		return http.StatusBadRequest, apperrors.ValidationError("Request body is required")
	default:
		return http.StatusBadRequest, apperrors.ValidationError("Invalid request body")
	}
}

func writeDecodeError(w http.ResponseWriter, status int, err error) {
	appErr, _ := apperrors.AsAppError(err)
	httputil.WriteErrorWithStatus(w, status, appErr)
}
