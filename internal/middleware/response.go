package middleware

import (
	"net/http"

	apperrors "github.com/pinauth/pin-relay/internal/errors"
	"github.com/pinauth/pin-relay/internal/httputil"
)

func writeError(w http.ResponseWriter, status int, err *apperrors.AppError) {
	httputil.WriteErrorWithStatus(w, status, err)
}
