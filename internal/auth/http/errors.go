package http

import (
	"net/http"

	"github.com/shelfmark/catalogue/internal/auth/service"
	"github.com/shelfmark/catalogue/pkg/authsdk"
	"github.com/shelfmark/catalogue/pkg/httpx"
	"github.com/shelfmark/catalogue/pkg/slogx"
)

// writeServiceError maps a service failure onto a status and error code.
// Unclassified errors are logged and reported as a bare server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch service.KindOf(err) {
	case service.KindNotFound:
		status, code = http.StatusNotFound, authsdk.ErrorCodeNotFound
	case service.KindConflict:
		status, code = http.StatusConflict, authsdk.ErrorCodeConflict
	case service.KindBadRequest:
		status, code = http.StatusBadRequest, authsdk.ErrorCodeBadRequest
	case service.KindUnauthorized:
		status, code = http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken
	case service.KindNotification:
		status, code = http.StatusBadGateway, authsdk.ErrorCodeNotificationFailed
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	authsdk.NewAPIError(status, code, service.MessageOf(err)).WriteError(w)
}

// writeValidationError reports per-field validation failures.
func writeValidationError(w http.ResponseWriter, err error) {
	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
		Code:    authsdk.ErrorCodeInvalidRequest,
		Message: "validation failed for some fields",
		Details: validationDetails(err),
	})
}
