package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrExternalStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toOAuth2Error converts err into the wire error the client sees. Errors
// that are not service errors become server_error and are logged, since
// their text may carry internals.
func toOAuth2Error(r *http.Request, err error) *authsdk.OAuth2Error {
	status := statusFor(err)

	var se *service.Error
	if errors.As(err, &se) {
		return authsdk.NewOAuth2Error(status, se.Code, se.Description)
	}

	l := slogx.FromContext(r.Context())
	switch status {
	case http.StatusNotFound:
		return authsdk.NewOAuth2Error(status, "not_found", "resource not found")
	case http.StatusBadGateway:
		l.Error("external store failure", slog.Any("error", err))
		return authsdk.NewOAuth2Error(status, "temporarily_unavailable", "storage backend failed")
	case http.StatusBadRequest:
		return authsdk.NewOAuth2Error(status, authsdk.ErrorCodeInvalidRequest, "invalid request")
	}

	l.Error("request failed", slog.Any("error", err))
	return authsdk.ErrServerError
}

// writeError writes err as an OAuth2 style JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	oe := toOAuth2Error(r, err)
	if oe.StatusCode == http.StatusUnauthorized && errors.Is(err, service.ErrInvalidClient) {
		// RFC 6749 section 5.2
		w.Header().Set("WWW-Authenticate", `Basic realm="pixhost"`)
	}
	oe.WriteError(w)
}
