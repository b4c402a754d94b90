package service

import (
	"errors"
	"time"
)

// Error kinds. Every error a service returns wraps one of these, so the
// transport layer can choose a status with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrExternalStore  = errors.New("external store failure")
)

// Error is a service failure carrying the OAuth2 error code that
// represents it on the wire.
type Error struct {
	Code        string
	Description string
	kind        error
}

func newError(kind error, code, desc string) *Error {
	return &Error{Code: code, Description: desc, kind: kind}
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrDuplicateUsername  = newError(ErrConflict, "invalid_request", "username already taken")
	ErrInvalidCredentials = newError(ErrAuthentication, "invalid_grant", "invalid username or password")
	ErrLoginRequired      = newError(ErrAuthentication, "login_required", "user must be logged in")

	ErrInvalidClient           = newError(ErrAuthentication, "invalid_client", "client authentication failed")
	ErrInvalidGrant            = newError(ErrValidation, "invalid_grant", "grant is invalid, expired, or revoked")
	ErrUnauthorizedClient      = newError(ErrAuthorization, "unauthorized_client", "client is not allowed to use this grant")
	ErrInvalidScope            = newError(ErrValidation, "invalid_scope", "requested scope is not allowed")
	ErrUnsupportedGrantType    = newError(ErrValidation, "unsupported_grant_type", "grant type is not supported")
	ErrUnsupportedResponseType = newError(ErrValidation, "unsupported_response_type", "response type is not supported")
	ErrUnsupportedTokenType    = newError(ErrValidation, "unsupported_token_type", "token type hint is not supported")
	ErrRedirectURIMismatch     = newError(ErrValidation, "invalid_request", "redirect_uri does not match a registered uri")
	ErrAccessDenied            = newError(ErrAuthorization, "access_denied", "resource owner denied the request")

	ErrInactiveToken     = newError(ErrAuthentication, "invalid_token", "token is not active")
	ErrInsufficientScope = newError(ErrAuthorization, "insufficient_scope", "token lacks the required scope")
	ErrForbidden         = newError(ErrAuthorization, "forbidden", "caller does not own this resource")
)

// validationError reports a malformed request.
func validationError(desc string) *Error {
	return newError(ErrValidation, "invalid_request", desc)
}

// clock returns now, or time.Now when now is nil.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
