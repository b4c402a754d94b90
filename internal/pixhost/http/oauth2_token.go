package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// TokenHandler serves POST /auth/token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, ok := parseOAuthForm(w, r)
	if !ok {
		return
	}

	grantType := strings.TrimSpace(form.Get("grant_type"))
	if grantType == "" {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"grant_type is required").WriteError(w)
		return
	}

	creds, oe := clientCredentials(r, form)
	if oe != nil {
		oe.WriteError(w)
		return
	}
	client, err := h.ClientService.Authenticate(ctx, creds)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tok, err := h.TokenService.Exchange(ctx, client, service.TokenRequest{
		GrantType:    grantType,
		Username:     strings.TrimSpace(form.Get("username")),
		Password:     form.Get("password"),
		Code:         strings.TrimSpace(form.Get("code")),
		RedirectURI:  strings.TrimSpace(form.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(form.Get("code_verifier")),
		RefreshToken: strings.TrimSpace(form.Get("refresh_token")),
		Scopes:       httpx.ParseSpaceDelimitedFields(form.Get("scope")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, renderToken(tok))
}

// parseOAuthForm enforces the form encoding and parses the body. It writes
// the error response itself and reports whether the caller may proceed.
func parseOAuthForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFieldsBody)
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return nil, false
	}
	return r.PostForm, true
}

// clientCredentials reads how the client presented itself: HTTP Basic,
// client_secret in the body, or a bare client_id for public clients.
func clientCredentials(r *http.Request, form url.Values) (service.ClientCredentials, *authsdk.OAuth2Error) {
	formID := strings.TrimSpace(form.Get("client_id"))
	formSecret := form.Get("client_secret")

	if id, secret, ok := r.BasicAuth(); ok {
		// RFC 6749 section 2.3.1: both parts are form-urlencoded.
		var err error
		if id, err = url.QueryUnescape(id); err != nil {
			return service.ClientCredentials{}, authsdk.ErrInvalidClient
		}
		if secret, err = url.QueryUnescape(secret); err != nil {
			return service.ClientCredentials{}, authsdk.ErrInvalidClient
		}
		if formSecret != "" || (formID != "" && formID != id) {
			return service.ClientCredentials{}, authsdk.NewOAuth2Error(http.StatusBadRequest,
				authsdk.ErrorCodeInvalidRequest, "client authenticated with more than one method")
		}
		return service.ClientCredentials{
			ClientID:     id,
			ClientSecret: secret,
			Method:       domain.AuthMethodClientSecretBasic,
		}, nil
	}

	if formSecret != "" {
		return service.ClientCredentials{
			ClientID:     formID,
			ClientSecret: formSecret,
			Method:       domain.AuthMethodClientSecretPost,
		}, nil
	}

	return service.ClientCredentials{ClientID: formID, Method: domain.AuthMethodNone}, nil
}
