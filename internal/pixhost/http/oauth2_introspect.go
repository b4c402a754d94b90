package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// IntrospectHandler serves POST /auth/introspect following RFC 7662. Only
// tokens issued to the calling client are reported as active.
type IntrospectHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, ok := parseOAuthForm(w, r)
	if !ok {
		return
	}

	token := strings.TrimSpace(form.Get("token"))
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
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

	info, err := h.TokenService.IntrospectAny(ctx, client, token, form.Get("token_type_hint"))
	switch {
	case errors.Is(err, service.ErrInactiveToken):
		// Per RFC 7662 an inactive token reveals nothing else.
		httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{Active: false})
		return
	case err != nil:
		writeError(w, r, err)
		return
	}

	tokenType := domain.BearerTokenType
	if info.TokenType == service.HintRefreshToken {
		tokenType = service.HintRefreshToken
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{
		Active:    true,
		Scope:     strings.Join(info.Scopes, " "),
		ClientID:  info.ClientID,
		Username:  info.Username,
		TokenType: tokenType,
		Exp:       info.ExpiresAt.Unix(),
		Iat:       info.IssuedAt.Unix(),
		Sub:       strconv.FormatInt(info.UserID, 10),
		Jti:       info.TokenID,
	})
}
