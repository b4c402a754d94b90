package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// RevokeHandler serves POST /auth/revoke following RFC 7009. The calling
// client must authenticate. Unknown tokens and tokens of other clients
// still answer 200 so the endpoint cannot be used to scan for tokens.
type RevokeHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	if err := h.TokenService.Revoke(ctx, client, token, form.Get("token_type_hint")); err != nil {
		if errors.Is(err, service.ErrUnsupportedTokenType) {
			writeError(w, r, err)
			return
		}
		// Per RFC 7009 the outcome is not reported to the client.
		slogx.FromContext(ctx).Warn("revoke failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
