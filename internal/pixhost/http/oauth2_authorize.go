package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// AuthorizeHandler serves the consent flow at /auth/authorize.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Sessions         *Sessions
}

// HandleGet validates the request and either grants it straight away, when
// the logged-in user owns the client, or returns the consent prompt.
func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	consent, err := h.AuthorizeService.Validate(ctx, buildAuthorizeRequest(nil, r.URL.Query()))
	if err != nil {
		h.handleAuthorizeError(w, r, err)
		return
	}

	user, _ := h.Sessions.Resolve(r)
	res, err := h.AuthorizeService.Prompt(ctx, consent, user.ID)
	if err != nil {
		h.handleAuthorizeError(w, r, err)
		return
	}
	if res.State != service.StateNeedsConsent {
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsentPrompt{
		ClientID:     consent.Client.ID,
		ClientName:   consent.Client.Name,
		Scope:        strings.Join(consent.Scopes, " "),
		ResponseType: consent.ResponseType,
		RedirectURI:  consent.RedirectURI,
		State:        consent.OAuthState,
		User:         user.Username,
	})
}

// HandlePost applies the user's answer. The request parameters may come
// from the form or, as in the GET, from the query string.
func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, ok := parseOAuthForm(w, r)
	if !ok {
		return
	}

	consent, err := h.AuthorizeService.Validate(ctx, buildAuthorizeRequest(form, r.URL.Query()))
	if err != nil {
		h.handleAuthorizeError(w, r, err)
		return
	}

	user, _ := h.Sessions.Resolve(r)
	res, err := h.AuthorizeService.Decide(ctx, consent, user.ID, isConfirmed(form.Get("confirm")))
	if err != nil {
		h.handleAuthorizeError(w, r, err)
		return
	}

	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

func buildAuthorizeRequest(primary, secondary url.Values) service.AuthorizeRequest {
	pick := func(key string) string {
		if primary != nil {
			if v := strings.TrimSpace(primary.Get(key)); v != "" {
				return v
			}
		}
		if secondary != nil {
			return strings.TrimSpace(secondary.Get(key))
		}
		return ""
	}

	return service.AuthorizeRequest{
		ResponseType:        pick("response_type"),
		ClientID:            pick("client_id"),
		RedirectURI:         pick("redirect_uri"),
		Scopes:              httpx.ParseSpaceDelimitedFields(pick("scope")),
		State:               pick("state"),
		CodeChallenge:       pick("code_challenge"),
		CodeChallengeMethod: pick("code_challenge_method"),
	}
}

// handleAuthorizeError redirects errors the client may see at its
// redirect URI. Everything else, notably an unknown client or a redirect
// URI mismatch, is answered directly (RFC 6749 section 4.1.2.1).
func (h *AuthorizeHandler) handleAuthorizeError(w http.ResponseWriter, r *http.Request, err error) {
	l := slogx.FromContext(r.Context())

	var re *service.RedirectError
	if errors.As(err, &re) {
		l.Debug("authorize request rejected by redirect", slog.Any("error", re.Err))
		http.Redirect(w, r, re.RedirectURL, http.StatusFound)
		return
	}

	if errors.Is(err, service.ErrRedirectURIMismatch) {
		l.Debug("authorize request failed due to redirect_uri_mismatch")
	}
	writeError(w, r, err)
}

func isConfirmed(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
