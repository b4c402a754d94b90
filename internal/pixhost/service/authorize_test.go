package service

import (
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeValidate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := t.Context()

	owner := env.user(t, "dev")
	c, _ := env.client(t, owner.ID, defaultMetadata())

	multi := defaultMetadata()
	multi.RedirectURIs = []string{testRedirect, "https://app.example/other"}
	cm, _ := env.client(t, owner.ID, multi)

	codeOnlyMeta := defaultMetadata()
	codeOnlyMeta.GrantTypes = []string{domain.GrantAuthorizationCode}
	codeOnly, _ := env.client(t, owner.ID, codeOnlyMeta)

	t.Run("unknown client does not redirect", func(t *testing.T) {
		_, err := env.authorize.Validate(ctx, AuthorizeRequest{ClientID: "missing", ResponseType: "code"})
		require.ErrorIs(t, err, ErrInvalidClient)
		var re *RedirectError
		require.NotErrorAs(t, err, &re)
	})

	t.Run("tampered redirect does not redirect", func(t *testing.T) {
		_, err := env.authorize.Validate(ctx, AuthorizeRequest{
			ClientID: c.ID, ResponseType: "code", RedirectURI: "https://evil.example/cb",
		})
		require.ErrorIs(t, err, ErrRedirectURIMismatch)
		var re *RedirectError
		require.NotErrorAs(t, err, &re)
	})

	t.Run("missing redirect falls back to the only registered uri", func(t *testing.T) {
		consent, err := env.authorize.Validate(ctx, AuthorizeRequest{ClientID: c.ID, ResponseType: "code"})
		require.NoError(t, err)
		require.Equal(t, testRedirect, consent.RedirectURI)
		require.Equal(t, StateClientValidated, consent.State)
		require.Equal(t, []string{"profile", "images"}, consent.Scopes)
	})

	t.Run("missing redirect is ambiguous with several registered", func(t *testing.T) {
		_, err := env.authorize.Validate(ctx, AuthorizeRequest{ClientID: cm.ID, ResponseType: "code"})
		require.ErrorIs(t, err, ErrRedirectURIMismatch)
	})

	redirected := []struct {
		name string
		req  AuthorizeRequest
		code string
	}{
		{"unsupported response type", AuthorizeRequest{ClientID: c.ID, ResponseType: "id_token", State: "s1"}, "unsupported_response_type"},
		{"grant not allowed", AuthorizeRequest{ClientID: codeOnly.ID, ResponseType: "token", State: "s1"}, "unsupported_response_type"},
		{"bad scope", AuthorizeRequest{ClientID: c.ID, ResponseType: "code", Scopes: []string{"admin"}, State: "s1"}, "invalid_scope"},
		{"bad pkce method", AuthorizeRequest{ClientID: c.ID, ResponseType: "code", CodeChallenge: "x", CodeChallengeMethod: "S512", State: "s1"}, "invalid_request"},
	}
	for _, tc := range redirected {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.authorize.Validate(ctx, tc.req)
			var re *RedirectError
			require.ErrorAs(t, err, &re)

			u, err := url.Parse(re.RedirectURL)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(re.RedirectURL, testRedirect))
			params := u.Query()
			if u.Fragment != "" {
				params, err = url.ParseQuery(u.Fragment)
				require.NoError(t, err)
			}
			require.Equal(t, tc.code, params.Get("error"))
			require.Equal(t, "s1", params.Get("state"))
		})
	}

	t.Run("code response type needs the authorization_code grant", func(t *testing.T) {
		meta := defaultMetadata()
		meta.GrantTypes = []string{domain.GrantImplicit}
		meta.ResponseTypes = []string{domain.ResponseTypeCode, domain.ResponseTypeToken}
		implicitOnly, _ := env.client(t, owner.ID, meta)

		_, err := env.authorize.Validate(ctx, AuthorizeRequest{ClientID: implicitOnly.ID, ResponseType: "code"})
		require.ErrorIs(t, err, ErrUnauthorizedClient)
	})
}

func TestAuthorizeDecide(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := t.Context()

	owner := env.user(t, "dev")
	alice := env.user(t, "alice")
	c, _ := env.client(t, owner.ID, defaultMetadata())

	validate := func(t *testing.T, responseType string) *ConsentRequest {
		t.Helper()
		consent, err := env.authorize.Validate(ctx, AuthorizeRequest{
			ClientID: c.ID, ResponseType: responseType, RedirectURI: testRedirect, State: "xyz",
		})
		require.NoError(t, err)
		return consent
	}

	t.Run("other users are prompted", func(t *testing.T) {
		res, err := env.authorize.Prompt(ctx, validate(t, "code"), alice.ID)
		require.NoError(t, err)
		require.Equal(t, StateNeedsConsent, res.State)
		require.Empty(t, res.RedirectURL)
	})

	t.Run("owner consents automatically", func(t *testing.T) {
		res, err := env.authorize.Prompt(ctx, validate(t, "code"), owner.ID)
		require.NoError(t, err)
		require.Equal(t, StateGranted, res.State)
		require.Contains(t, res.RedirectURL, "code=")
	})

	t.Run("denied", func(t *testing.T) {
		res, err := env.authorize.Decide(ctx, validate(t, "code"), alice.ID, false)
		require.NoError(t, err)
		require.Equal(t, StateDenied, res.State)

		u, err := url.Parse(res.RedirectURL)
		require.NoError(t, err)
		require.Equal(t, "access_denied", u.Query().Get("error"))
		require.Equal(t, "xyz", u.Query().Get("state"))
	})

	t.Run("login required", func(t *testing.T) {
		_, err := env.authorize.Decide(ctx, validate(t, "code"), 0, true)
		require.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("code is redeemable", func(t *testing.T) {
		res, err := env.authorize.Decide(ctx, validate(t, "code"), alice.ID, true)
		require.NoError(t, err)

		u, err := url.Parse(res.RedirectURL)
		require.NoError(t, err)
		require.Equal(t, "xyz", u.Query().Get("state"))

		tok, err := env.tokens.AuthorizationCodeGrant(ctx, c, u.Query().Get("code"), testRedirect, "")
		require.NoError(t, err)
		require.Equal(t, alice.ID, tok.UserID)
	})

	t.Run("implicit puts the token in the fragment", func(t *testing.T) {
		res, err := env.authorize.Decide(ctx, validate(t, "token"), alice.ID, true)
		require.NoError(t, err)

		u, err := url.Parse(res.RedirectURL)
		require.NoError(t, err)
		require.Empty(t, u.RawQuery)

		frag, err := url.ParseQuery(u.Fragment)
		require.NoError(t, err)
		require.Equal(t, "Bearer", frag.Get("token_type"))
		require.Equal(t, "3600", frag.Get("expires_in"))
		require.Equal(t, "xyz", frag.Get("state"))

		info, err := env.tokens.Introspect(ctx, frag.Get("access_token"))
		require.NoError(t, err)
		require.Equal(t, alice.ID, info.UserID)

		_, err = env.tokens.IntrospectAny(ctx, c, frag.Get("access_token"), HintRefreshToken)
		require.NoError(t, err)
	})
}

func TestAuthorizeStateString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "needs_consent", StateNeedsConsent.String())
	require.Equal(t, "unknown(42)", AuthorizeState(42).String())
}
