package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Token type hints for revocation and introspection (RFC 7009 section 2.1).
const (
	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
)

// PasswordGrant requests tokens with the resource owner's credentials.
func (c *SDKClient) PasswordGrant(
	ctx context.Context,
	auth ClientAuth,
	username, password string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, auth, data)
}

// ExchangeAuthorizationCode redeems an authorization code. codeVerifier
// may be empty when the authorize request carried no PKCE challenge.
func (c *SDKClient) ExchangeAuthorizationCode(
	ctx context.Context,
	auth ClientAuth,
	code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, auth, data)
}

// RefreshGrant requests new tokens using a refresh token. The old refresh
// token is spent by the call. Scopes may narrow the original grant.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	auth ClientAuth,
	refreshToken string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, auth, data)
}

// RevokeToken revokes an access or refresh token per RFC 7009. The server
// answers success for tokens it does not know, so only transport, client
// authentication and request errors are reported.
func (c *SDKClient) RevokeToken(ctx context.Context, auth ClientAuth, token, hint string) error {
	data := url.Values{"token": {token}}
	if hint != "" {
		data.Set("token_type_hint", hint)
	}

	resp, err := c.doForm(ctx, "/auth/revoke", auth, data)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// Introspect reports the state of a token per RFC 7662.
func (c *SDKClient) Introspect(
	ctx context.Context,
	auth ClientAuth,
	token, hint string,
) (*IntrospectionResponse, error) {
	data := url.Values{"token": {token}}
	if hint != "" {
		data.Set("token_type_hint", hint)
	}

	resp, err := c.doForm(ctx, "/auth/introspect", auth, data)
	if err != nil {
		return nil, err
	}

	var introspection IntrospectionResponse
	if err := decodeJSON(resp, &introspection, http.StatusOK); err != nil {
		return nil, err
	}

	return &introspection, nil
}

func (c *SDKClient) requestToken(ctx context.Context, auth ClientAuth, data url.Values) (*TokenResponse, error) {
	resp, err := c.doForm(ctx, "/auth/token", auth, data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
