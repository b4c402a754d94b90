package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
)

// Response types accepted by the authorize endpoint.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	// Verifier is the high-entropy cryptographic random string (kept secret)
	Verifier string

	// Challenge is the base64url-encoded SHA256 hash of the verifier (sent to server)
	Challenge string

	// Method is always "S256" for SHA256
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair.
// Uses cryptox.TokenSize256 (256 bits of entropy) and SHA256 hashing per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: cryptox.S256Challenge(verifier),
		Method:    "S256",
	}, nil
}

// AuthorizeParams are the parameters of an authorization request.
type AuthorizeParams struct {
	// ResponseType is "code" or "token". Empty means "code".
	ResponseType string
	ClientID     string
	RedirectURI  string
	State        string
	Scopes       []string

	// PKCE is optional for confidential clients.
	PKCE *PKCEChallenge
}

func (p AuthorizeParams) values() url.Values {
	responseType := p.ResponseType
	if responseType == "" {
		responseType = ResponseTypeCode
	}

	params := url.Values{}
	params.Set("response_type", responseType)
	params.Set("client_id", p.ClientID)
	if p.RedirectURI != "" {
		params.Set("redirect_uri", p.RedirectURI)
	}
	if p.State != "" {
		params.Set("state", p.State)
	}
	if len(p.Scopes) > 0 {
		params.Set("scope", strings.Join(p.Scopes, " "))
	}
	if p.PKCE != nil {
		params.Set("code_challenge", p.PKCE.Challenge)
		params.Set("code_challenge_method", p.PKCE.Method)
	}
	return params
}

// BuildAuthorizeURL constructs the URL a browser is sent to in order to
// begin the authorization flow.
//
// Example:
//
//	pkce, _ := authsdk.GeneratePKCEChallenge()
//	u := client.BuildAuthorizeURL(authsdk.AuthorizeParams{
//		ClientID:    clientID,
//		RedirectURI: "https://app.example.com/callback",
//		State:       "random-state",
//		Scopes:      []string{"profile"},
//		PKCE:        pkce,
//	})
//	// Store pkce.Verifier for ExchangeAuthorizationCode, then redirect to u.
func (c *SDKClient) BuildAuthorizeURL(p AuthorizeParams) string {
	return fmt.Sprintf("%s/auth/authorize?%s", c.BaseURL, p.values().Encode())
}

// AuthorizeResult is the outcome of starting an authorization request.
// Exactly one of Prompt and Location is set.
type AuthorizeResult struct {
	// Prompt is the consent question the user must answer.
	Prompt *ConsentPrompt

	// Location is the redirect back to the client, when the server could
	// decide without asking (for example the user owns the client).
	Location string
}

// Authorize starts an authorization request as the logged-in user. Redirects
// are not followed; a redirect to the client is returned as Location.
func (c *SDKClient) Authorize(ctx context.Context, p AuthorizeParams) (*AuthorizeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildAuthorizeURL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.noRedirectClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode == http.StatusFound {
		location, err := redirectLocation(resp)
		if err != nil {
			return nil, err
		}
		return &AuthorizeResult{Location: location}, nil
	}

	var prompt ConsentPrompt
	if err := decodeJSON(resp, &prompt, http.StatusOK); err != nil {
		return nil, err
	}

	return &AuthorizeResult{Prompt: &prompt}, nil
}

// Consent answers the consent prompt for p and returns the redirect back to
// the client. A refusal still redirects, carrying access_denied.
func (c *SDKClient) Consent(ctx context.Context, p AuthorizeParams, confirm bool) (string, error) {
	data := p.values()
	if confirm {
		data.Set("confirm", "yes")
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url("/auth/authorize"),
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.noRedirectClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	return redirectLocation(resp)
}

// AuthorizeAndExchange runs the authorization code flow for the logged-in
// user end to end: it starts the request with a fresh PKCE challenge,
// consents if asked, and redeems the code.
func (c *SDKClient) AuthorizeAndExchange(
	ctx context.Context,
	auth ClientAuth,
	redirectURI string,
	scopes []string,
) (*Session, error) {
	pkce, err := GeneratePKCEChallenge()
	if err != nil {
		return nil, err
	}
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	p := AuthorizeParams{
		ResponseType: ResponseTypeCode,
		ClientID:     auth.ClientID,
		RedirectURI:  redirectURI,
		State:        state,
		Scopes:       scopes,
		PKCE:         pkce,
	}

	res, err := c.Authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	location := res.Location
	if res.Prompt != nil {
		if location, err = c.Consent(ctx, p, true); err != nil {
			return nil, err
		}
	}

	cb, err := ParseAuthorizationCallback(location)
	if err != nil {
		return nil, err
	}
	if cb.State != state {
		return nil, fmt.Errorf("callback state mismatch")
	}
	if cb.Code == "" {
		return nil, fmt.Errorf("callback missing authorization code")
	}

	tokenResp, err := c.ExchangeAuthorizationCode(ctx, auth, cb.Code, redirectURI, pkce.Verifier)
	if err != nil {
		return nil, err
	}

	return newSession(c, auth, tokenResp), nil
}

// Callback is a parsed redirect back to the client.
type Callback struct {
	Code  string
	State string

	// Set for implicit grant responses, which arrive in the fragment.
	AccessToken string
	TokenType   string
	ExpiresIn   int
	Scope       string
}

// ParseAuthorizationCallback parses the redirect URL the authorize endpoint
// sent the browser to. Parameters are read from the fragment when present
// (implicit grant) and from the query otherwise. An error redirect is
// returned as an *OAuth2Error.
//
// Example:
//
//	cb, err := authsdk.ParseAuthorizationCallback("https://localhost/callback?code=xyz&state=abc")
//	if err != nil {
//	    // Handle error (e.g., user denied authorization)
//	}
//	// Verify cb.State matches what you sent
func ParseAuthorizationCallback(callbackURL string) (*Callback, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse callback URL: %w", err)
	}

	params := u.Query()
	if u.Fragment != "" {
		if params, err = url.ParseQuery(u.Fragment); err != nil {
			return nil, fmt.Errorf("failed to parse callback fragment: %w", err)
		}
	}

	if errorCode := params.Get("error"); errorCode != "" {
		return nil, NewOAuth2Error(http.StatusFound, errorCode, params.Get("error_description"))
	}

	cb := &Callback{
		Code:        params.Get("code"),
		State:       params.Get("state"),
		AccessToken: params.Get("access_token"),
		TokenType:   params.Get("token_type"),
		Scope:       params.Get("scope"),
	}
	if v := params.Get("expires_in"); v != "" {
		if cb.ExpiresIn, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid expires_in %q", v)
		}
	}

	if cb.Code == "" && cb.AccessToken == "" {
		return nil, fmt.Errorf("callback missing authorization code")
	}

	return cb, nil
}

