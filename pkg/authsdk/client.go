package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultResourceScope is the scope the pixhost image API asks for.
const DefaultResourceScope = "profile"

// Token endpoint authentication methods (RFC 7591 section 2).
const (
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodNone              = "none"
)

// SDKClient is a client for the pixhost service.
// It provides access to account and OAuth2 operations and can create
// authenticated Sessions for the image API.
//
// The HTTP client carries a cookie jar, so after Login the browser-style
// endpoints (client registration, consent) act as the logged-in user.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes determines whether to perform client-side scope validation
	// before making API requests. When true, the Session will check if it has
	// the required scopes before making a request and return an error if not.
	// Set to false for testing to ensure server-side scope checks work correctly.
	// Default: true
	CheckScopes bool

	// ResourceScope is the scope Session methods require for /api calls.
	ResourceScope string
}

// NewSDKClient creates a new client with scope checking enabled.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		CheckScopes:   true, // Enabled by default
		ResourceScope: DefaultResourceScope,
	}
}

// ClientAuth identifies an OAuth2 client at the token, revocation and
// introspection endpoints.
type ClientAuth struct {
	ClientID     string
	ClientSecret string

	// Method is one of the AuthMethod constants. Empty picks
	// client_secret_basic when a secret is set and none otherwise.
	Method string
}

// apply adds the credentials to the request using the configured method.
func (a ClientAuth) apply(req *http.Request, form url.Values) {
	method := a.Method
	if method == "" {
		method = AuthMethodNone
		if a.ClientSecret != "" {
			method = AuthMethodClientSecretBasic
		}
	}

	switch method {
	case AuthMethodClientSecretBasic:
		// RFC 6749 section 2.3.1: both parts are form-urlencoded first.
		req.SetBasicAuth(url.QueryEscape(a.ClientID), url.QueryEscape(a.ClientSecret))
	case AuthMethodClientSecretPost:
		form.Set("client_id", a.ClientID)
		form.Set("client_secret", a.ClientSecret)
	default:
		form.Set("client_id", a.ClientID)
	}
}

// AuthenticateWithPassword creates an authenticated session using the
// resource owner password credentials grant.
func (c *SDKClient) AuthenticateWithPassword(
	ctx context.Context,
	auth ClientAuth,
	username, password string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.PasswordGrant(ctx, auth, username, password, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, auth, tokenResp), nil
}

// AuthenticateWithRefreshToken creates an authenticated session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(
	ctx context.Context,
	auth ClientAuth,
	refreshToken string,
) (*Session, error) {
	tokenResp, err := c.RefreshGrant(ctx, auth, refreshToken, nil)
	if err != nil {
		return nil, err
	}

	return newSession(c, auth, tokenResp), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session will still perform auto-refresh when the access token expires
// and a refresh token is present.
func (c *SDKClient) NewSessionFromTokens(auth ClientAuth, accessToken, refreshToken, scope string, expiresIn int) *Session {
	return newSession(c, auth, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Scope:        scope,
		ExpiresIn:    expiresIn,
	})
}
