package domain

import (
	"slices"
	"time"
)

// Grant types a client may be registered for.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantPassword          = "password"
	GrantImplicit          = "implicit"
	GrantRefreshToken      = "refresh_token"
)

// Response types accepted by the authorize endpoint.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// Token endpoint authentication methods (RFC 7591).
const (
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodNone              = "none"
)

// Client is a registered OAuth2 client. Clients are immutable once created.
type Client struct {
	ID                      string
	SecretHash              string // empty when AuthMethod is "none"
	UserID                  int64  // developer who registered the client
	Name                    string
	URI                     string
	GrantTypes              []string
	RedirectURIs            []string
	ResponseTypes           []string
	Scopes                  []string
	TokenEndpointAuthMethod string
	IssuedAt                time.Time
}

func (c Client) AllowsGrant(grant string) bool {
	return slices.Contains(c.GrantTypes, grant)
}

func (c Client) AllowsResponseType(rt string) bool {
	return slices.Contains(c.ResponseTypes, rt)
}

// HasRedirectURI reports an exact match against the registered set.
func (c Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// IsPublic reports whether the client authenticates without a secret.
func (c Client) IsPublic() bool {
	return c.TokenEndpointAuthMethod == AuthMethodNone
}

// ClientMetadata is what a developer submits to register a client.
type ClientMetadata struct {
	Name                    string
	URI                     string
	GrantTypes              []string
	RedirectURIs            []string
	ResponseTypes           []string
	Scopes                  []string
	TokenEndpointAuthMethod string
}
