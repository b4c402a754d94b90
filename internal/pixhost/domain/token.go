package domain

import "time"

// BearerTokenType is the only token type issued.
const BearerTokenType = "Bearer"

// RefreshWindowFactor stretches a refresh token's lifetime relative to the
// access token it was issued with.
const RefreshWindowFactor = 2

// Token is one stored issuance: an access token plus an optional paired
// refresh token. Only fingerprints of the raw values are kept. Rows are
// never deleted by the service, revocation sets the corresponding flag.
type Token struct {
	ID               string
	ClientID         string
	UserID           int64
	Scopes           []string
	AccessTokenHash  string
	RefreshTokenHash string // empty when no refresh token was paired
	IssuedAt         time.Time
	ExpiresIn        time.Duration
	AccessRevoked    bool
	RefreshRevoked   bool
}

// AccessExpiresAt is the first instant the access token is no longer valid.
func (t Token) AccessExpiresAt() time.Time {
	return t.IssuedAt.Add(t.ExpiresIn)
}

// RefreshExpiresAt is the first instant the refresh token is no longer valid.
func (t Token) RefreshExpiresAt() time.Time {
	return t.IssuedAt.Add(RefreshWindowFactor * t.ExpiresIn)
}

// AccessActive reports !revoked && now < issued_at + expires_in.
func (t Token) AccessActive(now time.Time) bool {
	return !t.AccessRevoked && now.Before(t.AccessExpiresAt())
}

// RefreshActive applies the longer refresh window.
func (t Token) RefreshActive(now time.Time) bool {
	return t.RefreshTokenHash != "" && !t.RefreshRevoked && now.Before(t.RefreshExpiresAt())
}

// IssuedToken is a freshly minted token with its raw values. The raw values
// exist only here, on the way out to the client.
type IssuedToken struct {
	Token
	AccessToken  string
	RefreshToken string
}

// TokenInfo is what introspection reveals about an active token.
type TokenInfo struct {
	TokenID   string
	ClientID  string
	UserID    int64
	Username  string
	Scopes    []string
	TokenType string // "access_token" or "refresh_token"
	IssuedAt  time.Time
	ExpiresAt time.Time
}
