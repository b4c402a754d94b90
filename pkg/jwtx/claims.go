package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a browser login stays valid.
const DefaultSessionTTL = 12 * time.Hour

// SessionClaims identify an end user who logged in with a password. They
// are carried in a cookie and are never accepted as OAuth bearer tokens.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Username at login time, for display in the consent prompt.
	Username string `json:"username,omitempty"`
}

// NewSessionClaims builds claims for userID valid for ttl from now.
func NewSessionClaims(userID int64, username, issuer string, ttl time.Duration, now time.Time) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
	}
}

// UserID parses the subject back into a user id.
func (c SessionClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidClaim
	}
	return id, nil
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
