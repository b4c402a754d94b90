package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted, in bytes.
const MinSecretLength = 32

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWeakSecret   = fmt.Errorf("jwtx: secret must be at least %d bytes", MinSecretLength)
)

// SessionSigner signs and verifies session tokens with HS256. Sessions are
// only ever read back by the service that minted them, so a shared secret
// is enough.
type SessionSigner struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewSessionSigner returns a signer for the given secret and issuer.
func NewSessionSigner(secret []byte, issuer string) (*SessionSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &SessionSigner{secret: secret, issuer: issuer, leeway: 5 * time.Second}, nil
}

// Sign returns the compact JWS for claims.
func (s *SessionSigner) Sign(claims SessionClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, issuer and validity window and returns the claims.
func (s *SessionSigner) Verify(token string) (SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)

	var claims SessionClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return SessionClaims{}, ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return SessionClaims{}, ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return SessionClaims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return SessionClaims{}, ErrIssuer
	default:
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
