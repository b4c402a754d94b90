package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/jwtx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

const sessionCookieName = "pixhost_session"

// SessionUser is the end user a browser session belongs to.
type SessionUser struct {
	ID       int64
	Username string
}

type sessionCtxKey struct{}

func withSessionUser(ctx context.Context, u SessionUser) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, u)
}

// SessionUserFromContext returns the user placed by RequireSession.
func SessionUserFromContext(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(sessionCtxKey{}).(SessionUser)
	return u, ok
}

// Sessions issues and reads the login cookie.
type Sessions struct {
	Signer *jwtx.SessionSigner
	Issuer string
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

// Issue sets a session cookie for u.
func (s *Sessions) Issue(w http.ResponseWriter, u domain.User) error {
	now := s.now()
	token, err := s.Signer.Sign(jwtx.NewSessionClaims(u.ID, u.Username, s.Issuer, s.ttl(), now))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.ttl()),
		MaxAge:   int(s.ttl().Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve returns the user of a valid session cookie on r.
func (s *Sessions) Resolve(r *http.Request) (SessionUser, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return SessionUser{}, false
	}

	claims, err := s.Signer.Verify(c.Value)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("session cookie rejected", "err", err)
		return SessionUser{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		return SessionUser{}, false
	}
	return SessionUser{ID: id, Username: claims.Username}, true
}

// RequireSession rejects requests without a logged-in user.
func (s *Sessions) RequireSession() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := s.Resolve(r)
			if !ok {
				authsdk.ErrLoginRequired.WriteError(w)
				return
			}
			ctx := withSessionUser(r.Context(), u)
			ctx = slogx.With(ctx, "user_id", u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
