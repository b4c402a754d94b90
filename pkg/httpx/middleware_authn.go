package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// ErrInvalidToken is returned (possibly wrapped) by a TokenAuthenticator
// when the token itself is unknown, revoked or expired. Any other error is
// treated as the authenticator being unavailable.
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenAuthenticator resolves an opaque bearer token to the principal it
// was issued for.
type TokenAuthenticator interface {
	AuthenticateBearer(ctx context.Context, token string) (Principal, error)
}

// BearerGuard rejects requests without an active bearer token and stores
// the resolved Principal in the request context.
func BearerGuard(a TokenAuthenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := ExtractBearerToken(r)
			if raw == "" {
				WriteBearerError(w, "missing bearer token")
				return
			}

			p, err := a.AuthenticateBearer(ctx, raw)
			switch {
			case errors.Is(err, ErrInvalidToken):
				slogx.FromContext(ctx).Debug("bearer rejected", "err", err)
				WriteBearerError(w, "token is not active")
				return
			case err != nil:
				slogx.FromContext(ctx).Error("bearer lookup failed", "err", err)
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error":             "temporarily_unavailable",
					"error_description": "token could not be checked, try again later",
				})
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.With(ctx, "user_id", p.UserID, "client_id", p.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
