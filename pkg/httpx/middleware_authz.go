package httpx

import (
	"net/http"
	"slices"
)

// RequireScope the caller's token must carry every scope listed. It must
// run after BearerGuard.
func RequireScope(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteBearerError(w, "missing bearer token")
				return
			}

			for _, s := range required {
				if s == "" {
					continue
				}
				if !slices.Contains(p.Scopes, s) {
					WriteBearerScopeError(w, required...)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
