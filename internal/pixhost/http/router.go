package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// DefaultResourceScope is the scope a token needs for the image API.
const DefaultResourceScope = "profile"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	blobs blob.Store

	Sessions *Sessions

	UserService      *service.UserService
	ClientService    *service.ClientService
	TokenService     *service.TokenService
	AuthorizeService *service.AuthorizeService
	GuardService     *service.GuardService
	ImageService     *service.ImageService

	// ResourceScope is required on every /api route. Empty means
	// DefaultResourceScope.
	ResourceScope  string
	MaxUploadBytes int64

	// ServeBlobs mounts /blobs/{guid}, for blob stores whose URLs point
	// back at this service.
	ServeBlobs bool

	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig

	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Empty means the
	// socket address is always the client address.
	TrustedProxies []netip.Prefix
}

func NewRouter(
	buildVersion string,
	st store.Store,
	blobs blob.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
		blobs:         blobs,
		StrictLimit:   httpx.StrictLimit,
		ModerateLimit: httpx.ModerateLimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	// Outermost, so logging and rate limiting see the forwarded client.
	r.middlewares = append([]httpx.Middleware{httpx.TrustedProxies(r.TrustedProxies)}, r.middlewares...)

	r.registerAccounts()
	r.registerClients()
	r.registerOAuth2()
	r.registerAPI()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{UserService: r.UserService, Sessions: r.Sessions}

	r.Mux.Handle("POST /register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimit(r.StrictLimit, httpx.ByIP),
		),
	)

	// Limited by IP + username so one address guessing many accounts gets
	// a bucket per account.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimit(r.StrictLimit, httpx.ByIPAndFormField("username")),
		),
	)

	r.Mux.HandleFunc("POST /auth/logout", h.HandleLogout)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}

	r.Mux.Handle("POST /auth/create_client",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
			r.Sessions.RequireSession(),
		),
	)
	r.Mux.Handle("GET /auth/clients",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
			r.Sessions.RequireSession(),
		),
	)
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Sessions:         r.Sessions,
	}

	r.Mux.Handle("GET /auth/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleGet),
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
		),
	)
	r.Mux.Handle("POST /auth/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePost),
			httpx.RateLimit(r.StrictLimit, httpx.ByIP),
		),
	)

	// Covers every grant type; the password grant makes it a credential
	// guessing target.
	tokenHandler := &TokenHandler{ClientService: r.ClientService, TokenService: r.TokenService}
	r.Mux.Handle("POST /auth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimit(r.StrictLimit, httpx.ByIP),
		),
	)

	revokeHandler := &RevokeHandler{ClientService: r.ClientService, TokenService: r.TokenService}
	r.Mux.Handle("POST /auth/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
		),
	)

	introspectHandler := &IntrospectHandler{ClientService: r.ClientService, TokenService: r.TokenService}
	r.Mux.Handle("POST /auth/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
		),
	)
}

func (r *Router) registerAPI() {
	scope := r.ResourceScope
	if scope == "" {
		scope = DefaultResourceScope
	}

	// rate limit -> bearer guard -> scope check -> handler
	secured := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h,
			httpx.RateLimit(r.ModerateLimit, httpx.ByIP),
			httpx.BearerGuard(r.GuardService),
			httpx.RequireScope(scope),
		)
	}

	users := &UsersHandler{UserService: r.UserService, ImageService: r.ImageService}
	images := &ImagesHandler{ImageService: r.ImageService, MaxUploadBytes: r.MaxUploadBytes}

	r.Mux.Handle("GET /api/users", secured(users.HandleList))
	r.Mux.Handle("GET /api/user/{user_id}", secured(users.HandleGet))
	r.Mux.Handle("POST /api/upload", secured(images.HandleUpload))
	r.Mux.Handle("GET /api/user/{user_id}/image/{image_id}", secured(images.HandleGet))
	r.Mux.Handle("DELETE /api/user/{user_id}/image/{image_id}", secured(images.HandleDelete))
	r.Mux.Handle("GET /api/user/{user_id}/image/{image_id}/get", secured(images.HandleRedirect))

	if r.ServeBlobs {
		r.Mux.Handle("GET /blobs/{guid}", BlobsHandler(r.ImageService))
	}
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.blobs))
}
