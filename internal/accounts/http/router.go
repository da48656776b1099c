package http

import (
	"log/slog"
	"net/http"

	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/jwtx"
	"github.com/tukcommunity/backend/pkg/metricsx"
	"github.com/tukcommunity/backend/pkg/slogx"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/tukcommunity/backend/api/accounts" // Swagger docs
	"github.com/unrolled/secure"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "TukCommunity Backend API"

// Options controls the environment dependent parts of the HTTP surface.
type Options struct {
	// Production enables SSL redirects, HSTS and the allowed host check, and
	// restricts CORS to AllowedOrigins.
	Production     bool
	AllowedOrigins []string
	AllowedHosts   []string
	MetricsEnabled bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier jwtx.Verifier
	store    store.Store
	logger   *slog.Logger
	opts     Options

	SignupService *service.SignupService
	TokenService  *service.TokenService
	RolesService  *service.RolesService
}

func NewRouter(verifier jwtx.Verifier, st store.Store, logger *slog.Logger, opts Options) *Router {
	r := &Router{
		Mux:      http.NewServeMux(),
		verifier: verifier,
		store:    st,
		logger:   logger,
		opts:     opts,
	}

	// Set default middleware chain, outermost first
	r.middlewares = []httpx.Middleware{slogx.HTTPMiddleware(r.logger)}
	if opts.MetricsEnabled {
		r.middlewares = append(r.middlewares, metricsx.Middleware())
	}
	r.middlewares = append(r.middlewares,
		newCORS(opts).Handler,
		newSecure(opts).Handler,
	)

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerRoles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TukCommunity Backend API
//	@version		0.1.0
//	@description	Account registration and JWT session management for the TukCommunity service.
//	@description
//	@description				Access and refresh tokens are HS256 signed JWTs. Send the access token as "Bearer {token}".
//
//	@contact.name				TukCommunity Team
//
//	@host						localhost:8000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	r.Mux.Handle("POST /api/accounts/signup/{$}", &SignupHandler{SignupService: r.SignupService})
	r.Mux.Handle("POST /api/accounts/login/{$}", &LoginHandler{TokenService: r.TokenService})
	r.Mux.Handle("POST /api/accounts/token/refresh/{$}", &RefreshHandler{TokenService: r.TokenService})

	r.Mux.Handle("POST /api/accounts/logout/{$}",
		httpx.Chain(&LogoutHandler{TokenService: r.TokenService},
			httpx.AuthnMiddleware(r.verifier),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequirePermission(canViewRoles),
	)

	r.Mux.Handle("GET /api/accounts/roles/{$}", secured)
}

func canViewRoles(authority int) bool {
	return domain.HasPerm(domain.Role{Authority: authority}, domain.PermViewRole)
}

func (r *Router) registerSystem() {
	health := HealthHandler(r.store, ServiceName)
	r.Mux.Handle("GET /{$}", health)
	r.Mux.Handle("GET /health", health)
	r.Mux.Handle("GET /health/{$}", health)

	if r.opts.MetricsEnabled {
		r.Mux.Handle("GET /metrics", metricsx.Handler())
	}
}

func newCORS(opts Options) *cors.Cors {
	o := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", slogx.RequestIDHeader},
		ExposedHeaders:   []string{slogx.RequestIDHeader},
		AllowCredentials: true,
	}
	if opts.Production {
		o.AllowedOrigins = opts.AllowedOrigins
	} else {
		// Any origin, echoed back so credentials keep working.
		o.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(o)
}

func newSecure(opts Options) *secure.Secure {
	return secure.New(secure.Options{
		AllowedHosts:       opts.AllowedHosts,
		SSLRedirect:        true,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		FrameDeny:          true,
		IsDevelopment:      !opts.Production,
	})
}
