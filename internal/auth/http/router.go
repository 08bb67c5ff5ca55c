package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tuckshop/internal/auth/domain"
	"github.com/aussiebroadwan/tuckshop/internal/auth/ledger"
	"github.com/aussiebroadwan/tuckshop/internal/auth/service"
	"github.com/aussiebroadwan/tuckshop/internal/auth/store"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/tuckshop/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	authn        *httpx.Authenticator
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	ledger ledger.Ledger

	SessionService *service.SessionService
	Cookie         CookieConfig
	Proxies        httpx.TrustedProxies
}

func NewRouter(
	authn *httpx.Authenticator,
	buildVersion string,
	st store.Store,
	l ledger.Ledger,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		authn:        authn,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		ledger:       l,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tuckshop Session Service API
//	@version		0.1.0
//	@description	Registration, login and session management for tuckshop.
//	@description
//	@description				Access tokens are short-lived HS256 JWTs sent as "Authorization: Bearer". Refresh tokens are rotated on every use and travel in the refresh_token cookie.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tuckshop
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{Sessions: r.SessionService, Cookie: r.Cookie}

	strict := httpx.ParseRateLimitFromEnv("STRICT", httpx.StrictLimit)

	// Login has two independent buckets: one per address, so a single
	// client cannot spray passwords across accounts, and one per identifier,
	// so rotating addresses cannot brute force one account.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(strict, r.Proxies),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(strict, r.Proxies),
			httpx.RateLimitByJSONField(strict, "identifier"),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(strict, r.Proxies),
		),
	)

	// Logout works with or without a live access token.
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn.OptionalAuth(),
			httpx.RateLimitByUser(httpx.ParseRateLimitFromEnv("MODERATE", httpx.ModerateLimit), r.Proxies),
		),
	)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{Sessions: r.SessionService}
	moderate := httpx.ParseRateLimitFromEnv("MODERATE", httpx.ModerateLimit)

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn.Authenticate(),
			httpx.RateLimitByUser(moderate, r.Proxies),
		)
	}

	r.Mux.Handle("GET /v1/auth/me", secured(h.HandleGetMe))
	r.Mux.Handle("PATCH /v1/auth/me", secured(h.HandleUpdateMe))
	r.Mux.Handle("GET /v1/auth/sessions", secured(h.HandleListSessions))
	r.Mux.Handle("DELETE /v1/auth/sessions", secured(h.HandleRevokeSessions))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Sessions: r.SessionService}
	moderate := httpx.ParseRateLimitFromEnv("MODERATE", httpx.ModerateLimit)

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn.Authenticate(),
			httpx.Authorize(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(moderate, r.Proxies),
		)
	}

	r.Mux.Handle("DELETE /v1/admin/users/{id}/sessions", admin(h.HandleRevokeUserSessions))
	r.Mux.Handle("PUT /v1/admin/users/{id}/active", admin(h.HandleSetActive))
	r.Mux.Handle("POST /v1/admin/sessions/sweep", admin(h.HandleSweep))
}

func (r *Router) registerSystem() {
	// Probes and scrapes are not rate limited; they come from the platform.
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.ledger))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
