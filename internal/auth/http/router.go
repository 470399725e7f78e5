package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"

	_ "github.com/aussiebroadwan/doorman/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 64 << 10

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	stores       store.Pinger
	metrics      *metrics.Metrics
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	AuthService *service.AuthService
	Cookie      httpx.SessionCookie

	// StrictLimit applies per IP to the credential endpoints, PublicLimit
	// to everything else.
	StrictLimit httpx.RateLimitConfig
	PublicLimit httpx.RateLimitConfig
	TrustProxy  bool
}

func NewRouter(
	keys *jwtx.KeySet,
	stores store.Pinger,
	m *metrics.Metrics,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		stores:       stores,
		metrics:      m,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Cookie:       httpx.SessionCookie{Name: "jwt"},
		StrictLimit:  httpx.StrictLimit,
		PublicLimit:  httpx.PublicLimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		m.Middleware,
		httpx.Recover(),
		httpx.MaxBody(MaxBodyBytes),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Doorman Authentication Service API
//	@version		0.1.0
//	@description	Email and password authentication with an optional emailed second factor.
//	@description
//	@description	Sessions are Ed25519-signed JWTs carried in an HttpOnly cookie and can be verified offline using the JWKS endpoint.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/doorman
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Auth:    r.AuthService,
		Cookie:  r.Cookie,
		Metrics: r.metrics,
	}

	// One strict limiter across all credential endpoints.
	strict := httpx.RateLimitByIP(r.StrictLimit, r.TrustProxy)
	public := httpx.RateLimitByIP(r.PublicLimit, r.TrustProxy)

	r.Mux.Handle("POST /signup", httpx.Chain(http.HandlerFunc(h.HandleSignup), strict))
	r.Mux.Handle("POST /login", httpx.Chain(http.HandlerFunc(h.HandleLogin), strict))
	r.Mux.Handle("POST /verify-2fa", httpx.Chain(http.HandlerFunc(h.HandleVerifyTwoFactor), strict))

	r.Mux.Handle("POST /verify-token", httpx.Chain(http.HandlerFunc(h.HandleVerifyToken), public))
	r.Mux.Handle("POST /logout", httpx.Chain(http.HandlerFunc(h.HandleLogout), public))
}

func (r *Router) registerSystem() {
	public := httpx.RateLimitByIP(r.PublicLimit, r.TrustProxy)

	r.Mux.Handle("GET /.well-known/jwks.json", httpx.Chain(JWKSHandler(r.keys), public))
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.stores, r.keys))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
