package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/service"
	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/internal/admin/store"
	"github.com/aussiebroadwan/backoffice/pkg/adminapi"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"

	_ "github.com/aussiebroadwan/backoffice/api/admin" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultAccessConfig classifies the admin surface. Ceremony and login
// endpoints stay reachable without a session; everything else under /admin
// and /api/admin requires one.
func DefaultAccessConfig(cookies httpx.CookiePolicy) httpx.AccessConfig {
	return httpx.AccessConfig{
		CookieName: adminapi.SessionCookie,
		LoginPath:  "/admin/login",
		HomePath:   "/admin",
		Protected:  []string{"/admin", "/api/admin"},
		AuthOnly:   []string{"/admin/login"},
		Excluded: []string{
			"/api/admin/login",
			"/api/admin/passkey/login",
			"/static/",
			"/swagger/",
			"/livez",
			"/readyz",
			"/favicon.ico",
		},
		Cookies: cookies,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler
	routes      sync.Once

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	access       httpx.AccessConfig

	store           store.Store
	Sessions        *session.Codec
	PasskeyService  *service.PasskeyService
	PasswordService *service.PasswordService
	// SecretConfigured is reported by /readyz.
	SecretConfigured bool
}

func NewRouter(
	buildVersion string,
	st store.Store,
	sessions *session.Codec,
	access httpx.AccessConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		access:       access,
		store:        st,
		Sessions:     sessions,
	}

	// Request logging first so access decisions are logged with a request id.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.AccessControl[session.Principal](r.access, sessions),
	}

	return r
}

// ApplyRoutes registers every route and builds the middleware chain. Service
// fields must be set before the first call; later calls are no-ops.
func (r *Router) ApplyRoutes() {
	r.routes.Do(r.applyRoutes)
}

func (r *Router) applyRoutes() {
	r.registerSession()
	r.registerPasskeys()
	r.registerPages()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Back Office Admin Authentication API
//	@version		0.1.0
//	@description	Passkey (WebAuthn) ceremonies, password fallback and session management for the single back-office administrator.
//	@description
//	@description	Sessions are stateless HS256 tokens carried in the httpOnly admin-session cookie.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/backoffice
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						admin-session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.ApplyRoutes()
	r.handler.ServeHTTP(w, req)
}

func (r *Router) starter() sessionStarter {
	return sessionStarter{Cookies: r.access.Cookies, HomePath: r.access.HomePath}
}

func (r *Router) registerSession() {
	h := &SessionHandler{sessionStarter: r.starter(), PasswordService: r.PasswordService}

	// POST /login - strict rate limit by IP (password brute force)
	r.Mux.Handle("POST /api/admin/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/admin/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/admin/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.RateLimitByPrincipal(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerPasskeys() {
	h := &PasskeyHandler{sessionStarter: r.starter(), PasskeyService: r.PasskeyService}

	// Registration requires a session (protected prefix).
	r.Mux.Handle("POST /api/admin/passkey/register/options",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterOptions),
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/admin/passkey/register/verify",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterVerify),
			httpx.RateLimitByPrincipal(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /api/admin/passkey/credentials",
		httpx.Chain(http.HandlerFunc(h.HandleListCredentials),
			httpx.RateLimitByPrincipal(httpx.LenientLimit),
		),
	)

	// Login ceremony is excluded from access control.
	r.Mux.Handle("POST /api/admin/passkey/login/options",
		httpx.Chain(http.HandlerFunc(h.HandleLoginOptions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	// Keyed on IP + binding cookie so one client cannot grind assertions,
	// and on IP alone so minting fresh cookies does not reset the count.
	r.Mux.Handle("POST /api/admin/passkey/login/verify",
		httpx.Chain(http.HandlerFunc(h.HandleLoginVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitByIPAndCookie(httpx.StrictLimit, adminapi.ChallengeCookie),
		),
	)
}

func (r *Router) registerPages() {
	r.Mux.Handle("GET /{$}",
		httpx.Chain(http.HandlerFunc(LandingHandler),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET "+r.access.HomePath,
		httpx.Chain(http.HandlerFunc(AdminHomeHandler),
			httpx.RateLimitByPrincipal(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET "+r.access.LoginPath,
		httpx.Chain(LoginPageHandler(r.access.HomePath),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.SecretConfigured),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
