package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"

	_ "github.com/aussiebroadwan/fintrack/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	TrustedProxies httpx.TrustedProxies
	AuthService    *service.AuthService
	UserService    *service.UserService
	RateLimiter    *service.RateLimiter
	CaptchaService *service.CaptchaService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		r.realIP,
		slogx.HTTPMiddleware(r.logger),
		obsx.RecoverMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			fintrack Authentication Service API
//	@version		0.1.0
//	@description	Accounts, JWT sessions and login rate limiting for the fintrack personal finance tracker.
//	@description
//	@description				Access and refresh tokens are HS256 JWTs signed with separate secrets.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/fintrack
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
	httpx.Chain(obsx.Instrument(r.Mux), r.middlewares...).ServeHTTP(w, req)
}

// realIP reads TrustedProxies per request so it can be set after NewRouter.
func (r *Router) realIP(next http.Handler) http.Handler {
	return httpx.RealIP(r.TrustedProxies)(next)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Auth:    r.AuthService,
		Captcha: r.CaptchaService,
		Guard: &AttemptGuard{
			Limiter: r.RateLimiter,
			Captcha: r.CaptchaService,
		},
	}

	// Login and registration: edge burst guard by IP in front of the
	// persisted attempt limiter
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleUserLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/admin/login",
		httpx.Chain(http.HandlerFunc(h.HandleAdminLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Token endpoints - moderate rate limit by IP
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/captcha",
		httpx.Chain(http.HandlerFunc(h.HandleCaptcha),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			RequireRole(r.AuthService, domain.RoleUser),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/users/me", secured(h.HandleGetMe))
	r.Mux.Handle("PUT /v1/users/me", secured(h.HandleUpdateMe))
	r.Mux.Handle("DELETE /v1/users/me", secured(h.HandleDeleteMe))

	// Password change is a credential check, keep it strict
	r.Mux.Handle("POST /v1/users/me/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			RequireRole(r.AuthService, domain.RoleUser),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		Auth:    r.AuthService,
		Limiter: r.RateLimiter,
	}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			RequireRole(r.AuthService, domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/admin/admins", secured(h.HandleCreateAdmin))
	r.Mux.Handle("DELETE /v1/admin/rate-limits", secured(h.HandleClearRateLimits))
}

func (r *Router) registerSystem() {
	h := &HealthHandler{StartTime: r.startTime, Version: r.buildVersion, Store: r.store}

	// Monitoring systems poll these, so they get the public limit
	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(h.HandleLivez), httpx.RateLimitByIP(httpx.PublicLimit)))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(h.HandleReadyz), httpx.RateLimitByIP(httpx.PublicLimit)))
	r.Mux.Handle("GET /metrics", obsx.Handler())
}
