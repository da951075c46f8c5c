package routes

import (
	"log/slog"
	"time"

	"github.com/BradenHooton/authguard/internal/auth"
	"github.com/BradenHooton/authguard/internal/handlers"
	"github.com/BradenHooton/authguard/internal/middleware"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Options configures the router
type Options struct {
	Env          string
	IPConfig     *pkghttp.IPConfig
	APIRateLimit int
	Timeout      time.Duration
	Logger       *slog.Logger
	// ServiceKey authenticates the login glue on mutating routes
	ServiceKey *auth.ServiceKey
}

// NewRouter builds the router with the shared middleware stack and every route
func NewRouter(
	opts Options,
	guardHandler *handlers.GuardHandler,
	toolsHandler *handlers.ToolsHandler,
	healthHandler *handlers.HealthHandler,
) chi.Router {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middleware.SecureLogger(opts.Logger, opts.IPConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(opts.Timeout))

	RegisterRoutes(router, guardHandler, toolsHandler, healthHandler, middleware.RateLimitConfig{
		RequestsPerMinute: opts.APIRateLimit,
		IPConfig:          opts.IPConfig,
	}, opts.ServiceKey)

	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	guardHandler *handlers.GuardHandler,
	toolsHandler *handlers.ToolsHandler,
	healthHandler *handlers.HealthHandler,
	rateLimitConfig middleware.RateLimitConfig,
	serviceKey *auth.ServiceKey,
) {
	router.Get("/health", healthHandler.Health)

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/password/strength", toolsHandler.PasswordStrength)
		r.Post("/fingerprint", toolsHandler.Fingerprint)
		r.Post("/payload/seal", toolsHandler.Seal)
		r.Post("/payload/open", toolsHandler.Open)

		r.Post("/login/precheck", guardHandler.Precheck)
		r.Post("/activity/detect", guardHandler.Detect)

		// Only the login glue may record outcomes or forgive identifiers
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireServiceKey(serviceKey))
			r.Post("/login/outcome", guardHandler.Outcome)
			r.Get("/ratelimit/{identifier}", guardHandler.RateLimitStatus)
			r.Delete("/ratelimit/{identifier}", guardHandler.RateLimitReset)
		})
	})
}
