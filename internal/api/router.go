package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"guardian-audit/internal/api/handlers"
	apimiddleware "guardian-audit/internal/api/middleware"
	"guardian-audit/internal/config"
	"guardian-audit/internal/metrics"
	"guardian-audit/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config    config.Config
	handlers  *handlers.Handlers
	rateLimit apimiddleware.RateLimitStore
	metrics   *metrics.PrometheusMetrics
	logger    *logger.Logger
}

// NewRouter creates a new Router instance. rateLimit and m may be nil.
func NewRouter(cfg config.Config, h *handlers.Handlers, rateLimit apimiddleware.RateLimitStore, m *metrics.PrometheusMetrics, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		handlers:  h,
		rateLimit: rateLimit,
		metrics:   m,
		logger:    log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	if r.metrics != nil {
		router.Use(r.metrics.HTTPMiddleware)
	}

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)

		if r.metrics != nil && r.config.Metrics.Enabled {
			pub.Handle(r.config.Metrics.Path, r.metrics.Handler())
		}
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKeys))
		if r.config.RateLimit.Enabled && r.rateLimit != nil {
			api.Use(apimiddleware.RateLimiter(r.rateLimit, r.config.RateLimit))
		}

		// Audits run over a posted device snapshot
		api.Group(func(audit chi.Router) {
			audit.Use(middleware.Timeout(120 * time.Second))

			audit.Post("/scans", r.handlers.Audit.Scan)
			audit.Post("/apps/audit", r.handlers.Audit.AuditApps)
			audit.Post("/apps/{package}/audit", r.handlers.Audit.AuditApp)
			audit.Post("/system/audit", r.handlers.Audit.AuditSystem)
			audit.Post("/score", r.handlers.Audit.Score)
		})

		// Stored reports
		api.Route("/reports", func(reports chi.Router) {
			reports.Get("/", r.handlers.Reports.List)
			reports.Get("/latest", r.handlers.Reports.Latest)
			reports.Get("/{id}", r.handlers.Reports.Get)
			reports.Delete("/{id}", r.handlers.Reports.Delete)
			reports.Get("/{id}/summary", r.handlers.Reports.Summary)
		})

		// Reference database
		api.Route("/reference", func(ref chi.Router) {
			ref.Get("/stats", r.handlers.Reference.Stats)
			ref.Get("/lookup", r.handlers.Reference.Lookup)
		})

		api.Get("/streaming/stats", r.handlers.Streaming.GetStats)
	})

	// WebSocket streaming endpoint
	router.With(apimiddleware.APIKeyAuth(r.config.Auth.APIKeys)).Get("/ws/scans", r.handlers.Streaming.HandleWebSocket)

	return router
}
