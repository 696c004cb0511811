package handlers

import (
	"context"
	"net/http"
	"time"

	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/infrastructure/database"
	"guardian-audit/pkg/logger"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	version   string
	cache     *cache.RedisCache
	postgres  *database.PostgresDB
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, c *cache.RedisCache, pg *database.PostgresDB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		cache:     c,
		postgres:  pg,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - checks all configured dependencies
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"engine": "healthy"}
	status := http.StatusOK
	overallStatus := "ready"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
			return
		}
		checks[name] = "healthy"
	}

	if h.cache != nil {
		check("redis", h.cache.Ping)
	} else {
		checks["redis"] = "not configured"
	}

	if h.postgres != nil {
		check("postgres", h.postgres.Ping)
	} else {
		checks["postgres"] = "not configured"
	}

	respondJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
