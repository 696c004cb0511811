package handlers

import (
	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/infrastructure/database"
	"guardian-audit/internal/infrastructure/refdb"
	"guardian-audit/internal/streaming"
	"guardian-audit/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Audit     *AuditHandler
	Reports   *ReportsHandler
	Reference *ReferenceHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers. Cache, Postgres, WSHub and
// EventBus may be nil.
type Dependencies struct {
	Version     string
	DefaultMode models.AuditMode
	Locale      models.Locale
	Scanner     *services.Scanner
	System      *services.SystemAuditor
	Reference   *refdb.Database
	Reports     cache.ReportStore
	Cache       *cache.RedisCache
	Postgres    *database.PostgresDB
	WSHub       *streaming.WebSocketHub
	EventBus    *streaming.EventBus
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Cache, deps.Postgres, deps.Logger),
		Audit:     NewAuditHandler(deps.Scanner, deps.System, deps.Reports, deps.DefaultMode, deps.Logger),
		Reports:   NewReportsHandler(deps.Reports, deps.Locale, deps.Logger),
		Reference: NewReferenceHandler(deps.Reference, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}
