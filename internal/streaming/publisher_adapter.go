package streaming

import (
	"context"
	"time"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

const publishTimeout = 5 * time.Second

// EventBusPublisher implements services.ScanObserver using the EventBus
type EventBusPublisher struct {
	eventBus *EventBus
	wsHub    *WebSocketHub
	minRisk  models.Risk
	logger   *logger.Logger
}

// NewEventBusPublisher creates a new publisher adapter. Apps at or above
// minRisk produce a high_risk_app event.
func NewEventBusPublisher(eventBus *EventBus, wsHub *WebSocketHub, minRisk models.Risk, log *logger.Logger) *EventBusPublisher {
	if minRisk == "" {
		minRisk = models.RiskHigh
	}
	return &EventBusPublisher{
		eventBus: eventBus,
		wsHub:    wsHub,
		minRisk:  minRisk,
		logger:   log.WithComponent("event-publisher"),
	}
}

func (p *EventBusPublisher) publish(event *ScanEvent) {
	if p.eventBus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.eventBus.Publish(ctx, event); err != nil {
			p.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
		}
	}

	if p.wsHub != nil {
		p.wsHub.BroadcastEvent(event)
	}
}

func (p *EventBusPublisher) ScanStarted(scanID string, mode models.AuditMode, policy string) {
	p.publish(NewScanStartedEvent(scanID, mode, policy))
}

func (p *EventBusPublisher) PackageAudited(scanID string, audit *models.AppAudit, _ time.Duration) {
	if audit.Risk.Rank() < p.minRisk.Rank() {
		return
	}
	p.publish(NewHighRiskAppEvent(scanID, audit))
}

func (p *EventBusPublisher) PackageFailed(string, string, error) {}

func (p *EventBusPublisher) ScanCompleted(report *models.ScanReport) {
	p.publish(NewScanCompletedEvent(report))
	if len(report.DeviceFindings) > 0 {
		p.publish(NewDeviceFindingsEvent(report))
	}
}
