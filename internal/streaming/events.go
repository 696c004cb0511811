package streaming

import (
	"time"

	"github.com/google/uuid"

	"guardian-audit/internal/domain/models"
)

// EventType represents the type of scan event
type EventType string

const (
	EventTypeScanStarted    EventType = "scan_started"
	EventTypeScanCompleted  EventType = "scan_completed"
	EventTypeHighRiskApp    EventType = "high_risk_app"
	EventTypeDeviceFindings EventType = "device_findings"
)

// ScanEvent represents a real-time scan update event
type ScanEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ScanID    string    `json:"scan_id"`

	// Scan details
	Mode    models.AuditMode    `json:"mode,omitempty"`
	Policy  string              `json:"policy,omitempty"`
	Summary *models.ScanSummary `json:"summary,omitempty"`

	// App details
	PackageName string                `json:"package_name,omitempty"`
	AppName     string                `json:"app_name,omitempty"`
	RiskScore   int                   `json:"risk_score,omitempty"`
	Risk        models.Risk           `json:"risk,omitempty"`
	Findings    []models.AuditFinding `json:"findings,omitempty"`
}

func newEvent(eventType EventType, scanID string) *ScanEvent {
	return &ScanEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ScanID:    scanID,
	}
}

// NewScanStartedEvent creates an event announcing a scan
func NewScanStartedEvent(scanID string, mode models.AuditMode, policy string) *ScanEvent {
	event := newEvent(EventTypeScanStarted, scanID)
	event.Mode = mode
	event.Policy = policy
	return event
}

// NewScanCompletedEvent creates an event carrying a report summary
func NewScanCompletedEvent(report *models.ScanReport) *ScanEvent {
	summary := report.Summary
	event := newEvent(EventTypeScanCompleted, report.ID.String())
	event.Mode = report.Mode
	event.Policy = report.Policy
	event.Summary = &summary
	return event
}

// NewHighRiskAppEvent creates an event for a single audited package
func NewHighRiskAppEvent(scanID string, audit *models.AppAudit) *ScanEvent {
	event := newEvent(EventTypeHighRiskApp, scanID)
	event.PackageName = audit.PackageName
	event.AppName = audit.AppName
	event.RiskScore = audit.RiskScore
	event.Risk = audit.Risk
	event.Findings = audit.Findings
	return event
}

// NewDeviceFindingsEvent creates an event listing device-level findings
func NewDeviceFindingsEvent(report *models.ScanReport) *ScanEvent {
	event := newEvent(EventTypeDeviceFindings, report.ID.String())
	event.Findings = report.DeviceFindings
	return event
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by event types (empty = all)
	Types []EventType `json:"types,omitempty"`

	// Minimum app risk for high_risk_app events (empty = all)
	MinRisk models.Risk `json:"min_risk,omitempty"`

	// Filter by packages (empty = all)
	Packages []string `json:"packages,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *ScanEvent) bool {
	if s == nil {
		return true
	}

	if len(s.Types) > 0 {
		found := false
		for _, t := range s.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if event.Type != EventTypeHighRiskApp {
		return true
	}

	if s.MinRisk != "" && event.Risk.Rank() < s.MinRisk.Rank() {
		return false
	}

	if len(s.Packages) > 0 {
		found := false
		for _, p := range s.Packages {
			if p == event.PackageName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
