package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanSummary aggregates one scan's app results by tier
type ScanSummary struct {
	TotalApps      int          `json:"total_apps"`
	FailedPackages int          `json:"failed_packages"`
	ByRisk         map[Risk]int `json:"by_risk"`
	DeviceFindings int          `json:"device_findings"`
	DeviceWeight   int          `json:"device_weight"`
}

// ScanReport is everything a scan hands to reporting. Reporting reads it and
// never calls back into the engine.
type ScanReport struct {
	ID             uuid.UUID      `json:"id"`
	Mode           AuditMode      `json:"mode"`
	Policy         string         `json:"policy"`
	Device         DeviceInfo     `json:"device"`
	Apps           []AppAudit     `json:"apps"`
	DeviceFindings []AuditFinding `json:"device_findings"`
	Summary        ScanSummary    `json:"summary"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// NewScanSummary counts apps per tier and totals device findings
func NewScanSummary(apps []AppAudit, deviceFindings []AuditFinding, failed int) ScanSummary {
	summary := ScanSummary{
		TotalApps:      len(apps),
		FailedPackages: failed,
		ByRisk:         make(map[Risk]int, len(AllRisks)),
		DeviceFindings: len(deviceFindings),
	}
	for _, r := range AllRisks {
		summary.ByRisk[r] = 0
	}
	for _, app := range apps {
		summary.ByRisk[app.Risk]++
	}
	for _, f := range deviceFindings {
		summary.DeviceWeight += f.Weight
	}
	return summary
}
