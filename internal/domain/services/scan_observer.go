package services

import (
	"time"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

// ScanObserver receives scan progress. PackageAudited may be called from
// several goroutines at once; the other callbacks are called from the
// goroutine running the scan.
type ScanObserver interface {
	ScanStarted(scanID string, mode models.AuditMode, policy string)
	PackageAudited(scanID string, audit *models.AppAudit, elapsed time.Duration)
	PackageFailed(scanID, packageName string, err error)
	ScanCompleted(report *models.ScanReport)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) ScanStarted(string, models.AuditMode, string) {}
func (NopObserver) PackageAudited(string, *models.AppAudit, time.Duration) {}
func (NopObserver) PackageFailed(string, string, error) {}
func (NopObserver) ScanCompleted(*models.ScanReport) {}

// MultiObserver fans events out to several observers in order
type MultiObserver []ScanObserver

func (m MultiObserver) ScanStarted(scanID string, mode models.AuditMode, policy string) {
	for _, o := range m {
		o.ScanStarted(scanID, mode, policy)
	}
}

func (m MultiObserver) PackageAudited(scanID string, audit *models.AppAudit, elapsed time.Duration) {
	for _, o := range m {
		o.PackageAudited(scanID, audit, elapsed)
	}
}

func (m MultiObserver) PackageFailed(scanID, packageName string, err error) {
	for _, o := range m {
		o.PackageFailed(scanID, packageName, err)
	}
}

func (m MultiObserver) ScanCompleted(report *models.ScanReport) {
	for _, o := range m {
		o.ScanCompleted(report)
	}
}

// LogObserver writes scan progress to the structured logger
type LogObserver struct {
	logger *logger.Logger
}

// NewLogObserver creates a new log observer
func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{logger: log.WithComponent("scan")}
}

func (o *LogObserver) ScanStarted(scanID string, mode models.AuditMode, policy string) {
	o.logger.WithScanID(scanID).Info().
		Str("mode", string(mode)).
		Str("policy", policy).
		Msg("scan started")
}

func (o *LogObserver) PackageAudited(scanID string, audit *models.AppAudit, elapsed time.Duration) {
	if audit.Risk.Rank() < models.RiskHigh.Rank() {
		return
	}
	o.logger.WithScanID(scanID).Info().
		Str("package", audit.PackageName).
		Int("risk_score", audit.RiskScore).
		Str("risk", string(audit.Risk)).
		Dur("elapsed", elapsed).
		Msg("high risk package")
}

func (o *LogObserver) PackageFailed(scanID, packageName string, err error) {
	o.logger.WithScanID(scanID).Warn().
		Err(err).
		Str("package", packageName).
		Msg("package dropped from scan")
}

func (o *LogObserver) ScanCompleted(report *models.ScanReport) {
	o.logger.WithScanID(report.ID.String()).Info().
		Int("apps", report.Summary.TotalApps).
		Int("failed", report.Summary.FailedPackages).
		Int("critical", report.Summary.ByRisk[models.RiskCritical]).
		Int("high", report.Summary.ByRisk[models.RiskHigh]).
		Int("device_findings", report.Summary.DeviceFindings).
		Dur("duration", report.CompletedAt.Sub(report.StartedAt)).
		Msg("scan completed")
}
