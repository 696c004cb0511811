package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

const defaultSecurityPatch = "N/A"

// Scanner fans one risk policy out over every installed package and audits
// the device alongside it
type Scanner struct {
	policy   RiskPolicy
	system   *SystemAuditor
	observer ScanObserver
	workers  int
	logger   *logger.Logger
}

// ScannerConfig holds scanner options
type ScannerConfig struct {
	// Workers bounds concurrent package audits. Zero uses GOMAXPROCS.
	Workers  int
	Observer ScanObserver
}

// NewScanner creates a new scanner
func NewScanner(policy RiskPolicy, system *SystemAuditor, cfg ScannerConfig, log *logger.Logger) *Scanner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &Scanner{
		policy:   policy,
		system:   system,
		observer: observer,
		workers:  workers,
		logger:   log.WithComponent("scanner"),
	}
}

// Policy returns the policy packages are scored with
func (s *Scanner) Policy() RiskPolicy {
	return s.policy
}

// packageOutcome is the per-package result slot filled by a worker
type packageOutcome struct {
	name  string
	audit *models.AppAudit
	err   error
}

// Scan audits every package and the device settings. It always returns a
// report; packages that fail are dropped and counted. When ctx is cancelled
// the report holds whatever completed.
func (s *Scanner) Scan(ctx context.Context, mode models.AuditMode, packages PackageProvider, settings SettingsProvider) *models.ScanReport {
	report := &models.ScanReport{
		ID:        uuid.New(),
		Mode:      mode,
		Policy:    s.policy.Name(),
		StartedAt: time.Now().UTC(),
	}
	scanID := report.ID.String()
	s.observer.ScanStarted(scanID, mode, report.Policy)

	var deviceFindings []models.AuditFinding
	var device models.DeviceInfo
	systemDone := make(chan struct{})
	go func() {
		defer close(systemDone)
		device = s.deviceInfo(ctx, settings)
		deviceFindings = s.system.Audit(ctx, settings)
	}()

	apps, failed := s.auditPackages(ctx, scanID, mode, packages)
	<-systemDone

	report.Device = device
	report.Apps = apps
	report.DeviceFindings = deviceFindings
	report.Summary = models.NewScanSummary(apps, deviceFindings, failed)
	report.CompletedAt = time.Now().UTC()

	s.observer.ScanCompleted(report)
	return report
}

// AuditApps audits every package without the device checks
func (s *Scanner) AuditApps(ctx context.Context, mode models.AuditMode, packages PackageProvider) []models.AppAudit {
	apps, _ := s.auditPackages(ctx, uuid.NewString(), mode, packages)
	return apps
}

// AuditPackage audits a single package by name
func (s *Scanner) AuditPackage(ctx context.Context, mode models.AuditMode, packages PackageProvider, packageName string) (*models.AppAudit, error) {
	record, err := packages.GetPackage(ctx, packageName)
	if err != nil {
		return nil, fmt.Errorf("failed to read package %s: %w", packageName, err)
	}
	return s.policy.Assess(ctx, record, mode)
}

// auditPackages runs the policy on a bounded pool, then sorts by score
// descending. Ties keep enumeration order.
func (s *Scanner) auditPackages(ctx context.Context, scanID string, mode models.AuditMode, packages PackageProvider) ([]models.AppAudit, int) {
	names, err := packages.ListPackages(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("scan_id", scanID).Msg("failed to list packages")
		return []models.AppAudit{}, 0
	}

	outcomes := make([]packageOutcome, len(names))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = s.auditOne(ctx, scanID, mode, packages, name)
			return nil
		})
	}
	_ = g.Wait()

	apps := make([]models.AppAudit, 0, len(outcomes))
	failed := 0
	for _, outcome := range outcomes {
		if outcome.err != nil {
			failed++
			if !errors.Is(outcome.err, context.Canceled) && !errors.Is(outcome.err, context.DeadlineExceeded) {
				s.observer.PackageFailed(scanID, outcome.name, outcome.err)
			}
			continue
		}
		apps = append(apps, *outcome.audit)
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].RiskScore > apps[j].RiskScore
	})

	return apps, failed
}

func (s *Scanner) auditOne(ctx context.Context, scanID string, mode models.AuditMode, packages PackageProvider, name string) packageOutcome {
	outcome := packageOutcome{name: name}
	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}

	start := time.Now()
	record, err := packages.GetPackage(ctx, name)
	if err != nil {
		outcome.err = fmt.Errorf("failed to read package: %w", err)
		return outcome
	}

	audit, err := s.policy.Assess(ctx, record, mode)
	if err != nil {
		outcome.err = fmt.Errorf("failed to assess package: %w", err)
		return outcome
	}

	outcome.audit = audit
	s.observer.PackageAudited(scanID, audit, time.Since(start))
	return outcome
}

func (s *Scanner) deviceInfo(ctx context.Context, settings SettingsProvider) models.DeviceInfo {
	info, err := settings.DeviceInfo(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read device info")
		info = models.DeviceInfo{}
	}
	if info.SecurityPatch == "" {
		info.SecurityPatch = defaultSecurityPatch
	}
	return info
}
