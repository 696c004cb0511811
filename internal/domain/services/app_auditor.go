package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

// ErrInvalidPackage is returned when a package record cannot be audited
var ErrInvalidPackage = errors.New("invalid package record")

// ScoreAggregation controls how direct layer contributions and finding
// weights combine into the final score
type ScoreAggregation string

const (
	// AggregationSingle counts every signal once: the dangerous permission
	// contribution plus the weight of every finding
	AggregationSingle ScoreAggregation = "single"
	// AggregationLegacy adds each layer's score and then the weight of every
	// finding again, so findings from signature, tracker, integrity, indicator
	// and penalty checks count twice
	AggregationLegacy ScoreAggregation = "legacy"
)

// ParseScoreAggregation parses a configured aggregation name
func ParseScoreAggregation(s string) (ScoreAggregation, error) {
	switch ScoreAggregation(strings.ToLower(strings.TrimSpace(s))) {
	case "", AggregationSingle:
		return AggregationSingle, nil
	case AggregationLegacy:
		return AggregationLegacy, nil
	default:
		return "", fmt.Errorf("unknown score aggregation %q", s)
	}
}

const (
	dangerousPermissionWeight = 12
	unknownSourceDangerousMin = 3
	maxRiskScore              = 100
	defaultVersionName        = "N/A"
)

// AppAuditor runs the layered detection pipeline over one package at a time.
// It holds no per-scan state and is safe for concurrent use.
type AppAuditor struct {
	refdb        ReferenceDatabase
	aggregation  ScoreAggregation
	archiveRoots []string
	logger       *logger.Logger
}

// NewAppAuditor creates a new layered app auditor
func NewAppAuditor(refdb ReferenceDatabase, aggregation ScoreAggregation, log *logger.Logger) *AppAuditor {
	if aggregation == "" {
		aggregation = AggregationSingle
	}
	return &AppAuditor{
		refdb:       refdb,
		aggregation: aggregation,
		logger:      log.WithComponent("app-auditor"),
	}
}

// WithArchiveRoots limits integrity checks to archives under the given
// directories. Without roots every readable path is inspected.
func (a *AppAuditor) WithArchiveRoots(roots ...string) *AppAuditor {
	a.archiveRoots = nil
	for _, root := range roots {
		if root = strings.TrimSpace(root); root != "" {
			a.archiveRoots = append(a.archiveRoots, filepath.Clean(root))
		}
	}
	return a
}

// Name identifies the policy in reports
func (a *AppAuditor) Name() string {
	return PolicyLayered
}

// Classify maps a score to the four-tier scale
func (a *AppAuditor) Classify(score int) models.Risk {
	return ClassifyLayeredScore(score)
}

// Aggregation returns the configured aggregation strategy
func (a *AppAuditor) Aggregation() ScoreAggregation {
	return a.aggregation
}

// Assess audits a single package
func (a *AppAuditor) Assess(ctx context.Context, pkg *models.PackageRecord, mode models.AuditMode) (*models.AppAudit, error) {
	if pkg == nil || pkg.PackageName == "" {
		return nil, ErrInvalidPackage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if IsSystemOverlayOrResource(pkg.PackageName, pkg.SourceDir) {
		return excludedAudit(pkg), nil
	}

	source := DetectInstallSource(pkg.Installer)
	permissions := classifyPermissions(pkg.Permissions)
	dangerous := countDangerous(permissions)

	var findings []models.AuditFinding
	direct := dangerous * dangerousPermissionWeight
	layered := 0

	collect := func(r securityCheckResult) {
		findings = append(findings, r.findings...)
		layered += r.score
	}

	collect(a.checkSignatures(pkg))
	collect(a.checkTrackers(pkg))
	findings = append(findings, a.checkHeuristics(pkg)...)

	if mode == models.AuditModeFull {
		collect(a.checkIntegrity(pkg))
		collect(a.checkIndicators(pkg))
	}

	if source == models.InstallSourceUnknown && dangerous > unknownSourceDangerousMin {
		var penalty securityCheckResult
		penalty.add(FindingUnknownSource,
			"Unverified source with sensitive permissions",
			fmt.Sprintf("Unknown install source and %d dangerous permissions", dangerous),
			25)
		collect(penalty)
	}

	score := direct + sumWeights(findings)
	if a.aggregation == AggregationLegacy {
		score += layered
	}
	score = clampScore(score)

	audit := &models.AppAudit{
		AppName:       appName(pkg),
		PackageName:   pkg.PackageName,
		VersionName:   versionName(pkg),
		IsSystemApp:   source == models.InstallSourceSystem,
		InstallSource: source,
		Permissions:   permissions,
		Findings:      nonNilFindings(findings),
		RiskScore:     score,
		Risk:          a.Classify(score),
	}

	a.logger.Debug().
		Str("package", pkg.PackageName).
		Str("mode", string(mode)).
		Int("findings", len(audit.Findings)).
		Int("risk_score", audit.RiskScore).
		Str("risk", string(audit.Risk)).
		Msg("package audited")

	return audit, nil
}

// ClassifyLayeredScore maps a score to CRITICAL, HIGH, MEDIUM or LOW
func ClassifyLayeredScore(score int) models.Risk {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// excludedAudit is the fixed result for platform overlays and resources
func excludedAudit(pkg *models.PackageRecord) *models.AppAudit {
	return &models.AppAudit{
		AppName:       appName(pkg),
		PackageName:   pkg.PackageName,
		VersionName:   versionName(pkg),
		IsSystemApp:   true,
		InstallSource: models.InstallSourceSystem,
		Permissions:   []models.AppPermission{},
		Findings:      []models.AuditFinding{},
		RiskScore:     0,
		Risk:          models.RiskLow,
	}
}

func appName(pkg *models.PackageRecord) string {
	if pkg.Label != "" {
		return pkg.Label
	}
	return pkg.PackageName
}

func versionName(pkg *models.PackageRecord) string {
	if pkg.VersionName != "" {
		return pkg.VersionName
	}
	return defaultVersionName
}

func sumWeights(findings []models.AuditFinding) int {
	total := 0
	for _, f := range findings {
		total += f.Weight
	}
	return total
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

func nonNilFindings(findings []models.AuditFinding) []models.AuditFinding {
	if findings == nil {
		return []models.AuditFinding{}
	}
	return findings
}
