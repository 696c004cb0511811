package services

import (
	"context"
	"fmt"
	"strings"

	"guardian-audit/internal/domain/models"
)

// Policy names
const (
	PolicyLayered    = "layered"
	PolicyPermission = "permission"
)

// RiskPolicy scores a package and classifies the score into a tier. The
// layered auditor and the permission policy are independent strategies with
// their own weights and thresholds.
type RiskPolicy interface {
	Name() string
	Classify(score int) models.Risk
	Assess(ctx context.Context, pkg *models.PackageRecord, mode models.AuditMode) (*models.AppAudit, error)
}

// NewRiskPolicy returns the policy registered under name
func NewRiskPolicy(name string, auditor *AppAuditor) (RiskPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyLayered:
		return auditor, nil
	case PolicyPermission:
		return NewPermissionRiskPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown risk policy %q", name)
	}
}

// ScoringInput is what the permission policy looks at
type ScoringInput struct {
	Permissions   []models.AppPermission
	InstallSource models.InstallSource
	HasInternet   bool
	IsSystemApp   bool
	ArchivePath   string
	PackageName   string
}

// permissionCategoryWeight is checked in order; the first match wins
type permissionCategoryWeight struct {
	keyword string
	weight  int
}

var permissionCategoryWeights = []permissionCategoryWeight{
	{keyword: "LOCATION", weight: 30},
	{keyword: "CONTACT", weight: 30},
	{keyword: "AUDIO", weight: 25},
	{keyword: "CAMERA", weight: 25},
	{keyword: "PHONE", weight: 20},
}

const (
	otherDangerousWeight = 10
	internetWeight       = 20
	internetPermission   = "android.permission.INTERNET"
)

var installSourcePenalties = map[models.InstallSource]int{
	models.InstallSourceUnknown:  30,
	models.InstallSourceSideload: 20,
	models.InstallSourceADB:      15,
}

// CalculatePermissionRisk scores permissions and install source on a
// three-tier scale
func CalculatePermissionRisk(in ScoringInput) (int, models.Risk) {
	if IsSystemOverlayOrResource(in.PackageName, in.ArchivePath) {
		return 0, models.RiskLow
	}

	score := 0
	for _, p := range in.Permissions {
		if !p.Dangerous {
			continue
		}
		score += dangerousCategoryWeight(p.Name)
	}

	if in.HasInternet {
		score += internetWeight
	}

	if !in.IsSystemApp && !isSystemPath(in.ArchivePath) {
		score += installSourcePenalties[in.InstallSource]
	}

	score = clampScore(score)
	return score, ClassifyPermissionScore(score)
}

func dangerousCategoryWeight(permission string) int {
	for _, c := range permissionCategoryWeights {
		if strings.Contains(permission, c.keyword) {
			return c.weight
		}
	}
	return otherDangerousWeight
}

// ClassifyPermissionScore maps a score to HIGH, MEDIUM or LOW
func ClassifyPermissionScore(score int) models.Risk {
	switch {
	case score >= 70:
		return models.RiskHigh
	case score >= 40:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// PermissionRiskPolicy adapts CalculatePermissionRisk to RiskPolicy. It
// produces no findings and ignores the audit mode.
type PermissionRiskPolicy struct{}

// NewPermissionRiskPolicy creates the permission policy
func NewPermissionRiskPolicy() *PermissionRiskPolicy {
	return &PermissionRiskPolicy{}
}

// Name identifies the policy in reports
func (p *PermissionRiskPolicy) Name() string {
	return PolicyPermission
}

// Classify maps a score to the three-tier scale
func (p *PermissionRiskPolicy) Classify(score int) models.Risk {
	return ClassifyPermissionScore(score)
}

// Assess scores one package
func (p *PermissionRiskPolicy) Assess(ctx context.Context, pkg *models.PackageRecord, _ models.AuditMode) (*models.AppAudit, error) {
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
	isSystem := source == models.InstallSourceSystem

	score, risk := CalculatePermissionRisk(ScoringInput{
		Permissions:   permissions,
		InstallSource: source,
		HasInternet:   hasPermission(pkg.Permissions, internetPermission),
		IsSystemApp:   isSystem,
		ArchivePath:   pkg.SourceDir,
		PackageName:   pkg.PackageName,
	})

	return &models.AppAudit{
		AppName:       appName(pkg),
		PackageName:   pkg.PackageName,
		VersionName:   versionName(pkg),
		IsSystemApp:   isSystem,
		InstallSource: source,
		Permissions:   permissions,
		Findings:      []models.AuditFinding{},
		RiskScore:     score,
		Risk:          risk,
	}, nil
}

func hasPermission(permissions []string, name string) bool {
	for _, p := range permissions {
		if p == name {
			return true
		}
	}
	return false
}
