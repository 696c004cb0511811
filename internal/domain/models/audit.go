package models

import (
	"strings"
)

// Risk is the tier an audited package falls into
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
)

// Rank orders tiers so that a riskier tier compares greater.
func (r Risk) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// AllRisks lists tiers from most to least severe
var AllRisks = []Risk{RiskCritical, RiskHigh, RiskMedium, RiskLow}

// InstallSource represents the channel a package was installed through
type InstallSource string

const (
	InstallSourcePlayStore InstallSource = "play_store"
	InstallSourceAmazon    InstallSource = "amazon"
	InstallSourceSamsung   InstallSource = "samsung"
	InstallSourceADB       InstallSource = "adb"
	InstallSourceSystem    InstallSource = "system"
	InstallSourceUnknown   InstallSource = "unknown"
	InstallSourceSideload  InstallSource = "sideload"
)

// AuditMode selects which layers run
type AuditMode string

const (
	// AuditModeQuick runs signature and heuristic layers only
	AuditModeQuick AuditMode = "quick"
	// AuditModeFull adds archive integrity and indicator-of-compromise layers
	AuditModeFull AuditMode = "full"
)

// ParseAuditMode parses a user supplied mode, case-insensitively
func ParseAuditMode(s string) (AuditMode, bool) {
	switch AuditMode(strings.ToLower(strings.TrimSpace(s))) {
	case AuditModeQuick:
		return AuditModeQuick, true
	case AuditModeFull:
		return AuditModeFull, true
	default:
		return "", false
	}
}

// AppPermission is a permission requested by a package
type AppPermission struct {
	Name      string `json:"name"`
	Dangerous bool   `json:"dangerous"`
}

// AuditFinding is one weighted observation about a package or the device.
// Findings are values and are never modified after creation.
type AuditFinding struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// AppAudit is the audit outcome for one installed package
type AppAudit struct {
	AppName       string          `json:"app_name"`
	PackageName   string          `json:"package_name"`
	VersionName   string          `json:"version_name"`
	IsSystemApp   bool            `json:"is_system_app"`
	InstallSource InstallSource   `json:"install_source"`
	Permissions   []AppPermission `json:"permissions"`
	Findings      []AuditFinding  `json:"findings"`
	RiskScore     int             `json:"risk_score"` // 0-100
	Risk          Risk            `json:"risk"`
}

// HasFinding reports whether the audit carries a finding with the given id
func (a *AppAudit) HasFinding(id string) bool {
	for _, f := range a.Findings {
		if f.ID == id {
			return true
		}
	}
	return false
}

// MalwareMatch is a reference database hit on a certificate or package name
type MalwareMatch struct {
	Name string `json:"name"`
}

// TrackerMatch is a reference database hit on a tracker library
type TrackerMatch struct {
	Name      string `json:"name"`
	RiskScore int    `json:"risk_score"`
}
