package services

import (
	"fmt"
	"regexp"
	"strings"

	"guardian-audit/internal/domain/models"
)

const (
	deviceAdminPermission    = "android.permission.BIND_DEVICE_ADMIN"
	excessivePermissionCount = 25
)

var suspiciousNameFragments = []string{
	"com.app.test",
	"com.example",
	"com.android.test",
	"free.vpn",
	"free.antivirus",
	"hack",
	"crack",
	"mod",
	"pro.unlock",
	"premium.free",
	"cheat",
}

// impersonationTarget maps a popular app keyword to its legitimate package
type impersonationTarget struct {
	keyword   string
	packageID string
}

var impersonationTargets = []impersonationTarget{
	{keyword: "whatsapp", packageID: "com.whatsapp"},
	{keyword: "instagram", packageID: "com.instagram.android"},
	{keyword: "facebook", packageID: "com.facebook.katana"},
	{keyword: "twitter", packageID: "com.twitter.android"},
	{keyword: "telegram", packageID: "org.telegram.messenger"},
	{keyword: "tiktok", packageID: "com.zhiliaoapp.musically"},
	{keyword: "youtube", packageID: "com.google.android.youtube"},
	{keyword: "netflix", packageID: "com.netflix.mediaclient"},
	{keyword: "spotify", packageID: "com.spotify.music"},
}

var (
	longDigitRun   = regexp.MustCompile(`\d{4,}`)
	lookalikeChars = regexp.MustCompile(`[Il1oO0]{3,}`)
)

// checkHeuristics applies permission and naming rules. Findings from this
// layer count only through their weights.
func (a *AppAuditor) checkHeuristics(pkg *models.PackageRecord) []models.AuditFinding {
	findings := checkPermissionCombos(pkg.Permissions)

	if fragment, ok := suspiciousName(pkg.PackageName); ok {
		findings = append(findings, newFinding(FindingSuspiciousName,
			"Suspicious package name",
			fmt.Sprintf("Package name contains %q", fragment),
			18))
	}

	if anomalousStructure(pkg.PackageName) {
		findings = append(findings, newFinding(FindingAnomalousName,
			"Anomalous package structure",
			"Package name has single-character or long numeric segments",
			12))
	}

	findings = append(findings, impersonationFindings(pkg.PackageName, pkg.Label)...)

	if lookalikeChars.MatchString(pkg.PackageName) {
		findings = append(findings, newFinding(FindingObfuscatedName,
			"Obfuscated package name",
			"Package name uses runs of look-alike characters",
			15))
	}

	if n := countAdminReceivers(pkg.Receivers); n > 0 {
		findings = append(findings, newFinding(FindingDeviceAdmin,
			"Device administrator capability",
			fmt.Sprintf("%d exported receiver(s) require %s", n, deviceAdminPermission),
			30))
	}

	if len(pkg.Permissions) > excessivePermissionCount {
		findings = append(findings, newFinding(FindingExcessivePerms,
			"Excessive permissions",
			fmt.Sprintf("Requests %d permissions", len(pkg.Permissions)),
			15))
	}

	return findings
}

// suspiciousName returns the first suspicious fragment found in the name
func suspiciousName(packageName string) (string, bool) {
	lower := strings.ToLower(packageName)
	for _, fragment := range suspiciousNameFragments {
		if strings.Contains(lower, fragment) {
			return fragment, true
		}
	}
	return "", false
}

func anomalousStructure(packageName string) bool {
	for _, segment := range strings.Split(packageName, ".") {
		if len(segment) <= 1 {
			return true
		}
	}
	return longDigitRun.MatchString(packageName)
}

// impersonationFindings checks every target; several may fire for one package
func impersonationFindings(packageName, label string) []models.AuditFinding {
	lowerName := strings.ToLower(packageName)
	lowerLabel := strings.ToLower(label)

	var findings []models.AuditFinding
	for _, target := range impersonationTargets {
		if packageName == target.packageID {
			continue
		}
		if !strings.Contains(lowerLabel, target.keyword) && !strings.Contains(lowerName, target.keyword) {
			continue
		}
		findings = append(findings, newFinding(FindingImpersonation,
			"Possible impersonation",
			fmt.Sprintf("Uses the name %q but is not %s", target.keyword, target.packageID),
			40))
	}
	return findings
}

func countAdminReceivers(receivers []models.ExportedReceiver) int {
	n := 0
	for _, r := range receivers {
		if r.Permission == deviceAdminPermission {
			n++
		}
	}
	return n
}
