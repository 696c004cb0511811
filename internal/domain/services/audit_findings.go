package services

import (
	"guardian-audit/internal/domain/models"
)

// Finding identifiers. Presentation layers key translations off these.
const (
	FindingMalwareSignature  = "malware_signature"
	FindingDebugCertificate  = "debug_certificate"
	FindingMalwarePackage    = "malware_package"
	FindingTrackerLibrary    = "tracker_library"
	FindingSuspiciousName    = "suspicious_name"
	FindingAnomalousName     = "anomalous_name"
	FindingImpersonation     = "impersonation"
	FindingObfuscatedName    = "obfuscated_name"
	FindingDeviceAdmin       = "device_admin"
	FindingExcessivePerms    = "excessive_permissions"
	FindingSmallArchive      = "small_archive"
	FindingModifiedArchive   = "modified_archive"
	FindingMultipleSigners   = "multiple_signers"
	FindingUnreadableArchive = "unreadable_archive"
	FindingMissingDex        = "missing_dex"
	FindingMissingManifest   = "missing_manifest"
	FindingTrackingIndicator = "tracking_indicator"
	FindingUnknownSource     = "unknown_source_dangerous"

	FindingComboSurveillance   = "combo_surveillance"
	FindingComboCommunications = "combo_communications"
	FindingComboRansomware     = "combo_ransomware"
	FindingComboBankingTrojan  = "combo_banking_trojan"

	FindingNoSecureLock     = "no_secure_lock"
	FindingRooted           = "root_indicators"
	FindingUSBDebugging     = "usb_debugging"
	FindingUnknownSources   = "unknown_sources"
	FindingVerifierDisabled = "verifier_disabled"
)

// securityCheckResult is the outcome of one detection layer. score is the
// amount the layer adds to the running score directly.
type securityCheckResult struct {
	findings []models.AuditFinding
	score    int
}

// add records a finding and adds its weight to the layer score
func (r *securityCheckResult) add(id, title, description string, weight int) {
	r.findings = append(r.findings, newFinding(id, title, description, weight))
	r.score += weight
}

func newFinding(id, title, description string, weight int) models.AuditFinding {
	return models.AuditFinding{
		ID:          id,
		Title:       title,
		Description: description,
		Weight:      weight,
	}
}
