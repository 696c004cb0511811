package services

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"guardian-audit/internal/domain/models"
)

const (
	// debugCertificatePrefix is the fingerprint prefix of the stock SDK debug keystore
	debugCertificatePrefix = "a40da80a"
	debugSubjectMarker     = "android debug"
)

// CertificateHash returns the lowercase hex SHA-256 of a DER certificate
func CertificateHash(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// isDebugCertificate reports whether a certificate was produced by a
// development keystore. Certificates that fail to parse are not debug.
func isDebugCertificate(der []byte, hash string) bool {
	if strings.HasPrefix(hash, debugCertificatePrefix) {
		return true
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(cert.Subject.String()), debugSubjectMarker)
}

// checkSignatures matches signing certificates and the package name against
// the reference database
func (a *AppAuditor) checkSignatures(pkg *models.PackageRecord) securityCheckResult {
	var result securityCheckResult

	for _, der := range pkg.Certificates {
		hash := CertificateHash(der)

		if match, ok := a.refdb.LookupByCertificateHash(hash); ok {
			result.add(FindingMalwareSignature,
				"Malware signature detected",
				fmt.Sprintf("Signing certificate matches known malware family %s", match.Name),
				50)
		}

		if isDebugCertificate(der, hash) {
			result.add(FindingDebugCertificate,
				"Debug certificate",
				"Signed with a development certificate, not a release key",
				20)
		}
	}

	if match, ok := a.refdb.LookupByPackageName(pkg.PackageName); ok {
		result.add(FindingMalwarePackage,
			"Known malicious package",
			fmt.Sprintf("Package name is listed as %s", match.Name),
			50)
	}

	return result
}

// checkTrackers looks up the package against the tracker table
func (a *AppAuditor) checkTrackers(pkg *models.PackageRecord) securityCheckResult {
	var result securityCheckResult

	if match, ok := a.refdb.LookupTracker(pkg.PackageName); ok {
		result.add(FindingTrackerLibrary,
			"Tracker detected",
			fmt.Sprintf("Package belongs to tracker %s", match.Name),
			match.RiskScore)
	}

	return result
}
