package services

import (
	"fmt"
	"strings"

	"guardian-audit/internal/domain/models"
)

var trackingNameKeywords = []string{
	"tracker",
	"analytics",
	"adservice",
	"stat",
	"click",
	"log",
}

// checkIndicators applies name based indicators of compromise
func (a *AppAuditor) checkIndicators(pkg *models.PackageRecord) securityCheckResult {
	var result securityCheckResult

	lower := strings.ToLower(pkg.PackageName)
	for _, keyword := range trackingNameKeywords {
		if strings.Contains(lower, keyword) {
			result.add(FindingTrackingIndicator,
				"Tracking indicator",
				fmt.Sprintf("Package name contains %q", keyword),
				15)
			break
		}
	}

	return result
}
