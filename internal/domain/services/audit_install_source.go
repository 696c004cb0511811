package services

import (
	"strings"

	"guardian-audit/internal/domain/models"
)

// DetectInstallSource attributes a package to an install channel from the
// installer package name recorded by the platform
func DetectInstallSource(installer string) models.InstallSource {
	switch {
	case installer == "":
		return models.InstallSourceUnknown
	case strings.Contains(installer, "com.android.vending"):
		return models.InstallSourcePlayStore
	case strings.Contains(installer, "com.amazon.venezia"):
		return models.InstallSourceAmazon
	case strings.Contains(installer, "com.sec.android.app.samsungapps"):
		return models.InstallSourceSamsung
	case strings.Contains(installer, "adb"), strings.Contains(installer, "packageinstaller"):
		return models.InstallSourceADB
	default:
		return models.InstallSourceUnknown
	}
}
