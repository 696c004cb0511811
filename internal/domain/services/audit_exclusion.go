package services

import (
	"strings"
)

var (
	// Platform and vendor namespaces that only ship overlays or resources
	excludedPackagePrefixes = []string{
		"android.",
		"com.android.",
		"com.google.android.overlay",
	}

	excludedPackageFragments = []string{
		".overlay",
		"frameworkres",
		"resources",
		"permissioncontroller",
		"connectivity",
		"media.module",
		"wifiresources",
		"cellbroadcast",
		"healthfitness",
		"documentsui",
		"ext.services",
	}

	systemMountPrefixes = []string{
		"/system/",
		"/product/",
		"/apex/",
		"/vendor/",
	}
)

// IsSystemOverlayOrResource reports whether a package is a platform overlay,
// framework resource or system-image component. Such packages are never
// scored.
func IsSystemOverlayOrResource(packageName, sourceDir string) bool {
	for _, prefix := range excludedPackagePrefixes {
		if strings.HasPrefix(packageName, prefix) {
			return true
		}
	}
	for _, fragment := range excludedPackageFragments {
		if strings.Contains(packageName, fragment) {
			return true
		}
	}
	return isSystemPath(sourceDir)
}

// isSystemPath reports whether an archive lives on a read-only system mount
func isSystemPath(path string) bool {
	for _, prefix := range systemMountPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
