package services

import (
	"context"

	"guardian-audit/internal/domain/models"
)

// ReferenceDatabase is the read-only malware and tracker lookup the App
// Auditor consults. Implementations must be safe for concurrent use.
type ReferenceDatabase interface {
	LookupByCertificateHash(hash string) (models.MalwareMatch, bool)
	LookupByPackageName(name string) (models.MalwareMatch, bool)
	LookupTracker(name string) (models.TrackerMatch, bool)
}

// PackageProvider enumerates installed packages and returns their metadata
type PackageProvider interface {
	ListPackages(ctx context.Context) ([]string, error)
	GetPackage(ctx context.Context, packageName string) (*models.PackageRecord, error)
}

// SettingsProvider reads device security settings. Any read may fail; the
// System Auditor skips the corresponding check when it does.
type SettingsProvider interface {
	DeviceInfo(ctx context.Context) (models.DeviceInfo, error)
	DeviceSecure(ctx context.Context) (bool, error)
	RootIndicators(ctx context.Context) (bool, error)
	ADBEnabled(ctx context.Context) (bool, error)
	UnknownSourcesEnabled(ctx context.Context) (bool, error)
	PackageVerifierEnabled(ctx context.Context) (bool, error)
}
