package services

import (
	"context"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

// legacySDKLevel is the first platform release with per-app install sources
const legacySDKLevel = 26

// SystemAuditor evaluates device-level security settings
type SystemAuditor struct {
	logger *logger.Logger
}

// NewSystemAuditor creates a new system auditor
func NewSystemAuditor(log *logger.Logger) *SystemAuditor {
	return &SystemAuditor{
		logger: log.WithComponent("system-auditor"),
	}
}

// settingCheck fires its finding when the setting reads as want
type settingCheck struct {
	setting string
	read    func(context.Context) (bool, error)
	want    bool
	finding models.AuditFinding
}

// Audit reads each setting and returns one finding per failed check. A
// setting that cannot be read skips its check.
func (s *SystemAuditor) Audit(ctx context.Context, settings SettingsProvider) []models.AuditFinding {
	checks := []settingCheck{
		{
			setting: "device_secure",
			read:    settings.DeviceSecure,
			want:    false,
			finding: newFinding(FindingNoSecureLock, "No screen lock", "No secure lock screen is configured", 40),
		},
		{
			setting: "root_indicators",
			read:    settings.RootIndicators,
			want:    true,
			finding: newFinding(FindingRooted, "Rooted device", "Root binaries or test-signed build tags were found", 60),
		},
		{
			setting: "adb_enabled",
			read:    settings.ADBEnabled,
			want:    true,
			finding: newFinding(FindingUSBDebugging, "USB debugging", "USB debugging is enabled", 25),
		},
	}

	if s.isLegacyPlatform(ctx, settings) {
		checks = append(checks, settingCheck{
			setting: "unknown_sources",
			read:    settings.UnknownSourcesEnabled,
			want:    true,
			finding: newFinding(FindingUnknownSources, "Unknown sources", "Installing from unknown sources is allowed", 30),
		})
	}

	checks = append(checks, settingCheck{
		setting: "package_verifier",
		read:    settings.PackageVerifierEnabled,
		want:    false,
		finding: newFinding(FindingVerifierDisabled, "App verification disabled", "Play Protect or package verification is turned off", 35),
	})

	findings := []models.AuditFinding{}
	for _, check := range checks {
		if ctx.Err() != nil {
			break
		}
		value, err := check.read(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Str("setting", check.setting).Msg("setting unreadable, skipping check")
			continue
		}
		if value == check.want {
			findings = append(findings, check.finding)
		}
	}

	return findings
}

func (s *SystemAuditor) isLegacyPlatform(ctx context.Context, settings SettingsProvider) bool {
	info, err := settings.DeviceInfo(ctx)
	if err != nil || info.SDKLevel <= 0 {
		return false
	}
	return info.SDKLevel < legacySDKLevel
}
