package provider

import (
	"context"
	"os"
	"path/filepath"

	"guardian-audit/internal/domain/services"
)

// suBinaries are the paths checked for elevated-access binaries
var suBinaries = []string{
	"system/bin/su",
	"system/xbin/su",
	"sbin/su",
	"system/app/Superuser.apk",
}

// FSRootCheck looks for root binaries under a filesystem root. It is used
// when the audit runs on the device itself.
type FSRootCheck struct {
	Root string
}

// Detect reports whether any known root binary exists
func (p FSRootCheck) Detect(ctx context.Context) (bool, error) {
	root := p.Root
	if root == "" {
		root = "/"
	}
	for _, rel := range suBinaries {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if _, err := os.Stat(filepath.Join(root, rel)); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// rootCheckedSettings overrides RootIndicators with a filesystem check
type rootCheckedSettings struct {
	services.SettingsProvider
	check FSRootCheck
}

// WithRootCheck combines a settings provider with a filesystem root check.
// Either source reporting root is enough.
func WithRootCheck(settings services.SettingsProvider, check FSRootCheck) services.SettingsProvider {
	return &rootCheckedSettings{SettingsProvider: settings, check: check}
}

func (p *rootCheckedSettings) RootIndicators(ctx context.Context) (bool, error) {
	found, err := p.check.Detect(ctx)
	if err != nil {
		return false, err
	}
	if found {
		return true, nil
	}
	rooted, err := p.SettingsProvider.RootIndicators(ctx)
	if err != nil {
		// the check ran, so the answer is known
		return false, nil
	}
	return rooted, nil
}
