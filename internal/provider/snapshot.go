package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"guardian-audit/internal/domain/models"
)

var (
	// ErrPackageNotFound is returned for a package the snapshot does not hold
	ErrPackageNotFound = errors.New("package not found")
	// ErrSettingUnavailable is returned when a setting could not be read on
	// the device
	ErrSettingUnavailable = errors.New("setting unavailable")
)

// DeviceSettings are the raw security settings captured on the device. A nil
// value means the collector could not read it.
type DeviceSettings struct {
	DeviceSecure    *bool  `json:"device_secure"`
	ADBEnabled      *bool  `json:"adb_enabled"`
	UnknownSources  *bool  `json:"unknown_sources"`
	PackageVerifier *bool  `json:"package_verifier"`
	RootIndicators  *bool  `json:"root_indicators"`
	BuildTags       string `json:"build_tags,omitempty"`
}

// Snapshot is everything the on-device collector exports for one audit
type Snapshot struct {
	Device   models.DeviceInfo      `json:"device"`
	Settings DeviceSettings         `json:"settings"`
	Packages []models.PackageRecord `json:"packages"`
}

// DecodeSnapshot parses a snapshot document
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// LoadSnapshot reads a snapshot file
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// SnapshotProvider serves packages and settings from a captured snapshot. It
// is read-only and safe for concurrent use.
type SnapshotProvider struct {
	device   models.DeviceInfo
	settings DeviceSettings
	order    []string
	packages map[string]*models.PackageRecord
}

// NewSnapshotProvider indexes a snapshot. Duplicate package names keep the
// first record.
func NewSnapshotProvider(s *Snapshot) *SnapshotProvider {
	p := &SnapshotProvider{
		device:   s.Device,
		settings: s.Settings,
		packages: make(map[string]*models.PackageRecord, len(s.Packages)),
	}
	for i := range s.Packages {
		rec := &s.Packages[i]
		if _, dup := p.packages[rec.PackageName]; dup {
			continue
		}
		p.order = append(p.order, rec.PackageName)
		p.packages[rec.PackageName] = rec
	}
	return p
}

// ListPackages returns package names in snapshot order
func (p *SnapshotProvider) ListPackages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), p.order...), nil
}

// GetPackage returns one package record
func (p *SnapshotProvider) GetPackage(ctx context.Context, packageName string) (*models.PackageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := p.packages[packageName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, packageName)
	}
	return rec, nil
}

// DeviceInfo returns the captured device description
func (p *SnapshotProvider) DeviceInfo(context.Context) (models.DeviceInfo, error) {
	return p.device, nil
}

func (p *SnapshotProvider) DeviceSecure(context.Context) (bool, error) {
	return readSetting("device_secure", p.settings.DeviceSecure)
}

func (p *SnapshotProvider) ADBEnabled(context.Context) (bool, error) {
	return readSetting("adb_enabled", p.settings.ADBEnabled)
}

func (p *SnapshotProvider) UnknownSourcesEnabled(context.Context) (bool, error) {
	return readSetting("unknown_sources", p.settings.UnknownSources)
}

func (p *SnapshotProvider) PackageVerifierEnabled(context.Context) (bool, error) {
	return readSetting("package_verifier", p.settings.PackageVerifier)
}

// RootIndicators reports the collector's root check, or test-signed build
// tags when the check did not run
func (p *SnapshotProvider) RootIndicators(context.Context) (bool, error) {
	if p.settings.RootIndicators != nil {
		return *p.settings.RootIndicators || testKeys(p.settings.BuildTags), nil
	}
	if p.settings.BuildTags != "" {
		return testKeys(p.settings.BuildTags), nil
	}
	return false, fmt.Errorf("%w: root_indicators", ErrSettingUnavailable)
}

func readSetting(name string, value *bool) (bool, error) {
	if value == nil {
		return false, fmt.Errorf("%w: %s", ErrSettingUnavailable, name)
	}
	return *value, nil
}

func testKeys(buildTags string) bool {
	return strings.Contains(buildTags, "test-keys")
}
