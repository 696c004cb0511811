package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

var errUnreadable = errors.New("setting unreadable")

type fakeSettings struct {
	info     models.DeviceInfo
	infoErr  error
	secure   bool
	rooted   bool
	adb      bool
	unknown  bool
	verifier bool
	// errs fails individual reads by setting name
	errs map[string]error
}

func (f *fakeSettings) DeviceInfo(context.Context) (models.DeviceInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeSettings) DeviceSecure(context.Context) (bool, error) {
	return f.secure, f.errs["device_secure"]
}

func (f *fakeSettings) RootIndicators(context.Context) (bool, error) {
	return f.rooted, f.errs["root_indicators"]
}

func (f *fakeSettings) ADBEnabled(context.Context) (bool, error) {
	return f.adb, f.errs["adb_enabled"]
}

func (f *fakeSettings) UnknownSourcesEnabled(context.Context) (bool, error) {
	return f.unknown, f.errs["unknown_sources"]
}

func (f *fakeSettings) PackageVerifierEnabled(context.Context) (bool, error) {
	return f.verifier, f.errs["package_verifier"]
}

func weightsByID(findings []models.AuditFinding) map[string]int {
	out := make(map[string]int, len(findings))
	for _, f := range findings {
		out[f.ID] = f.Weight
	}
	return out
}

func TestSystemAuditor_Audit(t *testing.T) {
	auditor := NewSystemAuditor(logger.NewNop())

	tests := []struct {
		name     string
		settings *fakeSettings
		want     map[string]int
	}{
		{
			name:     "hardened device",
			settings: &fakeSettings{info: models.DeviceInfo{SDKLevel: 34}, secure: true, verifier: true},
			want:     map[string]int{},
		},
		{
			name: "everything wrong on a legacy release",
			settings: &fakeSettings{
				info:    models.DeviceInfo{SDKLevel: 25},
				rooted:  true,
				adb:     true,
				unknown: true,
			},
			want: map[string]int{
				FindingNoSecureLock:     40,
				FindingRooted:           60,
				FindingUSBDebugging:     25,
				FindingUnknownSources:   30,
				FindingVerifierDisabled: 35,
			},
		},
		{
			name:     "unknown sources ignored on modern releases",
			settings: &fakeSettings{info: models.DeviceInfo{SDKLevel: 26}, secure: true, verifier: true, unknown: true},
			want:     map[string]int{},
		},
		{
			name: "unknown sources skipped when device info fails",
			settings: &fakeSettings{
				infoErr:  errUnreadable,
				secure:   true,
				verifier: true,
				unknown:  true,
			},
			want: map[string]int{},
		},
		{
			name: "unreadable verifier skipped",
			settings: &fakeSettings{
				info:   models.DeviceInfo{SDKLevel: 34},
				secure: true,
				errs:   map[string]error{"package_verifier": errUnreadable},
			},
			want: map[string]int{},
		},
		{
			name: "unreadable lock state skipped",
			settings: &fakeSettings{
				info:     models.DeviceInfo{SDKLevel: 34},
				verifier: true,
				adb:      true,
				errs:     map[string]error{"device_secure": errUnreadable},
			},
			want: map[string]int{FindingUSBDebugging: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := auditor.Audit(context.Background(), tt.settings)
			assert.NotNil(t, findings)
			assert.Equal(t, tt.want, weightsByID(findings))
		})
	}
}
