package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

func dangerous(names ...string) []models.AppPermission {
	perms := make([]models.AppPermission, 0, len(names))
	for _, n := range names {
		perms = append(perms, models.AppPermission{Name: n, Dangerous: true})
	}
	return perms
}

func TestCalculatePermissionRisk(t *testing.T) {
	tests := []struct {
		name      string
		input     ScoringInput
		wantScore int
		wantRisk  models.Risk
	}{
		{
			name: "excluded overlay",
			input: ScoringInput{
				PackageName:   "com.google.android.overlay.theme",
				Permissions:   dangerous("android.permission.ACCESS_FINE_LOCATION"),
				InstallSource: models.InstallSourceUnknown,
				HasInternet:   true,
			},
			wantScore: 0,
			wantRisk:  models.RiskLow,
		},
		{
			name: "category weights",
			input: ScoringInput{
				PackageName:   "com.maps.app",
				Permissions:   dangerous("android.permission.ACCESS_FINE_LOCATION", "android.permission.READ_CONTACTS", "android.permission.RECORD_AUDIO"),
				InstallSource: models.InstallSourcePlayStore,
			},
			wantScore: 85,
			wantRisk:  models.RiskHigh,
		},
		{
			name: "phone camera and other",
			input: ScoringInput{
				PackageName:   "com.dialer.app",
				Permissions:   dangerous("android.permission.READ_PHONE_STATE", "android.permission.CAMERA", "android.permission.BODY_SENSORS"),
				InstallSource: models.InstallSourcePlayStore,
			},
			wantScore: 20 + 25 + 10,
			wantRisk:  models.RiskMedium,
		},
		{
			name: "non dangerous ignored",
			input: ScoringInput{
				PackageName: "com.clock.app",
				Permissions: []models.AppPermission{{Name: "android.permission.ACCESS_LOCATION_EXTRA_COMMANDS"}},
			},
			wantScore: 0,
			wantRisk:  models.RiskLow,
		},
		{
			name: "internet and unknown source",
			input: ScoringInput{
				PackageName:   "com.sideloaded.app",
				InstallSource: models.InstallSourceUnknown,
				HasInternet:   true,
			},
			wantScore: 50,
			wantRisk:  models.RiskMedium,
		},
		{
			name: "sideload penalty",
			input: ScoringInput{
				PackageName:   "com.sideloaded.app",
				InstallSource: models.InstallSourceSideload,
			},
			wantScore: 20,
			wantRisk:  models.RiskLow,
		},
		{
			name: "adb penalty",
			input: ScoringInput{
				PackageName:   "com.sideloaded.app",
				InstallSource: models.InstallSourceADB,
			},
			wantScore: 15,
			wantRisk:  models.RiskLow,
		},
		{
			name: "system app skips penalty",
			input: ScoringInput{
				PackageName:   "com.vendor.app",
				InstallSource: models.InstallSourceUnknown,
				HasInternet:   true,
				IsSystemApp:   true,
			},
			wantScore: 20,
			wantRisk:  models.RiskLow,
		},
		{
			name: "clamped",
			input: ScoringInput{
				PackageName: "com.greedy.app",
				Permissions: dangerous(
					"android.permission.ACCESS_FINE_LOCATION",
					"android.permission.ACCESS_COARSE_LOCATION",
					"android.permission.ACCESS_BACKGROUND_LOCATION",
					"android.permission.READ_CONTACTS",
				),
				InstallSource: models.InstallSourceUnknown,
				HasInternet:   true,
			},
			wantScore: 100,
			wantRisk:  models.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, risk := CalculatePermissionRisk(tt.input)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantRisk, risk)
		})
	}
}

func TestClassifyPermissionScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.Risk
	}{
		{100, models.RiskHigh},
		{70, models.RiskHigh},
		{69, models.RiskMedium},
		{40, models.RiskMedium},
		{39, models.RiskLow},
		{0, models.RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPermissionScore(tt.score), "score %d", tt.score)
	}
}

func TestPermissionRiskPolicy_Assess(t *testing.T) {
	policy := NewPermissionRiskPolicy()
	audit, err := policy.Assess(context.Background(), &models.PackageRecord{
		PackageName: "com.camera.unknown",
		Permissions: []string{"android.permission.CAMERA", "android.permission.INTERNET"},
	}, models.AuditModeFull)
	require.NoError(t, err)

	assert.Equal(t, 25+20+30, audit.RiskScore)
	assert.Equal(t, models.RiskHigh, audit.Risk)
	assert.Empty(t, audit.Findings)
	assert.Equal(t, models.InstallSourceUnknown, audit.InstallSource)
	assert.Len(t, audit.Permissions, 2)
}

func TestPoliciesAreIndependent(t *testing.T) {
	layered := newTestAuditor(nil, AggregationSingle)
	permission := NewPermissionRiskPolicy()

	assert.Equal(t, models.RiskCritical, layered.Classify(85))
	assert.Equal(t, models.RiskHigh, permission.Classify(85))
	assert.Equal(t, models.RiskHigh, layered.Classify(65))
	assert.Equal(t, models.RiskMedium, permission.Classify(65))

	pkg := &models.PackageRecord{
		PackageName: "com.cam.recorder",
		Installer:   playStore,
		Permissions: []string{
			"android.permission.CAMERA",
			"android.permission.RECORD_AUDIO",
			"android.permission.ACCESS_FINE_LOCATION",
		},
	}
	a, err := layered.Assess(context.Background(), pkg, models.AuditModeQuick)
	require.NoError(t, err)
	b, err := permission.Assess(context.Background(), pkg, models.AuditModeQuick)
	require.NoError(t, err)

	assert.Equal(t, 71, a.RiskScore)
	assert.Equal(t, 25+25+30, b.RiskScore)
}

func TestNewRiskPolicy(t *testing.T) {
	auditor := NewAppAuditor(&fakeRefDB{}, AggregationSingle, logger.NewNop())

	p, err := NewRiskPolicy("", auditor)
	require.NoError(t, err)
	assert.Equal(t, PolicyLayered, p.Name())

	p, err = NewRiskPolicy("Permission", auditor)
	require.NoError(t, err)
	assert.Equal(t, PolicyPermission, p.Name())

	_, err = NewRiskPolicy("ml", auditor)
	assert.Error(t, err)
}
