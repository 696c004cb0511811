package services

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-audit/internal/domain/models"
	"guardian-audit/pkg/logger"
)

const playStore = "com.android.vending"

type fakeRefDB struct {
	certs    map[string]models.MalwareMatch
	packages map[string]models.MalwareMatch
	trackers map[string]models.TrackerMatch
}

func (f *fakeRefDB) LookupByCertificateHash(hash string) (models.MalwareMatch, bool) {
	m, ok := f.certs[hash]
	return m, ok
}

func (f *fakeRefDB) LookupByPackageName(name string) (models.MalwareMatch, bool) {
	m, ok := f.packages[name]
	return m, ok
}

func (f *fakeRefDB) LookupTracker(name string) (models.TrackerMatch, bool) {
	m, ok := f.trackers[name]
	return m, ok
}

func newTestAuditor(db *fakeRefDB, aggregation ScoreAggregation) *AppAuditor {
	if db == nil {
		db = &fakeRefDB{}
	}
	return NewAppAuditor(db, aggregation, logger.NewNop())
}

func assess(t *testing.T, a *AppAuditor, pkg *models.PackageRecord, mode models.AuditMode) *models.AppAudit {
	t.Helper()
	audit, err := a.Assess(context.Background(), pkg, mode)
	require.NoError(t, err)
	require.NotNil(t, audit)
	return audit
}

func findingIDs(audit *models.AppAudit) []string {
	ids := make([]string, 0, len(audit.Findings))
	for _, f := range audit.Findings {
		ids = append(ids, f.ID)
	}
	return ids
}

func debugCertificate(t *testing.T, commonName string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"Android"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

type zipEntry struct {
	name string
	data []byte
}

// writeArchive builds an uncompressed zip so the file size tracks the payload
func writeArchive(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		require.NoError(t, err)
		_, err = fw.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "base.apk")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestAssess_ExampleSuspiciousName(t *testing.T) {
	a := newTestAuditor(nil, AggregationSingle)
	pkg := &models.PackageRecord{
		PackageName: "com.example.free.vpn.cracked",
		Label:       "Free VPN",
		Installer:   playStore,
	}

	for _, mode := range []models.AuditMode{models.AuditModeQuick, models.AuditModeFull} {
		audit := assess(t, a, pkg, mode)
		require.Len(t, audit.Findings, 1, "mode %s", mode)
		assert.Equal(t, FindingSuspiciousName, audit.Findings[0].ID)
		assert.Equal(t, 18, audit.Findings[0].Weight)
		assert.Equal(t, 18, audit.RiskScore)
		assert.Equal(t, models.RiskLow, audit.Risk)
	}
}

func TestAssess_ExclusionSuppressesEverything(t *testing.T) {
	cert := []byte("malicious-cert")
	db := &fakeRefDB{
		certs:    map[string]models.MalwareMatch{CertificateHash(cert): {Name: "Joker"}},
		packages: map[string]models.MalwareMatch{"com.android.settings": {Name: "Joker"}},
	}
	a := newTestAuditor(db, AggregationLegacy)

	tests := []struct {
		name string
		pkg  *models.PackageRecord
	}{
		{"platform prefix", &models.PackageRecord{PackageName: "com.android.settings"}},
		{"overlay fragment", &models.PackageRecord{PackageName: "com.vendor.theme.overlay"}},
		{"resource fragment", &models.PackageRecord{PackageName: "com.oem.wifiresources"}},
		{"system mount", &models.PackageRecord{PackageName: "com.evil.app", SourceDir: "/system/app/evil.apk"}},
		{"apex mount", &models.PackageRecord{PackageName: "com.evil.app", SourceDir: "/apex/com.evil/app.apk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.pkg.Certificates = [][]byte{cert}
			tt.pkg.Permissions = []string{
				"android.permission.CAMERA",
				"android.permission.RECORD_AUDIO",
				"android.permission.ACCESS_FINE_LOCATION",
			}

			audit := assess(t, a, tt.pkg, models.AuditModeFull)
			assert.Equal(t, 0, audit.RiskScore)
			assert.Equal(t, models.RiskLow, audit.Risk)
			assert.Empty(t, audit.Permissions)
			assert.Empty(t, audit.Findings)
			assert.True(t, audit.IsSystemApp)
			assert.Equal(t, models.InstallSourceSystem, audit.InstallSource)
		})
	}
}

func TestAssess_MalwareCertificate(t *testing.T) {
	cert := []byte("not a certificate")
	db := &fakeRefDB{certs: map[string]models.MalwareMatch{CertificateHash(cert): {Name: "Joker"}}}
	pkg := &models.PackageRecord{
		PackageName:  "com.victim.app",
		Installer:    playStore,
		Certificates: [][]byte{cert},
	}

	single := assess(t, newTestAuditor(db, AggregationSingle), pkg, models.AuditModeQuick)
	require.Len(t, single.Findings, 1)
	assert.Equal(t, FindingMalwareSignature, single.Findings[0].ID)
	assert.Equal(t, 50, single.Findings[0].Weight)
	assert.Contains(t, single.Findings[0].Description, "Joker")
	assert.Equal(t, 50, single.RiskScore)
	assert.Equal(t, models.RiskMedium, single.Risk)

	legacy := assess(t, newTestAuditor(db, AggregationLegacy), pkg, models.AuditModeQuick)
	assert.Equal(t, single.Findings, legacy.Findings)
	assert.Equal(t, 100, legacy.RiskScore)
	assert.Equal(t, models.RiskCritical, legacy.Risk)
}

func TestAssess_MalwarePackageName(t *testing.T) {
	db := &fakeRefDB{packages: map[string]models.MalwareMatch{"com.fake.bank": {Name: "Anubis"}}}
	audit := assess(t, newTestAuditor(db, AggregationSingle), &models.PackageRecord{
		PackageName: "com.fake.bank",
		Installer:   playStore,
	}, models.AuditModeQuick)

	assert.Equal(t, []string{FindingMalwarePackage}, findingIDs(audit))
	assert.Equal(t, 50, audit.RiskScore)
}

func TestAssess_DebugCertificate(t *testing.T) {
	pkg := &models.PackageRecord{
		PackageName:  "com.dev.build",
		Installer:    playStore,
		Certificates: [][]byte{debugCertificate(t, "Android Debug")},
	}

	single := assess(t, newTestAuditor(nil, AggregationSingle), pkg, models.AuditModeQuick)
	assert.Equal(t, []string{FindingDebugCertificate}, findingIDs(single))
	assert.Equal(t, 20, single.RiskScore)
	assert.Equal(t, models.RiskLow, single.Risk)

	legacy := assess(t, newTestAuditor(nil, AggregationLegacy), pkg, models.AuditModeQuick)
	assert.Equal(t, 40, legacy.RiskScore)
	assert.Equal(t, models.RiskMedium, legacy.Risk)
}

func TestIsDebugCertificate(t *testing.T) {
	release := debugCertificate(t, "Example Corp Release")
	assert.False(t, isDebugCertificate(release, CertificateHash(release)))

	debug := debugCertificate(t, "android debug")
	assert.True(t, isDebugCertificate(debug, CertificateHash(debug)))

	assert.True(t, isDebugCertificate([]byte("garbage"), "a40da80a"+"00"))
	assert.False(t, isDebugCertificate([]byte("garbage"), "ffff"))
}

func TestAssess_Tracker(t *testing.T) {
	db := &fakeRefDB{trackers: map[string]models.TrackerMatch{"com.tracksdk.app": {Name: "TrackSDK", RiskScore: 20}}}
	pkg := &models.PackageRecord{PackageName: "com.tracksdk.app", Installer: playStore}

	single := assess(t, newTestAuditor(db, AggregationSingle), pkg, models.AuditModeQuick)
	require.Len(t, single.Findings, 1)
	assert.Equal(t, FindingTrackerLibrary, single.Findings[0].ID)
	assert.Equal(t, 20, single.Findings[0].Weight)
	assert.Equal(t, 20, single.RiskScore)

	legacy := assess(t, newTestAuditor(db, AggregationLegacy), pkg, models.AuditModeQuick)
	assert.Equal(t, 40, legacy.RiskScore)
}

func TestAssess_SurveillanceCombo(t *testing.T) {
	pkg := &models.PackageRecord{
		PackageName: "com.cam.recorder",
		Installer:   playStore,
		Permissions: []string{
			"android.permission.CAMERA",
			"android.permission.RECORD_AUDIO",
			"android.permission.ACCESS_FINE_LOCATION",
		},
	}

	for _, aggregation := range []ScoreAggregation{AggregationSingle, AggregationLegacy} {
		audit := assess(t, newTestAuditor(nil, aggregation), pkg, models.AuditModeQuick)
		assert.Equal(t, []string{FindingComboSurveillance}, findingIDs(audit))
		assert.Equal(t, 35, audit.Findings[0].Weight)
		// 3 dangerous permissions x 12 + 35, identical under both strategies
		assert.Equal(t, 71, audit.RiskScore, "aggregation %s", aggregation)
		assert.Equal(t, models.RiskHigh, audit.Risk)
		assert.Len(t, audit.Permissions, 3)
		for _, p := range audit.Permissions {
			assert.True(t, p.Dangerous, p.Name)
		}
	}
}

func TestAssess_PermissionCombos(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		want        string
	}{
		{
			name:        "communications",
			permissions: []string{"android.permission.READ_SMS", "android.permission.READ_CONTACTS", "android.permission.CALL_PHONE"},
			want:        FindingComboCommunications,
		},
		{
			name:        "ransomware",
			permissions: []string{"android.permission.WRITE_EXTERNAL_STORAGE", "android.permission.INTERNET", "android.permission.REQUEST_INSTALL_PACKAGES"},
			want:        FindingComboRansomware,
		},
		{
			name:        "banking trojan",
			permissions: []string{"android.permission.SYSTEM_ALERT_WINDOW", "android.permission.READ_SMS", "android.permission.INTERNET"},
			want:        FindingComboBankingTrojan,
		},
	}

	a := newTestAuditor(nil, AggregationSingle)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := assess(t, a, &models.PackageRecord{
				PackageName: "com.utility.tool",
				Installer:   playStore,
				Permissions: tt.permissions,
			}, models.AuditModeQuick)
			assert.Contains(t, findingIDs(audit), tt.want)
		})
	}
}

func TestAssess_UnknownSourcePenalty(t *testing.T) {
	pkg := &models.PackageRecord{
		PackageName: "com.messages.helper",
		Permissions: []string{
			"android.permission.READ_SMS",
			"android.permission.SEND_SMS",
			"android.permission.RECEIVE_SMS",
			"android.permission.READ_CONTACTS",
		},
	}

	single := assess(t, newTestAuditor(nil, AggregationSingle), pkg, models.AuditModeQuick)
	assert.Equal(t, models.InstallSourceUnknown, single.InstallSource)
	assert.Equal(t, []string{FindingUnknownSource}, findingIDs(single))
	assert.Equal(t, 48+25, single.RiskScore)
	assert.Equal(t, models.RiskHigh, single.Risk)

	legacy := assess(t, newTestAuditor(nil, AggregationLegacy), pkg, models.AuditModeQuick)
	assert.Equal(t, 48+25+25, legacy.RiskScore)
	assert.Equal(t, models.RiskCritical, legacy.Risk)

	pkg.Installer = playStore
	trusted := assess(t, newTestAuditor(nil, AggregationSingle), pkg, models.AuditModeQuick)
	assert.Empty(t, trusted.Findings)
	assert.Equal(t, 48, trusted.RiskScore)
}

func TestAssess_NameHeuristics(t *testing.T) {
	tests := []struct {
		name        string
		packageName string
		label       string
		want        []string
	}{
		{"single character segment", "com.a.reader", "", []string{FindingAnomalousName}},
		{"long digit run", "com.app12345.reader", "", []string{FindingAnomalousName}},
		{"lookalike characters", "com.lll0O.reader", "", []string{FindingObfuscatedName}},
		{"impersonation by name", "com.whatsapp.plus", "", []string{FindingImpersonation}},
		{"impersonation by label", "com.chat.plus", "WhatsApp Gold", []string{FindingImpersonation}},
		{"legitimate package", "com.whatsapp", "WhatsApp", nil},
		{"multiple impersonations", "com.social.helper", "Facebook for Instagram", []string{FindingImpersonation, FindingImpersonation}},
		{"clean", "com.weather.forecast", "Weather", nil},
	}

	a := newTestAuditor(nil, AggregationSingle)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := assess(t, a, &models.PackageRecord{
				PackageName: tt.packageName,
				Label:       tt.label,
				Installer:   playStore,
			}, models.AuditModeQuick)
			if tt.want == nil {
				assert.Empty(t, audit.Findings)
				return
			}
			assert.Equal(t, tt.want, findingIDs(audit))
		})
	}
}

func TestAssess_DeviceAdminOncePerPackage(t *testing.T) {
	audit := assess(t, newTestAuditor(nil, AggregationSingle), &models.PackageRecord{
		PackageName: "com.locker.screen",
		Installer:   playStore,
		Receivers: []models.ExportedReceiver{
			{Name: ".AdminReceiver", Permission: deviceAdminPermission},
			{Name: ".SecondAdmin", Permission: deviceAdminPermission},
			{Name: ".BootReceiver"},
		},
	}, models.AuditModeQuick)

	assert.Equal(t, []string{FindingDeviceAdmin}, findingIDs(audit))
	assert.Equal(t, 30, audit.RiskScore)
	assert.Contains(t, audit.Findings[0].Description, "2 exported receiver")
}

func TestAssess_ExcessivePermissionsAndClamp(t *testing.T) {
	perms := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		perms = append(perms, "android.permission.CAMERA")
	}
	audit := assess(t, newTestAuditor(nil, AggregationSingle), &models.PackageRecord{
		PackageName: "com.photo.editor",
		Installer:   playStore,
		Permissions: perms,
	}, models.AuditModeQuick)

	assert.Contains(t, findingIDs(audit), FindingExcessivePerms)
	assert.Equal(t, 100, audit.RiskScore)
	assert.Equal(t, models.RiskCritical, audit.Risk)
}

func TestAssess_Defaults(t *testing.T) {
	audit := assess(t, newTestAuditor(nil, AggregationSingle), &models.PackageRecord{
		PackageName: "com.notes.simple",
		Installer:   playStore,
	}, models.AuditModeQuick)

	assert.Equal(t, "com.notes.simple", audit.AppName)
	assert.Equal(t, "N/A", audit.VersionName)
	assert.Equal(t, models.InstallSourcePlayStore, audit.InstallSource)
	assert.False(t, audit.IsSystemApp)
	assert.NotNil(t, audit.Findings)
}

func TestAssess_InvalidRecord(t *testing.T) {
	a := newTestAuditor(nil, AggregationSingle)

	_, err := a.Assess(context.Background(), nil, models.AuditModeQuick)
	assert.ErrorIs(t, err, ErrInvalidPackage)

	_, err = a.Assess(context.Background(), &models.PackageRecord{}, models.AuditModeQuick)
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestAssess_UnreadableArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.apk")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x42}, minArchiveSize+1), 0o644))

	pkg := &models.PackageRecord{
		PackageName:      "com.puzzle.game",
		Installer:        playStore,
		SourceDir:        path,
		FirstInstallTime: time.Now(),
	}

	audit := assess(t, newTestAuditor(nil, AggregationSingle), pkg, models.AuditModeFull)
	require.Len(t, audit.Findings, 1)
	assert.Equal(t, FindingUnreadableArchive, audit.Findings[0].ID)
	assert.Equal(t, 20, audit.Findings[0].Weight)
	assert.Equal(t, 20, audit.RiskScore)

	legacy := assess(t, newTestAuditor(nil, AggregationLegacy), pkg, models.AuditModeFull)
	assert.Equal(t, 40, legacy.RiskScore)

	quick := assess(t, newTestAuditor(nil, AggregationSingle), pkg, models.AuditModeQuick)
	assert.Empty(t, quick.Findings)
}

func TestAssess_ArchiveStructure(t *testing.T) {
	padding := zipEntry{name: "assets/blob.bin", data: bytes.Repeat([]byte{0x01}, minArchiveSize)}
	dex := zipEntry{name: "classes.dex", data: []byte("dex\n035")}
	dex2 := zipEntry{name: "classes2.dex", data: []byte("dex\n035")}
	manifest := zipEntry{name: "AndroidManifest.xml", data: []byte("<manifest/>")}

	tests := []struct {
		name    string
		entries []zipEntry
		want    []string
	}{
		{"complete", []zipEntry{padding, dex, manifest}, nil},
		{"multidex only", []zipEntry{padding, dex2, manifest}, nil},
		{"no dex", []zipEntry{padding, manifest}, []string{FindingMissingDex}},
		{"no manifest", []zipEntry{padding, dex}, []string{FindingMissingManifest}},
		{"small and empty", []zipEntry{{name: "readme.txt", data: []byte("hi")}}, []string{FindingSmallArchive, FindingMissingDex, FindingMissingManifest}},
	}

	a := newTestAuditor(nil, AggregationSingle)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := assess(t, a, &models.PackageRecord{
				PackageName:      "com.puzzle.game",
				Installer:        playStore,
				SourceDir:        writeArchive(t, tt.entries...),
				FirstInstallTime: time.Now(),
			}, models.AuditModeFull)
			if tt.want == nil {
				assert.Empty(t, audit.Findings)
				return
			}
			assert.Equal(t, tt.want, findingIDs(audit))
		})
	}
}

func TestAssess_ModifiedAfterInstallAndMultipleSigners(t *testing.T) {
	path := writeArchive(t,
		zipEntry{name: "assets/blob.bin", data: bytes.Repeat([]byte{0x01}, minArchiveSize)},
		zipEntry{name: "classes.dex", data: []byte("dex")},
		zipEntry{name: "AndroidManifest.xml", data: []byte("<manifest/>")},
	)
	installed := time.Now().Add(-24 * time.Hour)
	modified := installed.Add(3 * time.Hour)
	require.NoError(t, os.Chtimes(path, modified, modified))

	audit := assess(t, newTestAuditor(nil, AggregationSingle), &models.PackageRecord{
		PackageName:      "com.puzzle.game",
		Installer:        playStore,
		SourceDir:        path,
		FirstInstallTime: installed,
		Certificates:     [][]byte{[]byte("one"), []byte("two")},
	}, models.AuditModeFull)

	assert.Equal(t, []string{FindingModifiedArchive, FindingMultipleSigners}, findingIDs(audit))
	assert.Equal(t, 55, audit.RiskScore)
}

func TestAssess_MissingArchiveContributesNothing(t *testing.T) {
	audit := assess(t, newTestAuditor(nil, AggregationSingle), &models.PackageRecord{
		PackageName:  "com.puzzle.game",
		Installer:    playStore,
		SourceDir:    filepath.Join(t.TempDir(), "missing.apk"),
		Certificates: [][]byte{[]byte("one"), []byte("two")},
	}, models.AuditModeFull)

	assert.Empty(t, audit.Findings)
}

func TestAssess_ArchiveRoots(t *testing.T) {
	unreadable := bytes.Repeat([]byte{0x42}, minArchiveSize+1)

	root := t.TempDir()
	inside := filepath.Join(root, "com.puzzle.game-1", "base.apk")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o755))
	require.NoError(t, os.WriteFile(inside, unreadable, 0o644))

	outside := filepath.Join(t.TempDir(), "base.apk")
	require.NoError(t, os.WriteFile(outside, unreadable, 0o644))

	escape := filepath.Join(root, "escape.apk")
	require.NoError(t, os.Symlink(outside, escape))

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"inside root", inside, []string{FindingUnreadableArchive}},
		{"outside root", outside, nil},
		{"dot-dot traversal", filepath.Join(root, "..", filepath.Base(filepath.Dir(outside)), "base.apk"), nil},
		{"symlink out of root", escape, nil},
		{"relative path", "base.apk", nil},
	}

	a := newTestAuditor(nil, AggregationSingle).WithArchiveRoots(root)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := assess(t, a, &models.PackageRecord{
				PackageName:      "com.puzzle.game",
				Installer:        playStore,
				SourceDir:        tt.path,
				FirstInstallTime: time.Now(),
			}, models.AuditModeFull)
			if tt.want == nil {
				assert.Empty(t, audit.Findings)
				return
			}
			assert.Equal(t, tt.want, findingIDs(audit))
		})
	}

	unrestricted := newTestAuditor(nil, AggregationSingle).WithArchiveRoots()
	audit := assess(t, unrestricted, &models.PackageRecord{
		PackageName:      "com.puzzle.game",
		Installer:        playStore,
		SourceDir:        outside,
		FirstInstallTime: time.Now(),
	}, models.AuditModeFull)
	assert.Equal(t, []string{FindingUnreadableArchive}, findingIDs(audit), "no roots means no restriction")
}

func TestAssess_TrackingIndicatorFullOnly(t *testing.T) {
	a := newTestAuditor(nil, AggregationSingle)
	pkg := &models.PackageRecord{PackageName: "com.analytics.helper", Installer: playStore}

	quick := assess(t, a, pkg, models.AuditModeQuick)
	assert.Empty(t, quick.Findings)

	full := assess(t, a, pkg, models.AuditModeFull)
	assert.Equal(t, []string{FindingTrackingIndicator}, findingIDs(full))
	assert.Equal(t, 15, full.RiskScore)
}

func TestClassifyLayeredScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.Risk
	}{
		{100, models.RiskCritical},
		{80, models.RiskCritical},
		{79, models.RiskHigh},
		{60, models.RiskHigh},
		{59, models.RiskMedium},
		{30, models.RiskMedium},
		{29, models.RiskLow},
		{0, models.RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLayeredScore(tt.score), "score %d", tt.score)
	}
}

func TestParseScoreAggregation(t *testing.T) {
	got, err := ParseScoreAggregation("")
	require.NoError(t, err)
	assert.Equal(t, AggregationSingle, got)

	got, err = ParseScoreAggregation(" Legacy ")
	require.NoError(t, err)
	assert.Equal(t, AggregationLegacy, got)

	_, err = ParseScoreAggregation("double")
	assert.Error(t, err)
}

func TestDetectInstallSource(t *testing.T) {
	tests := map[string]models.InstallSource{
		"":                                models.InstallSourceUnknown,
		"com.android.vending":             models.InstallSourcePlayStore,
		"com.amazon.venezia":              models.InstallSourceAmazon,
		"com.sec.android.app.samsungapps": models.InstallSourceSamsung,
		"com.google.android.packageinstaller": models.InstallSourceADB,
		"adb":                             models.InstallSourceADB,
		"org.fdroid.fdroid":               models.InstallSourceUnknown,
	}
	for installer, want := range tests {
		assert.Equal(t, want, DetectInstallSource(installer), "installer %q", installer)
	}
}
