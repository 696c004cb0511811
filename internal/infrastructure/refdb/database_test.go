package refdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-audit/internal/config"
	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/pkg/logger"
)

var _ services.ReferenceDatabase = (*Database)(nil)

func TestBuild_Lookups(t *testing.T) {
	db, err := Build(Dataset{
		Source:       "test",
		Certificates: []CertificateEntry{{Hash: "AB:CD:EF 01", Family: "Joker"}},
		Packages:     []PackageEntry{{Name: "com.fake.bank", Family: "Anubis"}},
		Trackers: []TrackerEntry{
			{Namespace: "com.adnet", Name: "AdNet", RiskScore: 10},
			{Namespace: "com.adnet.sdk", Name: "AdNet SDK", RiskScore: 20},
		},
	})
	require.NoError(t, err)

	m, ok := db.LookupByCertificateHash("abcdef01")
	require.True(t, ok)
	assert.Equal(t, "Joker", m.Name)

	_, ok = db.LookupByCertificateHash("ab:cd:ef:01")
	assert.True(t, ok)

	m, ok = db.LookupByPackageName("com.fake.bank")
	require.True(t, ok)
	assert.Equal(t, "Anubis", m.Name)

	_, ok = db.LookupByPackageName("com.fake")
	assert.False(t, ok)

	tests := []struct {
		name string
		want models.TrackerMatch
		ok   bool
	}{
		{"com.adnet", models.TrackerMatch{Name: "AdNet", RiskScore: 10}, true},
		{"com.adnet.sdk", models.TrackerMatch{Name: "AdNet SDK", RiskScore: 20}, true},
		{"com.adnet.sdk.core", models.TrackerMatch{Name: "AdNet SDK", RiskScore: 20}, true},
		{"com.adnet.other", models.TrackerMatch{Name: "AdNet", RiskScore: 10}, true},
		{"com.adnetwork", models.TrackerMatch{}, false},
		{"org.clean.app", models.TrackerMatch{}, false},
	}
	for _, tt := range tests {
		got, ok := db.LookupTracker(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	stats := db.Stats()
	assert.Equal(t, Stats{Certificates: 1, Packages: 1, Trackers: 2, Sources: []string{"test"}}, stats)
}

func TestBuild_LaterDatasetsOverride(t *testing.T) {
	db, err := Build(
		Dataset{Source: "a", Packages: []PackageEntry{{Name: "com.x.y", Family: "Old"}}},
		Dataset{Source: "b", Packages: []PackageEntry{{Name: "com.x.y", Family: "New"}}},
	)
	require.NoError(t, err)

	m, ok := db.LookupByPackageName("com.x.y")
	require.True(t, ok)
	assert.Equal(t, "New", m.Name)
}

func TestBuild_RejectsInvalidEntries(t *testing.T) {
	_, err := Build(Dataset{Certificates: []CertificateEntry{{Hash: " : "}}})
	assert.Error(t, err)

	_, err = Build(Dataset{Packages: []PackageEntry{{Name: ""}}})
	assert.Error(t, err)

	_, err = Build(Dataset{Trackers: []TrackerEntry{{Namespace: "com.t", RiskScore: -1}}})
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	db, err := Build(Builtin())
	require.NoError(t, err)

	m, ok := db.LookupTracker("com.appsflyer.demo")
	require.True(t, ok)
	assert.Equal(t, "AppsFlyer", m.Name)
	assert.Greater(t, m.RiskScore, 0)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
certificates:
  - hash: "DE:AD:BE:EF"
    family: Joker
packages:
  - name: com.fake.bank
    family: Anubis
trackers:
  - namespace: com.spyware.sdk
    name: SpySDK
    risk_score: 25
`), 0o644))

	ds, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, ds.Source)
	require.Len(t, ds.Certificates, 1)
	require.Len(t, ds.Packages, 1)
	require.Len(t, ds.Trackers, 1)
	assert.Equal(t, 25, ds.Trackers[0].RiskScore)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)

	require.NoError(t, ImportSQLite(db, Dataset{
		Certificates: []CertificateEntry{{Hash: "AA:BB", Family: "Joker"}},
		Packages:     []PackageEntry{{Name: "com.fake.bank", Family: "Anubis"}},
		Trackers:     []TrackerEntry{{Namespace: "com.spyware.sdk", Name: "SpySDK", RiskScore: 25}},
	}))
	// upsert replaces the family
	require.NoError(t, ImportSQLite(db, Dataset{
		Packages: []PackageEntry{{Name: "com.fake.bank", Family: "Cerberus"}},
	}))

	ds, err := LoadSQLite(db, "sqlite:test")
	require.NoError(t, err)
	assert.Equal(t, []CertificateEntry{{Hash: "aabb", Family: "Joker"}}, ds.Certificates)
	assert.Equal(t, []PackageEntry{{Name: "com.fake.bank", Family: "Cerberus"}}, ds.Packages)
	assert.Equal(t, []TrackerEntry{{Namespace: "com.spyware.sdk", Name: "SpySDK", RiskScore: 25}}, ds.Trackers)
}

func TestImportSQLite_KeepsTablesApart(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)

	require.NoError(t, ImportSQLite(db, Dataset{
		Certificates: []CertificateEntry{{Hash: "aabb", Family: "F1"}, {Hash: "ccdd", Family: "F2"}},
		Packages:     []PackageEntry{{Name: "com.a.b", Family: "P1"}, {Name: "com.c.d", Family: "P2"}},
		Trackers:     []TrackerEntry{{Namespace: "com.t.one", Name: "T1", RiskScore: 5}, {Namespace: "com.t.two", Name: "T2", RiskScore: 10}},
	}))

	var certCount, packageCount, trackerCount int64
	require.NoError(t, db.Model(&MalwareCertificate{}).Count(&certCount).Error)
	require.NoError(t, db.Model(&MalwarePackage{}).Count(&packageCount).Error)
	require.NoError(t, db.Model(&Tracker{}).Count(&trackerCount).Error)
	assert.Equal(t, int64(2), certCount)
	assert.Equal(t, int64(2), packageCount)
	assert.Equal(t, int64(2), trackerCount)

	ds, err := LoadSQLite(db, "sqlite:test")
	require.NoError(t, err)
	assert.Equal(t, []CertificateEntry{{Hash: "aabb", Family: "F1"}, {Hash: "ccdd", Family: "F2"}}, ds.Certificates)
	assert.Equal(t, []PackageEntry{{Name: "com.a.b", Family: "P1"}, {Name: "com.c.d", Family: "P2"}}, ds.Packages)
	assert.Equal(t, []TrackerEntry{
		{Namespace: "com.t.one", Name: "T1", RiskScore: 5},
		{Namespace: "com.t.two", Name: "T2", RiskScore: 10},
	}, ds.Trackers)

	ref, err := Build(ds)
	require.NoError(t, err)
	_, found := ref.LookupByCertificateHash("com.a.b")
	assert.False(t, found, "package names never become certificate hashes")
	_, found = ref.LookupByPackageName("com.c.d")
	assert.True(t, found)
}

type stubRemote struct {
	ds  Dataset
	err error
}

func (s stubRemote) LoadDataset(_ context.Context, source string) (Dataset, error) {
	s.ds.Source = source
	return s.ds, s.err
}

func TestLoad_MergesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - name: com.file.malware\n    family: FileFam\n"), 0o644))

	remote := stubRemote{ds: Dataset{Packages: []PackageEntry{{Name: "com.pg.malware", Family: "PgFam"}}}}
	db, err := Load(context.Background(), config.ReferenceConfig{
		Builtin:  true,
		Files:    []string{path},
		Postgres: true,
	}, remote, logger.NewNop())
	require.NoError(t, err)

	_, ok := db.LookupByPackageName("com.file.malware")
	assert.True(t, ok)
	_, ok = db.LookupByPackageName("com.pg.malware")
	assert.True(t, ok)
	_, ok = db.LookupTracker("com.appsflyer")
	assert.True(t, ok)
	assert.Equal(t, []string{SourceBuiltin, "file:" + path, "postgres"}, db.Stats().Sources)
}

func TestLoad_RemoteFailure(t *testing.T) {
	_, err := Load(context.Background(), config.ReferenceConfig{Postgres: true}, stubRemote{err: errors.New("down")}, logger.NewNop())
	assert.Error(t, err)

	_, err = Load(context.Background(), config.ReferenceConfig{Postgres: true}, nil, logger.NewNop())
	assert.Error(t, err)
}
