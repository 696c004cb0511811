package repository

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-audit/internal/infrastructure/refdb"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestReferenceRepository_EnsureSchema(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reference_entries").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reference_entries").
		WillReturnError(assert.AnError)
	assert.ErrorIs(t, repo.EnsureSchema(context.Background()), assert.AnError)
}

func TestReferenceRepository_LoadDataset(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)

	rows := pgxmock.NewRows([]string{"kind", "key", "label", "risk_score"}).
		AddRow(KindCertificate, "ab12cd", "Joker", 0).
		AddRow(KindPackage, "com.evil.sms", "Joker", 0).
		AddRow(KindTracker, "com.adtrack.", "AdTrack", 40).
		AddRow("retired", "ignored", "Ignored", 0)
	mock.ExpectQuery("SELECT kind, key, label, risk_score").WillReturnRows(rows)

	ds, err := repo.LoadDataset(context.Background(), "postgres")
	require.NoError(t, err)

	assert.Equal(t, "postgres", ds.Source)
	assert.Equal(t, []refdb.CertificateEntry{{Hash: "ab12cd", Family: "Joker"}}, ds.Certificates)
	assert.Equal(t, []refdb.PackageEntry{{Name: "com.evil.sms", Family: "Joker"}}, ds.Packages)
	assert.Equal(t, []refdb.TrackerEntry{{Namespace: "com.adtrack.", Name: "AdTrack", RiskScore: 40}}, ds.Trackers)
}

func TestReferenceRepository_LoadDatasetQueryError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)

	mock.ExpectQuery("SELECT kind, key, label, risk_score").WillReturnError(assert.AnError)

	_, err := repo.LoadDataset(context.Background(), "postgres")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBuildUpsertBatch(t *testing.T) {
	batch := buildUpsertBatch(refdb.Dataset{
		Certificates: []refdb.CertificateEntry{{Hash: "AB:12:CD", Family: "Joker"}},
		Packages:     []refdb.PackageEntry{{Name: "com.evil.sms", Family: "Joker"}},
		Trackers:     []refdb.TrackerEntry{{Namespace: "com.adtrack.", Name: "AdTrack", RiskScore: 40}},
	})

	require.Equal(t, 3, batch.Len())
	want := [][]any{
		{KindCertificate, "ab12cd", "Joker", 0},
		{KindPackage, "com.evil.sms", "Joker", 0},
		{KindTracker, "com.adtrack.", "AdTrack", 40},
	}
	for i, q := range batch.QueuedQueries {
		assert.Equal(t, upsertReferenceQuery, q.SQL)
		assert.Equal(t, want[i], q.Arguments, "entry %d", i)
	}
}

func TestReferenceRepository_UpsertEmptyDataset(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReferenceRepository(mock)

	n, err := repo.UpsertDataset(context.Background(), refdb.Dataset{Source: "empty"})
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is sent for an empty dataset")
}
