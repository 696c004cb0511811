package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"guardian-audit/internal/infrastructure/refdb"
)

// Reference entry kinds
const (
	KindCertificate = "certificate"
	KindPackage     = "package"
	KindTracker     = "tracker"
)

const referenceSchema = `
	CREATE TABLE IF NOT EXISTS reference_entries (
		kind        TEXT NOT NULL,
		key         TEXT NOT NULL,
		label       TEXT NOT NULL,
		risk_score  INTEGER NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (kind, key)
	)`

// ReferenceRepository stores the shared malware and tracker reference set
type ReferenceRepository struct {
	pool DBTX
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(pool DBTX) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// EnsureSchema creates the reference table if it does not exist
func (r *ReferenceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, referenceSchema); err != nil {
		return fmt.Errorf("failed to create reference_entries: %w", err)
	}
	return nil
}

type referenceRow struct {
	Kind      string
	Key       string
	Label     string
	RiskScore int
}

// LoadDataset reads every reference entry
func (r *ReferenceRepository) LoadDataset(ctx context.Context, source string) (refdb.Dataset, error) {
	query := `
		SELECT kind, key, label, risk_score
		FROM reference_entries
		ORDER BY kind, key`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return refdb.Dataset{}, fmt.Errorf("failed to query reference entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[referenceRow])
	if err != nil {
		return refdb.Dataset{}, fmt.Errorf("failed to scan reference entries: %w", err)
	}

	ds := refdb.Dataset{Source: source}
	for _, e := range entries {
		switch e.Kind {
		case KindCertificate:
			ds.Certificates = append(ds.Certificates, refdb.CertificateEntry{Hash: e.Key, Family: e.Label})
		case KindPackage:
			ds.Packages = append(ds.Packages, refdb.PackageEntry{Name: e.Key, Family: e.Label})
		case KindTracker:
			ds.Trackers = append(ds.Trackers, refdb.TrackerEntry{Namespace: e.Key, Name: e.Label, RiskScore: e.RiskScore})
		}
	}

	return ds, nil
}

const upsertReferenceQuery = `
	INSERT INTO reference_entries (kind, key, label, risk_score, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (kind, key) DO UPDATE SET
		label = EXCLUDED.label,
		risk_score = EXCLUDED.risk_score,
		updated_at = NOW()`

// buildUpsertBatch queues one upsert per entry. Certificate hashes are
// normalized so lookups match regardless of colons or case.
func buildUpsertBatch(ds refdb.Dataset) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, c := range ds.Certificates {
		batch.Queue(upsertReferenceQuery, KindCertificate, refdb.NormalizeHash(c.Hash), c.Family, 0)
	}
	for _, p := range ds.Packages {
		batch.Queue(upsertReferenceQuery, KindPackage, p.Name, p.Family, 0)
	}
	for _, t := range ds.Trackers {
		batch.Queue(upsertReferenceQuery, KindTracker, t.Namespace, t.Name, t.RiskScore)
	}
	return batch
}

// UpsertDataset writes a dataset in a single batch
func (r *ReferenceRepository) UpsertDataset(ctx context.Context, ds refdb.Dataset) (int, error) {
	batch := buildUpsertBatch(ds)
	if batch.Len() == 0 {
		return 0, nil
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("failed to upsert reference entry %d: %w", i, err)
		}
	}

	return batch.Len(), nil
}
