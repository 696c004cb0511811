package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/infrastructure/cache"
)

// ErrReportNotFound is returned when no report has the requested id
var ErrReportNotFound = cache.ErrReportNotFound

const scanReportSchema = `
	CREATE TABLE IF NOT EXISTS scan_reports (
		id            UUID PRIMARY KEY,
		mode          TEXT NOT NULL,
		policy        TEXT NOT NULL,
		total_apps    INTEGER NOT NULL,
		critical_apps INTEGER NOT NULL,
		high_apps     INTEGER NOT NULL,
		report        JSONB NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ NOT NULL
	)`

// ScanReportRepository keeps a history of completed scans
type ScanReportRepository struct {
	pool DBTX
}

// NewScanReportRepository creates a new scan report repository
func NewScanReportRepository(pool DBTX) *ScanReportRepository {
	return &ScanReportRepository{pool: pool}
}

// EnsureSchema creates the scan_reports table if it does not exist
func (r *ScanReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, scanReportSchema); err != nil {
		return fmt.Errorf("failed to create scan_reports: %w", err)
	}
	return nil
}

// Save inserts a report
func (r *ScanReportRepository) Save(ctx context.Context, report *models.ScanReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO scan_reports (
			id, mode, policy, total_apps, critical_apps, high_apps,
			report, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err = r.pool.Exec(ctx, query,
		report.ID, string(report.Mode), report.Policy,
		report.Summary.TotalApps,
		report.Summary.ByRisk[models.RiskCritical],
		report.Summary.ByRisk[models.RiskHigh],
		body, report.StartedAt, report.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}
	return nil
}

// GetByID loads one report
func (r *ScanReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScanReport, error) {
	return r.getOne(ctx, `SELECT report FROM scan_reports WHERE id = $1`, id)
}

func (r *ScanReportRepository) getOne(ctx context.Context, query string, args ...any) (*models.ScanReport, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report models.ScanReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode scan report: %w", err)
	}
	return &report, nil
}

// SaveReport implements cache.ReportStore
func (r *ScanReportRepository) SaveReport(ctx context.Context, report *models.ScanReport) error {
	return r.Save(ctx, report)
}

// GetReport implements cache.ReportStore
func (r *ScanReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*models.ScanReport, error) {
	return r.GetByID(ctx, id)
}

// LatestReport returns the most recently completed scan
func (r *ScanReportRepository) LatestReport(ctx context.Context) (*models.ScanReport, error) {
	return r.getOne(ctx, `SELECT report FROM scan_reports ORDER BY completed_at DESC LIMIT 1`)
}

// ListReportIDs returns report ids, newest first
func (r *ScanReportRepository) ListReportIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM scan_reports ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan report ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan scan report ids: %w", err)
	}
	return ids, nil
}

// DeleteReport removes one report
func (r *ScanReportRepository) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scan_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}
