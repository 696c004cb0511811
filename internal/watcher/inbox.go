package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/provider"
	"guardian-audit/pkg/logger"
)

const (
	// SnapshotPattern matches snapshot files dropped into the inbox
	SnapshotPattern = "*.json"

	reportSuffix = ".report.json"
)

// InboxProcessor scans snapshot files and writes the resulting reports to
// the outbox
type InboxProcessor struct {
	scanner   *services.Scanner
	mode      models.AuditMode
	outboxDir string
	store     cache.ReportStore
	logger    *logger.Logger
}

// NewInboxProcessor creates a processor. store may be nil.
func NewInboxProcessor(scanner *services.Scanner, mode models.AuditMode, outboxDir string, store cache.ReportStore, log *logger.Logger) *InboxProcessor {
	return &InboxProcessor{
		scanner:   scanner,
		mode:      mode,
		outboxDir: outboxDir,
		store:     store,
		logger:    log.WithComponent("inbox"),
	}
}

// Handle implements FileHandler
func (p *InboxProcessor) Handle(ctx context.Context, path string) error {
	if strings.HasSuffix(path, reportSuffix) {
		return nil
	}

	snap, err := provider.LoadSnapshot(path)
	if err != nil {
		return err
	}

	src := provider.NewSnapshotProvider(snap)
	report := p.scanner.Scan(ctx, p.mode, src, src)

	if p.store != nil {
		if err := p.store.SaveReport(ctx, report); err != nil {
			p.logger.Warn().Err(err).Str("scan_id", report.ID.String()).Msg("failed to store report")
		}
	}

	out, err := p.writeReport(path, report)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("snapshot", filepath.Base(path)).
		Str("report", out).
		Int("apps", report.Summary.TotalApps).
		Msg("snapshot scanned")
	return nil
}

// writeReport writes the report next to the snapshot's name in the outbox.
// The file is renamed into place so readers never see a partial report.
func (p *InboxProcessor) writeReport(snapshotPath string, report *models.ScanReport) (string, error) {
	if err := os.MkdirAll(p.outboxDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create outbox: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(snapshotPath), filepath.Ext(snapshotPath))
	out := filepath.Join(p.outboxDir, base+reportSuffix)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	return out, nil
}

// NewInbox wires a file watcher on inboxDir to an inbox processor
func NewInbox(inboxDir string, processor *InboxProcessor, debounce time.Duration, log *logger.Logger) (*FileWatcher, error) {
	return NewFileWatcher(inboxDir, SnapshotPattern, debounce, processor.Handle, log)
}
