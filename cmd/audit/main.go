package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"guardian-audit/internal/config"
	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/infrastructure/database"
	"guardian-audit/internal/infrastructure/database/repository"
	"guardian-audit/internal/infrastructure/refdb"
	"guardian-audit/internal/provider"
	"guardian-audit/internal/watcher"
	"guardian-audit/pkg/logger"
)

// exitRiskFound is returned when -fail-on is set and an app meets it
const exitRiskFound = 3

type options struct {
	configPath      string
	snapshot        string
	mode            string
	policy          string
	aggregation     string
	workers         int
	locale          string
	format          string
	out             string
	failOn          string
	watch           bool
	importReference string
	importPostgres  bool
	verbose         bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to config file")
	flag.StringVar(&o.snapshot, "snapshot", "", "device snapshot to audit (- for stdin)")
	flag.StringVar(&o.mode, "mode", "", "audit mode: quick or full")
	flag.StringVar(&o.policy, "policy", "", "risk policy: layered or permission")
	flag.StringVar(&o.aggregation, "aggregation", "", "layered score aggregation: single or legacy")
	flag.IntVar(&o.workers, "workers", -1, "concurrent package audits (0 = GOMAXPROCS)")
	flag.StringVar(&o.locale, "locale", "", "label locale for text output (en, es)")
	flag.StringVar(&o.format, "format", "text", "output format: text or json")
	flag.StringVar(&o.out, "out", "", "write the report to a file instead of stdout")
	flag.StringVar(&o.failOn, "fail-on", "", "exit with status 3 when an app is at or above this risk")
	flag.BoolVar(&o.watch, "watch", false, "watch the configured inbox for snapshots")
	flag.StringVar(&o.importReference, "import-reference", "", "import a YAML reference set into the SQLite store")
	flag.BoolVar(&o.importPostgres, "import-postgres", false, "with -import-reference, import into Postgres instead")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: "console", Output: os.Stderr})
	logger.SetGlobal(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case opts.importReference != "":
		err = runImport(ctx, cfg, opts, log)
	case opts.watch:
		err = runWatch(ctx, cfg, log)
	default:
		var code int
		code, err = runAudit(ctx, cfg, opts, log)
		if err == nil && code != 0 {
			os.Exit(code)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
		os.Exit(1)
	}
}

// applyOverrides layers command line flags over the loaded config
func applyOverrides(cfg *config.Config, o options) error {
	if o.snapshot != "" {
		cfg.Snapshot.Path = o.snapshot
	}
	if o.mode != "" {
		cfg.Audit.Mode = o.mode
	}
	if o.policy != "" {
		cfg.Audit.Policy = o.policy
	}
	if o.aggregation != "" {
		cfg.Audit.Aggregation = o.aggregation
	}
	if o.workers >= 0 {
		cfg.Audit.Workers = o.workers
	}
	if o.locale != "" {
		cfg.Audit.Locale = o.locale
	}
	switch o.format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid -format %q", o.format)
	}
	if o.failOn != "" {
		if models.Risk(strings.ToLower(o.failOn)).Rank() == 0 {
			return fmt.Errorf("invalid -fail-on %q", o.failOn)
		}
	}
	return cfg.Validate()
}

// runAudit scans one snapshot and writes the report
func runAudit(ctx context.Context, cfg *config.Config, o options, log *logger.Logger) (int, error) {
	if cfg.Snapshot.Path == "" {
		return 0, fmt.Errorf("no snapshot given; use -snapshot or snapshot.path")
	}

	snapshot, err := readSnapshot(cfg.Snapshot.Path)
	if err != nil {
		return 0, err
	}

	scanner, err := newScanner(ctx, cfg, log)
	if err != nil {
		return 0, err
	}

	snapshotProvider := provider.NewSnapshotProvider(snapshot)
	var settings services.SettingsProvider = snapshotProvider
	if cfg.Snapshot.CheckRoot {
		settings = provider.WithRootCheck(settings, provider.FSRootCheck{Root: cfg.Snapshot.FSRoot})
	}

	mode, _ := models.ParseAuditMode(cfg.Audit.Mode)
	report := scanner.Scan(ctx, mode, snapshotProvider, settings)

	var w io.Writer = os.Stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return 0, fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if o.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return 0, fmt.Errorf("failed to write report: %w", err)
		}
	} else if err := writeText(w, report, models.PresentationFor(models.Locale(cfg.Audit.Locale))); err != nil {
		return 0, fmt.Errorf("failed to write report: %w", err)
	}

	if o.failOn != "" && reachesRisk(report, models.Risk(strings.ToLower(o.failOn))) {
		return exitRiskFound, nil
	}
	return 0, nil
}

func readSnapshot(path string) (*provider.Snapshot, error) {
	if path == "-" {
		return provider.DecodeSnapshot(os.Stdin)
	}
	return provider.LoadSnapshot(path)
}

// reachesRisk reports whether any app is at or above threshold
func reachesRisk(report *models.ScanReport, threshold models.Risk) bool {
	for _, app := range report.Apps {
		if app.Risk.Rank() >= threshold.Rank() {
			return true
		}
	}
	return false
}

// runWatch audits every snapshot dropped into the inbox until interrupted
func runWatch(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Watcher.InboxDir == "" {
		return fmt.Errorf("watcher.inbox_dir is not set")
	}

	scanner, err := newScanner(ctx, cfg, log)
	if err != nil {
		return err
	}

	mode, _ := models.ParseAuditMode(cfg.Audit.Mode)
	processor := watcher.NewInboxProcessor(scanner, mode, cfg.Watcher.OutboxDir, cache.NewMemoryReportStore(0), log)
	inbox, err := watcher.NewInbox(cfg.Watcher.InboxDir, processor, cfg.Watcher.Debounce, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "watching %s\n", inbox.WatchDir())
	inbox.Start(ctx)
	<-ctx.Done()
	return inbox.Stop()
}

// runImport loads a YAML reference set into the SQLite or Postgres store
func runImport(ctx context.Context, cfg *config.Config, o options, log *logger.Logger) error {
	ds, err := refdb.LoadYAML(o.importReference)
	if err != nil {
		return err
	}

	if o.importPostgres {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repository.NewReferenceRepository(db.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		n, err := repo.UpsertDataset(ctx, ds)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "imported %d entries into postgres\n", n)
		return nil
	}

	if cfg.Reference.SQLitePath == "" {
		return fmt.Errorf("reference.sqlite_path is not set")
	}
	db, err := refdb.OpenSQLite(cfg.Reference.SQLitePath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := refdb.ImportSQLite(db, ds); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d certificates, %d packages, %d trackers into %s\n",
		len(ds.Certificates), len(ds.Packages), len(ds.Trackers), cfg.Reference.SQLitePath)
	return nil
}

// newScanner loads the reference database and builds the configured policy
func newScanner(ctx context.Context, cfg *config.Config, log *logger.Logger) (*services.Scanner, error) {
	var remote refdb.DatasetLoader
	if cfg.Reference.Postgres {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		remote = repository.NewReferenceRepository(db.Pool())
	}

	reference, err := refdb.Load(ctx, cfg.Reference, remote, log)
	if err != nil {
		return nil, err
	}

	aggregation, err := services.ParseScoreAggregation(cfg.Audit.Aggregation)
	if err != nil {
		return nil, err
	}
	policy, err := services.NewRiskPolicy(cfg.Audit.Policy, services.NewAppAuditor(reference, aggregation, log))
	if err != nil {
		return nil, err
	}

	return services.NewScanner(policy, services.NewSystemAuditor(log), services.ScannerConfig{
		Workers:  cfg.Audit.Workers,
		Observer: services.NewLogObserver(log),
	}, log), nil
}
