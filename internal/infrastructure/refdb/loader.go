package refdb

import (
	"context"
	"fmt"

	"guardian-audit/internal/config"
	"guardian-audit/pkg/logger"
)

// DatasetLoader fetches a dataset from a remote store
type DatasetLoader interface {
	LoadDataset(ctx context.Context, source string) (Dataset, error)
}

// Load assembles the reference database from every configured source in
// order: builtin, files, SQLite, Postgres. remote may be nil when Postgres is
// not configured.
func Load(ctx context.Context, cfg config.ReferenceConfig, remote DatasetLoader, log *logger.Logger) (*Database, error) {
	log = log.WithComponent("refdb")

	var datasets []Dataset

	if cfg.Builtin {
		datasets = append(datasets, Builtin())
	}

	for _, path := range cfg.Files {
		ds, err := LoadYAML(path)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if cfg.SQLitePath != "" {
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		ds, err := LoadSQLite(db, "sqlite:"+cfg.SQLitePath)
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if cfg.Postgres {
		if remote == nil {
			return nil, fmt.Errorf("postgres reference source enabled but no connection configured")
		}
		ds, err := remote.LoadDataset(ctx, "postgres")
		if err != nil {
			return nil, fmt.Errorf("failed to load postgres reference set: %w", err)
		}
		datasets = append(datasets, ds)
	}

	db, err := Build(datasets...)
	if err != nil {
		return nil, err
	}

	stats := db.Stats()
	log.Info().
		Int("certificates", stats.Certificates).
		Int("packages", stats.Packages).
		Int("trackers", stats.Trackers).
		Strs("sources", stats.Sources).
		Msg("reference database loaded")

	return db, nil
}
