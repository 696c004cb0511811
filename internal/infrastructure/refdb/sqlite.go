package refdb

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/clause"
)

// MalwareCertificate is the on-device table of flagged signing certificates
type MalwareCertificate struct {
	Hash      string `gorm:"primaryKey;size:64"`
	Family    string `gorm:"size:128;not null"`
	UpdatedAt time.Time
}

// MalwarePackage is the on-device table of flagged package names
type MalwarePackage struct {
	Name      string `gorm:"primaryKey;size:255"`
	Family    string `gorm:"size:128;not null"`
	UpdatedAt time.Time
}

// Tracker is the on-device table of tracker namespaces
type Tracker struct {
	Namespace string `gorm:"primaryKey;size:255"`
	Name      string `gorm:"size:128;not null"`
	RiskScore int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// OpenSQLite opens the on-device reference store and migrates its tables
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open reference store: %w", err)
	}

	if err := db.AutoMigrate(&MalwareCertificate{}, &MalwarePackage{}, &Tracker{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reference store: %w", err)
	}

	return db, nil
}

// LoadSQLite reads every table into a dataset
func LoadSQLite(db *gorm.DB, source string) (Dataset, error) {
	ds := Dataset{Source: source}

	var certs []MalwareCertificate
	if err := db.Order("hash").Find(&certs).Error; err != nil {
		return Dataset{}, fmt.Errorf("failed to load certificates: %w", err)
	}
	for _, c := range certs {
		ds.Certificates = append(ds.Certificates, CertificateEntry{Hash: c.Hash, Family: c.Family})
	}

	var packages []MalwarePackage
	if err := db.Order("name").Find(&packages).Error; err != nil {
		return Dataset{}, fmt.Errorf("failed to load packages: %w", err)
	}
	for _, p := range packages {
		ds.Packages = append(ds.Packages, PackageEntry{Name: p.Name, Family: p.Family})
	}

	var trackers []Tracker
	if err := db.Order("namespace").Find(&trackers).Error; err != nil {
		return Dataset{}, fmt.Errorf("failed to load trackers: %w", err)
	}
	for _, t := range trackers {
		ds.Trackers = append(ds.Trackers, TrackerEntry{Namespace: t.Namespace, Name: t.Name, RiskScore: t.RiskScore})
	}

	return ds, nil
}

// ImportSQLite upserts a dataset into the reference store in one transaction.
// Each table is written in a single batch.
func ImportSQLite(db *gorm.DB, ds Dataset) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if len(ds.Certificates) > 0 {
			rows := make([]MalwareCertificate, 0, len(ds.Certificates))
			for _, c := range ds.Certificates {
				rows = append(rows, MalwareCertificate{Hash: NormalizeHash(c.Hash), Family: c.Family})
			}
			if err := upsertRows(tx, &rows); err != nil {
				return fmt.Errorf("failed to import certificates: %w", err)
			}
		}

		if len(ds.Packages) > 0 {
			rows := make([]MalwarePackage, 0, len(ds.Packages))
			for _, p := range ds.Packages {
				rows = append(rows, MalwarePackage{Name: p.Name, Family: p.Family})
			}
			if err := upsertRows(tx, &rows); err != nil {
				return fmt.Errorf("failed to import packages: %w", err)
			}
		}

		if len(ds.Trackers) > 0 {
			rows := make([]Tracker, 0, len(ds.Trackers))
			for _, t := range ds.Trackers {
				rows = append(rows, Tracker{Namespace: t.Namespace, Name: t.Name, RiskScore: t.RiskScore})
			}
			if err := upsertRows(tx, &rows); err != nil {
				return fmt.Errorf("failed to import trackers: %w", err)
			}
		}

		return nil
	})
}

// upsertRows inserts a slice of rows on a fresh statement, replacing rows
// whose primary key already exists
func upsertRows(tx *gorm.DB, rows any) error {
	return tx.Session(&gorm.Session{}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 500).Error
}
