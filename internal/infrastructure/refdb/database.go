package refdb

import (
	"fmt"
	"sort"
	"strings"

	"guardian-audit/internal/domain/models"
)

// CertificateEntry flags a signing certificate hash as malware
type CertificateEntry struct {
	Hash   string `yaml:"hash" json:"hash"`
	Family string `yaml:"family" json:"family"`
}

// PackageEntry flags a package name as malware
type PackageEntry struct {
	Name   string `yaml:"name" json:"name"`
	Family string `yaml:"family" json:"family"`
}

// TrackerEntry registers a tracker namespace with its risk score
type TrackerEntry struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Name      string `yaml:"name" json:"name"`
	RiskScore int    `yaml:"risk_score" json:"risk_score"`
}

// Dataset is one batch of reference entries from a single source
type Dataset struct {
	Source       string             `yaml:"source" json:"source"`
	Certificates []CertificateEntry `yaml:"certificates" json:"certificates"`
	Packages     []PackageEntry     `yaml:"packages" json:"packages"`
	Trackers     []TrackerEntry     `yaml:"trackers" json:"trackers"`
}

// Stats summarizes a built database
type Stats struct {
	Certificates int      `json:"certificates"`
	Packages     int      `json:"packages"`
	Trackers     int      `json:"trackers"`
	Sources      []string `json:"sources"`
}

// Database is the immutable malware and tracker lookup. It is built once and
// shared read-only by every audit, so it needs no locking.
type Database struct {
	certificates map[string]models.MalwareMatch
	packages     map[string]models.MalwareMatch
	trackers     map[string]models.TrackerMatch
	sources      []string
}

// Build merges datasets into a database. Later datasets override earlier
// entries with the same key.
func Build(datasets ...Dataset) (*Database, error) {
	db := &Database{
		certificates: make(map[string]models.MalwareMatch),
		packages:     make(map[string]models.MalwareMatch),
		trackers:     make(map[string]models.TrackerMatch),
	}

	for _, ds := range datasets {
		if err := db.load(ds); err != nil {
			return nil, fmt.Errorf("failed to load dataset %q: %w", ds.Source, err)
		}
		if ds.Source != "" {
			db.sources = append(db.sources, ds.Source)
		}
	}

	return db, nil
}

func (db *Database) load(ds Dataset) error {
	for i, c := range ds.Certificates {
		hash := NormalizeHash(c.Hash)
		if hash == "" {
			return fmt.Errorf("certificate entry %d: empty hash", i)
		}
		db.certificates[hash] = models.MalwareMatch{Name: c.Family}
	}

	for i, p := range ds.Packages {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("package entry %d: empty name", i)
		}
		db.packages[name] = models.MalwareMatch{Name: p.Family}
	}

	for i, t := range ds.Trackers {
		namespace := strings.TrimSpace(t.Namespace)
		if namespace == "" {
			return fmt.Errorf("tracker entry %d: empty namespace", i)
		}
		if t.RiskScore < 0 {
			return fmt.Errorf("tracker %s: negative risk score %d", namespace, t.RiskScore)
		}
		name := t.Name
		if name == "" {
			name = namespace
		}
		db.trackers[namespace] = models.TrackerMatch{Name: name, RiskScore: t.RiskScore}
	}

	return nil
}

// NormalizeHash lowercases a hex fingerprint and strips ':' and ' ' separators
func NormalizeHash(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	return strings.NewReplacer(":", "", " ", "").Replace(hash)
}

// LookupByCertificateHash returns the family a certificate hash belongs to
func (db *Database) LookupByCertificateHash(hash string) (models.MalwareMatch, bool) {
	m, ok := db.certificates[NormalizeHash(hash)]
	return m, ok
}

// LookupByPackageName returns the family a package name is listed under
func (db *Database) LookupByPackageName(name string) (models.MalwareMatch, bool) {
	m, ok := db.packages[name]
	return m, ok
}

// LookupTracker matches the exact name, then the longest registered
// namespace that is a dot-boundary prefix of it
func (db *Database) LookupTracker(name string) (models.TrackerMatch, bool) {
	for candidate := name; candidate != ""; {
		if m, ok := db.trackers[candidate]; ok {
			return m, true
		}
		idx := strings.LastIndexByte(candidate, '.')
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
	}
	return models.TrackerMatch{}, false
}

// Stats returns entry counts per table
func (db *Database) Stats() Stats {
	sources := append([]string(nil), db.sources...)
	sort.Strings(sources)
	return Stats{
		Certificates: len(db.certificates),
		Packages:     len(db.packages),
		Trackers:     len(db.trackers),
		Sources:      sources,
	}
}
