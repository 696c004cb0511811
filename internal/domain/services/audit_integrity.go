package services

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"guardian-audit/internal/domain/models"
)

const (
	minArchiveSize        = 150000
	modificationTolerance = 2 * time.Hour
	manifestEntry         = "AndroidManifest.xml"
)

var dexEntry = regexp.MustCompile(`^classes\d*\.dex$`)

// archiveStructure summarizes the entries of an application archive
type archiveStructure struct {
	hasDex      bool
	hasManifest bool
}

// inspectArchive opens the archive and scans its central directory
func inspectArchive(path string) (archiveStructure, error) {
	var structure archiveStructure

	reader, err := zip.OpenReader(path)
	if err != nil {
		return structure, fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		switch {
		case file.Name == manifestEntry:
			structure.hasManifest = true
		case dexEntry.MatchString(file.Name):
			structure.hasDex = true
		}
		if structure.hasDex && structure.hasManifest {
			break
		}
	}

	return structure, nil
}

// withinArchiveRoots reports whether path resolves to a file under one of the
// configured roots. Symlinks are resolved on both sides.
func (a *AppAuditor) withinArchiveRoots(path string) bool {
	if len(a.archiveRoots) == 0 {
		return true
	}
	if path == "" || !filepath.IsAbs(path) {
		return false
	}
	resolved, err := filepath.EvalSymlinks(filepath.Clean(path))
	if err != nil {
		return false
	}
	for _, root := range a.archiveRoots {
		if realRoot, err := filepath.EvalSymlinks(root); err == nil {
			root = realRoot
		}
		rel, err := filepath.Rel(root, resolved)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// checkIntegrity inspects the installed archive on disk. A missing archive
// contributes nothing.
func (a *AppAuditor) checkIntegrity(pkg *models.PackageRecord) securityCheckResult {
	var result securityCheckResult

	if !a.withinArchiveRoots(pkg.SourceDir) {
		a.logger.Debug().
			Str("package", pkg.PackageName).
			Str("path", pkg.SourceDir).
			Msg("archive outside allowed roots, skipping integrity checks")
		return result
	}

	info, err := os.Stat(pkg.SourceDir)
	if err != nil || info.IsDir() {
		a.logger.Debug().
			Str("package", pkg.PackageName).
			Str("path", pkg.SourceDir).
			Msg("archive not accessible, skipping integrity checks")
		return result
	}

	if info.Size() < minArchiveSize {
		result.add(FindingSmallArchive,
			"Unusually small archive",
			fmt.Sprintf("Archive is only %d bytes", info.Size()),
			20)
	}

	if !pkg.FirstInstallTime.IsZero() && info.ModTime().After(pkg.FirstInstallTime.Add(modificationTolerance)) {
		result.add(FindingModifiedArchive,
			"Archive modified after install",
			fmt.Sprintf("Installed %s, modified %s",
				pkg.FirstInstallTime.UTC().Format(time.RFC3339),
				info.ModTime().UTC().Format(time.RFC3339)),
			25)
	}

	if len(pkg.Certificates) > 1 {
		result.add(FindingMultipleSigners,
			"Multiple signers",
			fmt.Sprintf("Signed by %d certificates", len(pkg.Certificates)),
			30)
	}

	structure, err := inspectArchive(pkg.SourceDir)
	if err != nil {
		result.add(FindingUnreadableArchive,
			"Unreadable archive",
			"Archive could not be opened as a zip file",
			20)
		return result
	}

	if !structure.hasDex {
		result.add(FindingMissingDex,
			"Missing executable code",
			"Archive contains no classes.dex",
			25)
	}

	if !structure.hasManifest {
		result.add(FindingMissingManifest,
			"Missing manifest",
			"Archive contains no "+manifestEntry,
			30)
	}

	return result
}
