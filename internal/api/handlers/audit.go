package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/provider"
	"guardian-audit/pkg/logger"
)

// AuditHandler runs audits over snapshots posted by a collector
type AuditHandler struct {
	scanner     *services.Scanner
	system      *services.SystemAuditor
	reports     cache.ReportStore
	defaultMode models.AuditMode
	logger      *logger.Logger
}

// NewAuditHandler creates a new audit handler. reports may be nil.
func NewAuditHandler(scanner *services.Scanner, system *services.SystemAuditor, reports cache.ReportStore, mode models.AuditMode, log *logger.Logger) *AuditHandler {
	if mode == "" {
		mode = models.AuditModeQuick
	}
	return &AuditHandler{
		scanner:     scanner,
		system:      system,
		reports:     reports,
		defaultMode: mode,
		logger:      log.WithComponent("audit-handler"),
	}
}

// Scan handles POST /api/v1/scans
func (h *AuditHandler) Scan(w http.ResponseWriter, r *http.Request) {
	mode, ok := auditMode(w, r, h.defaultMode)
	if !ok {
		return
	}
	src, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}

	report := h.scanner.Scan(r.Context(), mode, src, src)

	if h.reports != nil {
		if err := h.reports.SaveReport(r.Context(), report); err != nil {
			h.logger.Error().Err(err).Str("scan_id", report.ID.String()).Msg("failed to store report")
		}
	}

	respondJSON(w, http.StatusOK, report)
}

// AuditApps handles POST /api/v1/apps/audit
func (h *AuditHandler) AuditApps(w http.ResponseWriter, r *http.Request) {
	mode, ok := auditMode(w, r, h.defaultMode)
	if !ok {
		return
	}

	var minRisk models.Risk
	if raw := r.URL.Query().Get("min_risk"); raw != "" {
		minRisk = models.Risk(raw)
		if minRisk.Rank() == 0 {
			respondError(w, http.StatusBadRequest, "min_risk must be critical, high, medium or low")
			return
		}
	}

	src, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}

	apps := h.scanner.AuditApps(r.Context(), mode, src)
	if minRisk != "" {
		filtered := apps[:0]
		for _, app := range apps {
			if app.Risk.Rank() >= minRisk.Rank() {
				filtered = append(filtered, app)
			}
		}
		apps = filtered
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"mode":   mode,
		"policy": h.scanner.Policy().Name(),
		"count":  len(apps),
		"apps":   apps,
	})
}

// AuditApp handles POST /api/v1/apps/{package}/audit
func (h *AuditHandler) AuditApp(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "package")
	if packageName == "" {
		respondError(w, http.StatusBadRequest, "package name is required")
		return
	}
	mode, ok := auditMode(w, r, h.defaultMode)
	if !ok {
		return
	}
	src, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}

	audit, err := h.scanner.AuditPackage(r.Context(), mode, src, packageName)
	switch {
	case errors.Is(err, provider.ErrPackageNotFound):
		respondError(w, http.StatusNotFound, "package not found in snapshot")
		return
	case errors.Is(err, services.ErrInvalidPackage):
		respondError(w, http.StatusUnprocessableEntity, "package record is invalid")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("package", packageName).Msg("failed to audit package")
		respondError(w, http.StatusInternalServerError, "failed to audit package")
		return
	}

	respondJSON(w, http.StatusOK, audit)
}

// AuditSystem handles POST /api/v1/system/audit
func (h *AuditHandler) AuditSystem(w http.ResponseWriter, r *http.Request) {
	src, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}

	device, _ := src.DeviceInfo(r.Context())
	findings := h.system.Audit(r.Context(), src)

	weight := 0
	for _, f := range findings {
		weight += f.Weight
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"device":   device,
		"findings": findings,
		"weight":   weight,
	})
}

// ScoreRequest is the body of POST /api/v1/score
type ScoreRequest struct {
	PackageName   string               `json:"package_name"`
	Permissions   []string             `json:"permissions"`
	Installer     string               `json:"installer"`
	InstallSource models.InstallSource `json:"install_source"`
	IsSystemApp   bool                 `json:"is_system_app"`
	ArchivePath   string               `json:"archive_path"`
}

// ScoreResponse is the permission score of one package
type ScoreResponse struct {
	PackageName   string               `json:"package_name"`
	InstallSource models.InstallSource `json:"install_source"`
	RiskScore     int                  `json:"risk_score"`
	Risk          models.Risk          `json:"risk"`
}

// Score handles POST /api/v1/score
func (h *AuditHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := req.InstallSource
	if source == "" {
		source = services.DetectInstallSource(req.Installer)
	}

	hasInternet := false
	perms := make([]models.AppPermission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, models.AppPermission{Name: p, Dangerous: services.IsDangerousPermission(p)})
		if p == "android.permission.INTERNET" {
			hasInternet = true
		}
	}

	score, risk := services.CalculatePermissionRisk(services.ScoringInput{
		Permissions:   perms,
		InstallSource: source,
		HasInternet:   hasInternet,
		IsSystemApp:   req.IsSystemApp,
		ArchivePath:   req.ArchivePath,
		PackageName:   req.PackageName,
	})

	respondJSON(w, http.StatusOK, ScoreResponse{
		PackageName:   req.PackageName,
		InstallSource: source,
		RiskScore:     score,
		Risk:          risk,
	})
}
