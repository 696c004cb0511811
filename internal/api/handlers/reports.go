package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/pkg/logger"
)

// ReportsHandler serves stored scan reports
type ReportsHandler struct {
	reports cache.ReportStore
	locale  models.Locale
	logger  *logger.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reports cache.ReportStore, locale models.Locale, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		locale:  locale,
		logger:  log.WithComponent("reports-handler"),
	}
}

// List handles GET /api/v1/reports
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}

	ids, err := h.reports.ListReportIDs(r.Context(), queryLimit(r, 20, 100))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list reports")
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(ids),
		"reports": ids,
	})
}

// Latest handles GET /api/v1/reports/latest
func (h *ReportsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}
	report, err := h.reports.LatestReport(r.Context())
	h.respondReport(w, report, err)
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Summary handles GET /api/v1/reports/{id}/summary
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.load(w, r)
	if !ok {
		return
	}

	locale := h.locale
	if q := r.URL.Query().Get("locale"); q != "" {
		locale = models.Locale(q)
	}

	respondJSON(w, http.StatusOK, NewReportSummary(report, models.PresentationFor(locale)))
}

// Delete handles DELETE /api/v1/reports/{id}
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	err = h.reports.DeleteReport(r.Context(), id)
	switch {
	case errors.Is(err, cache.ErrReportNotFound):
		respondError(w, http.StatusNotFound, "report not found")
	case err != nil:
		h.logger.Error().Err(err).Str("report_id", id.String()).Msg("failed to delete report")
		respondError(w, http.StatusInternalServerError, "failed to delete report")
	default:
		h.logger.Info().Str("report_id", id.String()).Msg("report deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ReportsHandler) load(w http.ResponseWriter, r *http.Request) (*models.ScanReport, bool) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "report storage not configured")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return nil, false
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		h.respondReport(w, nil, err)
		return nil, false
	}
	return report, true
}

func (h *ReportsHandler) respondReport(w http.ResponseWriter, report *models.ScanReport, err error) {
	switch {
	case errors.Is(err, cache.ErrReportNotFound):
		respondError(w, http.StatusNotFound, "report not found")
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to load report")
		respondError(w, http.StatusInternalServerError, "failed to load report")
	default:
		respondJSON(w, http.StatusOK, report)
	}
}

// RiskCount is one tier line of a localized summary
type RiskCount struct {
	Risk  models.Risk `json:"risk"`
	Label string      `json:"label"`
	Count int         `json:"count"`
}

// AppLine is one app line of a localized summary
type AppLine struct {
	PackageName   string `json:"package_name"`
	AppName       string `json:"app_name"`
	RiskScore     int    `json:"risk_score"`
	Risk          string `json:"risk"`
	InstallSource string `json:"install_source"`
	Findings      int    `json:"findings"`
}

// ReportSummary is a report rendered with display labels for one locale
type ReportSummary struct {
	ID             uuid.UUID         `json:"id"`
	Device         models.DeviceInfo `json:"device"`
	Risks          []RiskCount       `json:"risks"`
	Apps           []AppLine         `json:"apps"`
	DeviceFindings int               `json:"device_findings"`
	DeviceWeight   int               `json:"device_weight"`
}

// NewReportSummary renders a report with the labels of one presentation
func NewReportSummary(report *models.ScanReport, p models.Presentation) ReportSummary {
	summary := ReportSummary{
		ID:             report.ID,
		Device:         report.Device,
		Risks:          make([]RiskCount, 0, len(models.AllRisks)),
		Apps:           make([]AppLine, 0, len(report.Apps)),
		DeviceFindings: report.Summary.DeviceFindings,
		DeviceWeight:   report.Summary.DeviceWeight,
	}

	for _, risk := range models.AllRisks {
		summary.Risks = append(summary.Risks, RiskCount{
			Risk:  risk,
			Label: p.RiskLabel(risk),
			Count: report.Summary.ByRisk[risk],
		})
	}

	for _, app := range report.Apps {
		summary.Apps = append(summary.Apps, AppLine{
			PackageName:   app.PackageName,
			AppName:       app.AppName,
			RiskScore:     app.RiskScore,
			Risk:          p.RiskLabel(app.Risk),
			InstallSource: p.InstallSourceLabel(app.InstallSource),
			Findings:      len(app.Findings),
		})
	}

	return summary
}
