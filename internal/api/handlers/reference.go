package handlers

import (
	"net/http"

	"guardian-audit/internal/infrastructure/refdb"
	"guardian-audit/pkg/logger"
)

// ReferenceHandler exposes the loaded reference database
type ReferenceHandler struct {
	db     *refdb.Database
	logger *logger.Logger
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(db *refdb.Database, log *logger.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		db:     db,
		logger: log.WithComponent("reference-handler"),
	}
}

// Stats handles GET /api/v1/reference/stats
func (h *ReferenceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "reference database not loaded")
		return
	}
	respondJSON(w, http.StatusOK, h.db.Stats())
}

// LookupResult reports reference hits for one query
type LookupResult struct {
	Query   string `json:"query"`
	Kind    string `json:"kind"`
	Matched bool   `json:"matched"`
	Name    string `json:"name,omitempty"`
	Risk    int    `json:"risk_score,omitempty"`
}

// Lookup handles GET /api/v1/reference/lookup?package=&certificate=&tracker=
func (h *ReferenceHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "reference database not loaded")
		return
	}

	q := r.URL.Query()
	var results []LookupResult

	if name := q.Get("package"); name != "" {
		match, ok := h.db.LookupByPackageName(name)
		results = append(results, LookupResult{Query: name, Kind: "package", Matched: ok, Name: match.Name})
	}
	if hash := q.Get("certificate"); hash != "" {
		match, ok := h.db.LookupByCertificateHash(hash)
		results = append(results, LookupResult{Query: hash, Kind: "certificate", Matched: ok, Name: match.Name})
	}
	if class := q.Get("tracker"); class != "" {
		match, ok := h.db.LookupTracker(class)
		results = append(results, LookupResult{Query: class, Kind: "tracker", Matched: ok, Name: match.Name, Risk: match.RiskScore})
	}

	if len(results) == 0 {
		respondError(w, http.StatusBadRequest, "one of package, certificate or tracker is required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}
