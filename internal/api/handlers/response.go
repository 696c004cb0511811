package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/provider"
)

// maxSnapshotBytes bounds request bodies carrying a device snapshot
const maxSnapshotBytes = 32 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeSnapshot reads a device snapshot from the request body
func decodeSnapshot(w http.ResponseWriter, r *http.Request) (*provider.SnapshotProvider, bool) {
	snap, err := provider.DecodeSnapshot(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid snapshot body")
		return nil, false
	}
	return provider.NewSnapshotProvider(snap), true
}

// auditMode reads the mode query parameter, falling back to def
func auditMode(w http.ResponseWriter, r *http.Request, def models.AuditMode) (models.AuditMode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return def, true
	}
	mode, ok := models.ParseAuditMode(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, "mode must be quick or full")
		return "", false
	}
	return mode, true
}

// queryLimit reads the limit query parameter
func queryLimit(r *http.Request, def, max int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
