package api

import (
	"net/http"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/store"
)

// StatsHandler serves the persisted completion totals.
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a new StatsHandler with the given store.
func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

// ServeHTTP handles GET /api/stats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Stats().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stats")
		return
	}
	if stats == nil {
		stats = []*store.Stat{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}

// ReportHandler serves pose statistics gathered by the reporting goroutine.
type ReportHandler struct {
	report func() app.PoseStatsSnapshot
}

// NewReportHandler creates a ReportHandler that reads from report.
func NewReportHandler(report func() app.PoseStatsSnapshot) *ReportHandler {
	return &ReportHandler{report: report}
}

// ServeHTTP handles GET /api/report.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.report())
}
