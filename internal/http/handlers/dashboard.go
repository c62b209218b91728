package handlers

import (
	"net/http"

	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/enrich"
	"github.com/wolfman30/insightdesk/internal/session"
	"github.com/wolfman30/insightdesk/internal/stats"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// DashboardHandler serves the overview counters.
type DashboardHandler struct {
	src    datasource.Source
	logger *logging.Logger
}

// NewDashboardHandler creates a dashboard handler over src.
func NewDashboardHandler(src datasource.Source, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{src: src, logger: logger}
}

// GetDashboard returns the overview summary.
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	lookups, err := session.LoadLookups(r.Context(), h.src)
	if err != nil {
		h.logger.Error("dashboard load failed", "error", err)
		writeFailed(w, err)
		return
	}
	summary := stats.Dashboard(
		enrich.Conversations(lookups.Conversations(), lookups),
		enrich.Insights(lookups.Insights(), lookups),
	)
	writeJSON(w, http.StatusOK, summary)
}
