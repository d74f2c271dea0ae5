package handlers

import (
	"net/http"

	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// DashboardHandler serves the dashboard view: clients joined with their
// single most recent audit.
type DashboardHandler struct {
	Clients *repo.ClientRepo
}

// GetDashboard handles GET /dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Clients.Dashboard(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.DashboardRow{}
	}
	writeJSON(w, rows, http.StatusOK)
}
