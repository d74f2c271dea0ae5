package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pagepulse/pagepulse/internal/audit"
	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// AuditHandler serves audit history, manual run-now, and report retrieval.
type AuditHandler struct {
	Audits  *repo.AuditRepo
	Clients *repo.ClientRepo
	Runner  *audit.Runner
}

// ListClientAudits returns the client's most recent runs, newest first,
// capped at 50 rows.
func (h *AuditHandler) ListClientAudits(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		JSONError(w, "invalid client id", http.StatusBadRequest)
		return
	}

	c, err := h.Clients.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if c == nil {
		JSONError(w, "client not found", http.StatusNotFound)
		return
	}

	list, err := h.Audits.ListByClient(r.Context(), id, repo.MaxAuditHistory)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.AuditRun{}
	}
	writeJSON(w, list, http.StatusOK)
}

// RunAudit triggers a manual audit for the client and waits for the outcome.
// Body: {"form_factor": "mobile|desktop"}, optional; anything but an explicit
// "desktop" runs as mobile. A concurrent timer firing for the same client is
// not serialized against this request; both record their own run.
func (h *AuditHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		JSONError(w, "invalid client id", http.StatusBadRequest)
		return
	}

	var input struct {
		FormFactor string `json:"form_factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	requested := models.FormFactorMobile
	if input.FormFactor == models.FormFactorDesktop {
		requested = models.FormFactorDesktop
	}

	res, err := h.Runner.Run(r.Context(), id, requested)
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrClientNotFound):
			JSONError(w, "client not found", http.StatusNotFound)
		case errors.Is(err, audit.ErrAuditEngine):
			JSONError(w, err.Error(), http.StatusBadGateway)
		default:
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, res, http.StatusOK)
}

// GetReport returns the full report document of one run; 404 when the run is
// unknown or holds no report (still running, or failed).
func (h *AuditHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid audit id", http.StatusBadRequest)
		return
	}

	report, err := h.Audits.GetReport(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if len(report) == 0 {
		JSONError(w, "report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(report)
}
