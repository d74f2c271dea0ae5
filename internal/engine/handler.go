package engine

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pagepulse/pagepulse/internal/models"
)

// Handler serves the engine's single endpoint, GET /audit.
type Handler struct {
	Service *Service
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Success: false, Error: message})
}

// Audit handles GET /audit?url=...&form_factor=...&client_id=...
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawURL := q.Get("url")
	if rawURL == "" {
		writeError(w, "url is required", http.StatusBadRequest)
		return
	}
	if u, err := url.Parse(rawURL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, "url must be absolute http or https", http.StatusBadRequest)
		return
	}

	// Anything but an explicit "desktop" audits as mobile.
	formFactor := models.FormFactorMobile
	if q.Get("form_factor") == models.FormFactorDesktop {
		formFactor = models.FormFactorDesktop
	}

	var clientID *int64
	if raw := q.Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, "client_id must be a positive integer", http.StatusBadRequest)
			return
		}
		clientID = &id
	}

	res, err := h.Service.Run(r.Context(), rawURL, formFactor, clientID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
