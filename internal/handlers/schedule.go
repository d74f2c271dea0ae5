package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// ScheduleHandler manages per-client recurring audit schedules.
type ScheduleHandler struct {
	Clients  *repo.ClientRepo
	Registry *jobs.Registry
}

// PutSchedule validates and stores a cron expression for the client, then
// starts (or stops, when disabled) the job. Body: {"expression": "...", "enabled": true}.
// The expression is rejected before any state change.
func (h *ScheduleHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		JSONError(w, "invalid client id", http.StatusBadRequest)
		return
	}

	var input struct {
		Expression string `json:"expression"`
		Enabled    *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Expression == "" {
		JSONValidationError(w, "validation failed",
			map[string]string{"expression": "required"}, http.StatusBadRequest)
		return
	}
	if err := jobs.ValidateExpression(input.Expression); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
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

	if err := h.Clients.SetSchedule(r.Context(), id, input.Expression, enabled); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if enabled {
		if err := h.Registry.Start(id, input.Expression); err != nil {
			// Parse already succeeded above; a failure here is registry state, not input.
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
	} else {
		h.Registry.Stop(id)
	}

	c, err = h.Clients.GetByID(r.Context(), id)
	if err != nil || c == nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, c, http.StatusOK)
}

// DeleteSchedule clears the client's expression and stops its job.
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
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

	h.Registry.Stop(id)
	if err := h.Clients.ClearSchedule(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSchedule flips the enabled flag of an existing expression; 400 when
// the client has no expression set.
func (h *ScheduleHandler) ToggleSchedule(w http.ResponseWriter, r *http.Request) {
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
	if c.Schedule == nil {
		JSONError(w, "no schedule expression set", http.StatusBadRequest)
		return
	}

	enabled := !c.ScheduleEnabled
	if err := h.Clients.SetScheduleEnabled(r.Context(), id, enabled); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if enabled {
		if err := h.Registry.Start(id, *c.Schedule); err != nil {
			// The stored expression can go stale against the parser; surface
			// it rather than reporting a job that will never fire.
			if errors.Is(err, jobs.ErrInvalidExpression) {
				JSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
	} else {
		h.Registry.Stop(id)
	}

	writeJSON(w, map[string]interface{}{
		"client_id": id,
		"enabled":   enabled,
	}, http.StatusOK)
}

// ListSchedules returns every client holding a cron expression, with the
// live-timer flag.
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clients.ListWithSchedule(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	views := make([]models.ScheduleView, 0, len(list))
	for _, c := range list {
		views = append(views, models.ScheduleView{
			ClientID:  c.ID,
			Name:      c.Name,
			URL:       c.URL,
			Schedule:  *c.Schedule,
			Enabled:   c.ScheduleEnabled,
			JobActive: h.Registry.IsActive(c.ID),
		})
	}
	writeJSON(w, views, http.StatusOK)
}
