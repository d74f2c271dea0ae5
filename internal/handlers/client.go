package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// ClientHandler handles client registration and listing.
type ClientHandler struct {
	Clients  *repo.ClientRepo
	Registry *jobs.Registry
}

// clientID parses the {id} route parameter.
func clientID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ListClients returns all clients with their last completed audit highlights
// and live job flag.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clients.List(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	for i := range list {
		list[i].JobActive = h.Registry.IsActive(list[i].ID)
	}
	if list == nil {
		list = []models.ClientSummary{}
	}
	writeJSON(w, list, http.StatusOK)
}

// CreateClient registers a client. Body: {"name": "...", "url": "...", "platform": "mobile|desktop|both"}.
// platform defaults to both. Duplicate name or (url, platform) answers 409.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required,min=2,max=255"`
		URL      string `json:"url" validate:"required,url"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if u, err := url.Parse(input.URL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		JSONValidationError(w, "validation failed",
			map[string]string{"url": "must be an absolute http or https URL"}, http.StatusBadRequest)
		return
	}

	if input.Platform == "" {
		input.Platform = models.PlatformBoth
	}
	if !models.ValidPlatform(input.Platform) {
		JSONValidationError(w, "validation failed",
			map[string]string{"platform": "must be one of mobile, desktop, both"}, http.StatusBadRequest)
		return
	}

	c, err := h.Clients.Create(r.Context(), input.Name, input.URL, input.Platform)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateName) || errors.Is(err, repo.ErrDuplicateTarget) {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, c, http.StatusCreated)
}

// DeleteClient stops any active job, then deletes the client; its audit rows
// cascade at the database level.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
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

	// Timer first: a firing between the row delete and the stop would audit
	// a client that no longer exists.
	h.Registry.Stop(id)

	if err := h.Clients.Delete(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
