package handler

import (
	"log/slog"
	"net/http"

	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/service"
)

// SettingsHandler serves the goals and preferences endpoints.
type SettingsHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

func NewSettingsHandler(tracker *service.TrackerService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{tracker: tracker, logger: logger}
}

// HandleGetGoals returns the current daily goals.
//
// HTTP: GET /api/goals
func (h *SettingsHandler) HandleGetGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Goals())
}

// HandlePutGoals replaces the daily goals.
//
// HTTP: PUT /api/goals
func (h *SettingsHandler) HandlePutGoals(w http.ResponseWriter, r *http.Request) {
	var goals model.DailyGoals
	if err := decodeBody(r, &goals); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.SetGoals(goals); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleGetSettings reports the preference surface. The stored API key is
// reported as present/absent, never echoed.
//
// HTTP: GET /api/settings
func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GetSettings())
}

type updateSettingsRequest struct {
	APIKey   *string `json:"apiKey"`
	Language *string `json:"language"`
}

// HandlePutSettings applies preference changes. Absent fields stay as they
// are; an explicit empty apiKey clears the stored credential.
//
// HTTP: PUT /api/settings
func (h *SettingsHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.UpdateSettings(req.APIKey, req.Language); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.GetSettings())
}
