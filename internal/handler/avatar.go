package handler

import (
	"log/slog"
	"net/http"

	"github.com/caltrack/caltrack/internal/service"
)

// AvatarHandler serves the cosmetic unlock endpoints.
type AvatarHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

func NewAvatarHandler(tracker *service.TrackerService, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{tracker: tracker, logger: logger}
}

// HandleGet returns unlock progress, equipped items and the full catalog.
//
// HTTP: GET /api/avatar
func (h *AvatarHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Avatar())
}

type equipRequest struct {
	Slot   string `json:"slot"`
	ItemID string `json:"itemId"`
}

// HandleEquip puts an unlocked item in a slot; an empty itemId clears it.
//
// HTTP: POST /api/avatar/equip
func (h *AvatarHandler) HandleEquip(w http.ResponseWriter, r *http.Request) {
	var req equipRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.Equip(req.Slot, req.ItemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Avatar())
}

type colorRequest struct {
	ItemID string `json:"itemId"`
	Color  string `json:"color"`
}

// HandleColor sets a color override on an unlocked item.
//
// HTTP: POST /api/avatar/color
func (h *AvatarHandler) HandleColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.SetItemColor(req.ItemID, req.Color); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Avatar())
}
