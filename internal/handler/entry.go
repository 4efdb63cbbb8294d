package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caltrack/caltrack/internal/auth"
	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/service"
)

// EntryHandler serves the food entry CRUD plus the derived day and week
// views.
type EntryHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

func NewEntryHandler(tracker *service.TrackerService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{tracker: tracker, logger: logger}
}

// currentUser returns the authenticated user, or "" in local mode where the
// whole store belongs to the single device owner.
func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

type createEntryRequest struct {
	model.NutritionRecord
	Date        string `json:"date"`
	ImageBase64 string `json:"imageBase64"`
}

type createEntryResponse struct {
	Entry    model.FoodEntry `json:"entry"`
	Unlocked []rewardItem    `json:"unlocked,omitempty"`
	Meme     *rewardMeme     `json:"meme,omitempty"`
}

type rewardItem struct {
	ID   string `json:"id"`
	Slot string `json:"slot"`
	Name string `json:"name"`
}

type rewardMeme struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// HandleCreate logs a food entry.
//
// HTTP: POST /api/entries
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.tracker.LogEntry(r.Context(), currentUser(r), req.NutritionRecord, req.Date, image)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := createEntryResponse{Entry: res.Entry}
	for _, item := range res.Unlocked {
		resp.Unlocked = append(resp.Unlocked, rewardItem{ID: item.ID, Slot: item.Slot, Name: item.Name})
	}
	if res.Meme != nil {
		resp.Meme = &rewardMeme{URL: res.Meme.URL, Title: res.Meme.Title}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleList returns a day's entries in timestamp order.
//
// HTTP: GET /api/entries?date=YYYY-MM-DD
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tracker.EntriesForDate(r.Context(), currentUser(r), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.FoodEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/entries/{id}
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var changes model.EntryChanges
	if err := decodeBody(r, &changes); err != nil {
		writeError(w, err)
		return
	}

	if err := h.tracker.UpdateEntry(r.Context(), currentUser(r), chi.URLParam(r, "id"), changes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes an entry.
//
// HTTP: DELETE /api/entries/{id}
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteEntry(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary returns a day's totals measured against the goals.
//
// HTTP: GET /api/summary?date=YYYY-MM-DD
func (h *EntryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.tracker.Summary(r.Context(), currentUser(r), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if sum.Entries == nil {
		sum.Entries = []model.FoodEntry{}
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleWeekly returns per-day totals for the trailing week; days without
// entries are absent.
//
// HTTP: GET /api/stats/weekly
func (h *EntryHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracker.WeeklyStats(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
