package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/service"
)

// AnalyzeHandler fronts the AI nutrition estimate endpoint.
type AnalyzeHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

func NewAnalyzeHandler(tracker *service.TrackerService, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{tracker: tracker, logger: logger}
}

type analyzeRequest struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"imageBase64"`
	Language    string `json:"language"`
}

// HandleAnalyze runs one AI estimate without logging anything.
//
// HTTP: POST /api/analyze
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.tracker.Analyze(r.Context(), service.AnalyzeInput{
		Text:     req.Text,
		Image:    image,
		Language: req.Language,
	})
	if err != nil {
		h.logger.Warn("analysis failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// decodeImage accepts plain base64 or a full data URL, which is what camera
// capture in a browser produces.
func decodeImage(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if idx := strings.Index(s, ";base64,"); idx >= 0 {
		s = s[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, apperror.ValidationFailed("imageBase64", "invalid base64 image data")
	}
	return data, nil
}
