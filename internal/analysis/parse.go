package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/model"
)

// stripFences removes optional triple-backtick wrapping from the raw model
// text. Models add it despite the JSON-only instruction often enough that
// the parser has to tolerate it.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// parseRecord turns raw model text into a NutritionRecord, defaulting and
// clamping rather than trusting the shape: macros become non-negative
// rounded integers (0 when missing or non-numeric), tags are always a slice,
// confidence defaults to low.
func parseRecord(raw string) (model.NutritionRecord, error) {
	var rec model.NutritionRecord

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return rec, apperror.Analysis("model returned an unparseable response")
	}

	// The model's own refusal payload.
	if msg, ok := fields["error"]; ok {
		var reason string
		if err := json.Unmarshal(msg, &reason); err != nil || reason == "" {
			reason = "could not identify food"
		}
		return rec, apperror.Analysis(reason)
	}

	rec.Name = stringField(fields, "name", "Unknown food")
	rec.Portion = stringField(fields, "portion", "Unknown portion")
	rec.HealthTip = stringField(fields, "healthTip", "")
	rec.Calories = numberField(fields, "calories")
	rec.Protein = numberField(fields, "protein")
	rec.Carbs = numberField(fields, "carbs")
	rec.Fat = numberField(fields, "fat")
	rec.Tags = tagsField(fields, "tags")
	rec.Confidence = confidenceField(fields, "confidence")

	return rec, nil
}

func stringField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return fallback
	}
	return s
}

func numberField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// Some models quote their numbers.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func tagsField(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func confidenceField(fields map[string]json.RawMessage, key string) model.Confidence {
	switch model.Confidence(stringField(fields, key, "")) {
	case model.ConfidenceHigh:
		return model.ConfidenceHigh
	case model.ConfidenceMedium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
