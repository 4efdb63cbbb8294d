// Package service contains the business logic layer, between the HTTP
// handlers and the ledger/session/analysis packages.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/caltrack/caltrack/internal/aggregate"
	"github.com/caltrack/caltrack/internal/analysis"
	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/imageproc"
	"github.com/caltrack/caltrack/internal/ledger"
	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/reward"
	"github.com/caltrack/caltrack/internal/session"
)

// TrackerService orchestrates the food-logging loop: analysis, the entry
// ledger, daily aggregation and the unlock/reward side effects.
type TrackerService struct {
	entries  ledger.Ledger
	analyzer analysis.Analyzer
	state    *session.Store
	memes    reward.MemeProvider
	logger   *slog.Logger

	// sharedKey is the deployment's Gemini credential, used when the user
	// has not configured their own. Calls on it count against the quota.
	sharedKey string

	now func() time.Time
}

// NewTrackerService wires the tracker's dependencies. memes may be nil to
// disable rewards entirely.
func NewTrackerService(
	entries ledger.Ledger,
	analyzer analysis.Analyzer,
	state *session.Store,
	memes reward.MemeProvider,
	sharedKey string,
	logger *slog.Logger,
) *TrackerService {
	return &TrackerService{
		entries:   entries,
		analyzer:  analyzer,
		state:     state,
		memes:     memes,
		sharedKey: sharedKey,
		logger:    logger,
		now:       time.Now,
	}
}

// AnalyzeInput is one analysis request: either free text or a photo.
// Language overrides the stored preference for this call only.
type AnalyzeInput struct {
	Text     string
	Image    []byte
	Language string
}

// Analyze runs an AI nutrition estimate for the given input.
//
// Credential resolution: a user-configured key always wins and bypasses the
// quota; the shared key is rationed to session.RequestLimit calls, with the
// refusal happening locally before any network traffic. The request counter
// only moves after a successful call, so failed analyses are free.
func (s *TrackerService) Analyze(ctx context.Context, input AnalyzeInput) (model.NutritionRecord, error) {
	var rec model.NutritionRecord

	if input.Text == "" && len(input.Image) == 0 {
		return rec, apperror.ValidationFailed("input", "text or image is required")
	}

	apiKey := s.state.APIKey()
	onSharedKey := apiKey == ""
	if onSharedKey {
		if s.state.QuotaExhausted() {
			return rec, apperror.QuotaExhausted(session.RequestLimit)
		}
		apiKey = s.sharedKey
	}

	image := input.Image
	if len(image) > 0 {
		normalized, err := imageproc.Normalize(image, imageproc.DefaultMaxDimension, imageproc.DefaultQuality)
		if err != nil {
			// Send the original bytes rather than refuse: the model may
			// still cope with a format we could not decode.
			s.logger.Warn("image normalization failed, sending original", "error", err)
		} else {
			image = normalized
		}
	}

	language := input.Language
	if language == "" {
		language = s.state.Language()
	}

	rec, err := s.analyzer.Analyze(ctx, apiKey, analysis.Request{
		Text:     input.Text,
		Image:    image,
		Language: language,
	})
	if err != nil {
		return model.NutritionRecord{}, err
	}

	if onSharedKey {
		count := s.state.IncrementRequestCount()
		s.logger.Info("shared credential used", "count", count, "limit", session.RequestLimit)
	}

	return rec, nil
}

// LogResult is returned by LogEntry: the stored entry plus any side effects
// the write triggered.
type LogResult struct {
	Entry    model.FoodEntry
	Unlocked []reward.Item
	Meme     *reward.Meme
}

// LogEntry records a nutrition record in the ledger and applies the
// gamification side effects: the lifetime counter, threshold unlocks and a
// best-effort meme reward. date may be empty (today) or a past day.
func (s *TrackerService) LogEntry(ctx context.Context, userID string, rec model.NutritionRecord, date string, image []byte) (LogResult, error) {
	var res LogResult

	if rec.Name == "" {
		return res, apperror.ValidationFailed("name", "name is required")
	}
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return res, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
		}
	}

	if len(image) > 0 {
		if normalized, err := imageproc.Normalize(image, imageproc.DefaultMaxDimension, imageproc.DefaultQuality); err == nil {
			image = normalized
		} else {
			s.logger.Warn("image normalization failed, storing original", "error", err)
		}
	}

	entry := model.FoodEntry{
		Date:       date,
		Name:       rec.Name,
		Calories:   rec.Calories,
		Protein:    rec.Protein,
		Carbs:      rec.Carbs,
		Fat:        rec.Fat,
		Portion:    rec.Portion,
		Tags:       rec.Tags,
		HealthTip:  rec.HealthTip,
		Confidence: rec.Confidence,
	}
	ledger.Prepare(&entry, s.now())

	id, err := s.entries.AddEntry(ctx, userID, &entry, image)
	if err != nil {
		return res, err
	}
	entry.ID = id
	res.Entry = entry

	total := s.state.IncrementLifetimeLogs()
	for _, item := range reward.EligibleItems(total) {
		if s.state.Unlock(item.ID) {
			s.logger.Info("avatar item unlocked", "item", item.ID, "lifetime_logs", total)
			res.Unlocked = append(res.Unlocked, item)
		}
	}

	if s.memes != nil {
		if meme, err := s.memes.Random(ctx); err != nil {
			s.logger.Warn("meme reward unavailable", "error", err)
		} else {
			res.Meme = &meme
		}
	}

	return res, nil
}

// EntriesForDate lists a day's entries in timestamp order. date empty means
// today.
func (s *TrackerService) EntriesForDate(ctx context.Context, userID, date string) ([]model.FoodEntry, error) {
	if date == "" {
		date = s.now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	return s.entries.EntriesForDate(ctx, userID, date)
}

// UpdateEntry applies a partial update to an existing entry.
func (s *TrackerService) UpdateEntry(ctx context.Context, userID, id string, changes model.EntryChanges) error {
	if id == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	if changes.Name != nil && *changes.Name == "" {
		return apperror.ValidationFailed("name", "name cannot be empty")
	}
	return s.entries.UpdateEntry(ctx, userID, id, changes)
}

// DeleteEntry removes an entry.
func (s *TrackerService) DeleteEntry(ctx context.Context, userID, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	return s.entries.DeleteEntry(ctx, userID, id)
}

// DaySummary is a day's entries with their totals measured against the
// current goals.
type DaySummary struct {
	Date     string             `json:"date"`
	Entries  []model.FoodEntry  `json:"entries"`
	Progress aggregate.Progress `json:"progress"`
}

// Summary aggregates one day against the configured goals.
func (s *TrackerService) Summary(ctx context.Context, userID, date string) (DaySummary, error) {
	if date == "" {
		date = s.now().Format(model.DateLayout)
	}
	entries, err := s.EntriesForDate(ctx, userID, date)
	if err != nil {
		return DaySummary{}, err
	}
	return DaySummary{
		Date:     date,
		Entries:  entries,
		Progress: aggregate.Against(aggregate.Sum(entries), s.state.Goals()),
	}, nil
}

// WeeklyStats returns per-day totals for the trailing seven days. Days with
// no entries are absent from the map.
func (s *TrackerService) WeeklyStats(ctx context.Context, userID string) (map[string]model.Totals, error) {
	return s.entries.WeeklyTotals(ctx, userID)
}

// Goals returns the current daily goals.
func (s *TrackerService) Goals() model.DailyGoals {
	return s.state.Goals()
}

// SetGoals validates and stores new daily goals. All targets must be
// positive: a zero goal would make percent-of-goal meaningless.
func (s *TrackerService) SetGoals(goals model.DailyGoals) error {
	if goals.Calories <= 0 {
		return apperror.ValidationFailed("calories", "calorie goal must be positive")
	}
	if goals.Protein <= 0 || goals.Carbs <= 0 || goals.Fat <= 0 {
		return apperror.ValidationFailed("macros", "macro goals must be positive")
	}
	s.state.SetGoals(goals)
	return nil
}

// Settings is the user-adjustable configuration surface.
type Settings struct {
	HasAPIKey     bool   `json:"hasApiKey"`
	Language      string `json:"language"`
	RequestCount  int    `json:"requestCount"`
	RequestLimit  int    `json:"requestLimit"`
	QuotaExceeded bool   `json:"quotaExceeded"`
}

// GetSettings reports the current settings. The API key itself is never
// echoed back, only whether one is set.
func (s *TrackerService) GetSettings() Settings {
	return Settings{
		HasAPIKey:     s.state.APIKey() != "",
		Language:      s.state.Language(),
		RequestCount:  s.state.RequestCount(),
		RequestLimit:  session.RequestLimit,
		QuotaExceeded: s.state.QuotaExhausted(),
	}
}

// UpdateSettings applies settings changes. Nil fields are untouched; an
// explicit empty API key clears the credential.
func (s *TrackerService) UpdateSettings(apiKey, language *string) error {
	if language != nil {
		switch *language {
		case "en", "uk":
		default:
			return apperror.ValidationFailed("language", "unsupported language")
		}
		s.state.SetLanguage(*language)
	}
	if apiKey != nil {
		s.state.SetAPIKey(*apiKey)
	}
	return nil
}

// AvatarState is the full cosmetics picture for the avatar screen.
type AvatarState struct {
	LifetimeLogs int               `json:"lifetimeLogs"`
	Unlocked     []string          `json:"unlocked"`
	Equipped     map[string]string `json:"equipped"`
	Colors       map[string]string `json:"colors"`
	Catalog      []reward.Item     `json:"catalog"`
}

// Avatar returns the current avatar state plus the full item catalog so the
// client can render locked items with their thresholds.
func (s *TrackerService) Avatar() AvatarState {
	return AvatarState{
		LifetimeLogs: s.state.LifetimeLogs(),
		Unlocked:     s.state.Unlocked(),
		Equipped:     s.state.Equipped(),
		Colors:       s.state.ItemColors(),
		Catalog:      reward.Catalog,
	}
}

// Equip puts an unlocked item in its slot, or clears the slot when itemID is
// empty.
func (s *TrackerService) Equip(slot, itemID string) error {
	if slot == "" {
		return apperror.ValidationFailed("slot", "slot is required")
	}
	if itemID == "" {
		s.state.Equip(slot, "")
		return nil
	}

	item, ok := reward.ItemByID(itemID)
	if !ok {
		return apperror.NotFound("avatar item", itemID)
	}
	if item.Slot != slot {
		return apperror.ValidationFailed("slot", "item does not fit that slot")
	}
	if !s.isUnlocked(itemID) {
		return apperror.ValidationFailed("item", "item is not unlocked yet")
	}

	s.state.Equip(slot, itemID)
	return nil
}

// SetItemColor records a color override for an unlocked item.
func (s *TrackerService) SetItemColor(itemID, color string) error {
	if _, ok := reward.ItemByID(itemID); !ok {
		return apperror.NotFound("avatar item", itemID)
	}
	if !s.isUnlocked(itemID) {
		return apperror.ValidationFailed("item", "item is not unlocked yet")
	}
	if color == "" {
		return apperror.ValidationFailed("color", "color is required")
	}
	s.state.SetItemColor(itemID, color)
	return nil
}

func (s *TrackerService) isUnlocked(itemID string) bool {
	for _, id := range s.state.Unlocked() {
		if id == itemID {
			return true
		}
	}
	return false
}
