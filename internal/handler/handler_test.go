package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/caltrack/caltrack/internal/analysis"
	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/ledger/sqlite"
	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/service"
	"github.com/caltrack/caltrack/internal/session"
)

// stubAnalyzer lets each test script the model's answer.
type stubAnalyzer struct {
	record model.NutritionRecord
	err    error
}

func (s *stubAnalyzer) Analyze(context.Context, string, analysis.Request) (model.NutritionRecord, error) {
	if s.err != nil {
		return model.NutritionRecord{}, s.err
	}
	return s.record, nil
}

type testEnv struct {
	router *chi.Mux
	state  *session.Store
}

// newTestEnv wires the full local stack — sqlite ledger, session store, the
// tracker service and routes — against a scripted analyzer.
func newTestEnv(t *testing.T, an analysis.Analyzer) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	state, err := session.New(filepath.Join(t.TempDir(), "state.json"), logger)
	require.NoError(t, err)

	tracker := service.NewTrackerService(store, an, state, nil, "shared-key", logger)

	entries := NewEntryHandler(tracker, logger)
	analyze := NewAnalyzeHandler(tracker, logger)
	settings := NewSettingsHandler(tracker, logger)
	avatar := NewAvatarHandler(tracker, logger)

	r := chi.NewRouter()
	r.Post("/api/analyze", analyze.HandleAnalyze)
	r.Post("/api/entries", entries.HandleCreate)
	r.Get("/api/entries", entries.HandleList)
	r.Patch("/api/entries/{id}", entries.HandleUpdate)
	r.Delete("/api/entries/{id}", entries.HandleDelete)
	r.Get("/api/summary", entries.HandleSummary)
	r.Get("/api/stats/weekly", entries.HandleWeekly)
	r.Get("/api/goals", settings.HandleGetGoals)
	r.Put("/api/goals", settings.HandlePutGoals)
	r.Get("/api/settings", settings.HandleGetSettings)
	r.Put("/api/settings", settings.HandlePutSettings)
	r.Get("/api/avatar", avatar.HandleGet)
	r.Post("/api/avatar/equip", avatar.HandleEquip)
	r.Post("/api/avatar/color", avatar.HandleColor)

	return &testEnv{router: r, state: state}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestAnalyze_Success(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{record: model.NutritionRecord{
		Name: "banana", Calories: 105, Confidence: model.ConfidenceHigh,
	}})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"text": "a banana"})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeResponse[model.NutritionRecord](t, rec)
	require.Equal(t, "banana", got.Name)
	require.Equal(t, 105, got.Calories)
}

func TestAnalyze_QuotaExhausted(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{record: model.NutritionRecord{Name: "x"}})

	for i := 0; i < session.RequestLimit; i++ {
		env.state.IncrementRequestCount()
	}

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"text": "a banana"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	got := decodeResponse[ErrorResponse](t, rec)
	require.Equal(t, "quota_exhausted", got.Error)
}

func TestAnalyze_CredentialRequired(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{err: apperror.Uninitialized()})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"text": "a banana"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "credential_required", decodeResponse[ErrorResponse](t, rec).Error)
}

func TestAnalyze_ModelRefusal(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{err: apperror.Analysis("not food")})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"text": "a rock"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "analysis_failed", decodeResponse[ErrorResponse](t, rec).Error)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", decodeResponse[ErrorResponse](t, rec).Error)
}

func TestEntries_CreateAndList(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	rec := env.do(t, http.MethodPost, "/api/entries", map[string]any{
		"name": "oatmeal", "calories": 300, "protein": 10, "carbs": 50, "fat": 6,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeResponse[createEntryResponse](t, rec)
	require.NotEmpty(t, created.Entry.ID)
	require.Equal(t, time.Now().Format(model.DateLayout), created.Entry.Date)

	list := env.do(t, http.MethodGet, "/api/entries", nil)
	require.Equal(t, http.StatusOK, list.Code)
	entries := decodeResponse[[]model.FoodEntry](t, list)
	require.Len(t, entries, 1)
	require.Equal(t, "oatmeal", entries[0].Name)
}

func TestEntries_ListEmptyDayIsEmptyArray(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	rec := env.do(t, http.MethodGet, "/api/entries?date=2020-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestEntries_BackDated(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	rec := env.do(t, http.MethodPost, "/api/entries", map[string]any{
		"name": "soup", "calories": 150, "date": "2026-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	list := env.do(t, http.MethodGet, "/api/entries?date=2026-01-15", nil)
	entries := decodeResponse[[]model.FoodEntry](t, list)
	require.Len(t, entries, 1)
}

func TestEntries_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	rec := env.do(t, http.MethodPost, "/api/entries", map[string]any{"name": "salad", "calories": 200})
	id := decodeResponse[createEntryResponse](t, rec).Entry.ID

	patch := env.do(t, http.MethodPatch, "/api/entries/"+id, map[string]any{"calories": 250})
	require.Equal(t, http.StatusNoContent, patch.Code)

	list := env.do(t, http.MethodGet, "/api/entries", nil)
	entries := decodeResponse[[]model.FoodEntry](t, list)
	require.Equal(t, 250, entries[0].Calories)
	require.Equal(t, "salad", entries[0].Name)

	del := env.do(t, http.MethodDelete, "/api/entries/"+id, nil)
	require.Equal(t, http.StatusNoContent, del.Code)

	again := env.do(t, http.MethodDelete, "/api/entries/"+id, nil)
	require.Equal(t, http.StatusNotFound, again.Code)
	require.Equal(t, "not_found", decodeResponse[ErrorResponse](t, again).Error)
}

func TestSummary_TotalsAgainstGoals(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	env.do(t, http.MethodPost, "/api/entries", map[string]any{"name": "breakfast", "calories": 500})
	env.do(t, http.MethodPost, "/api/entries", map[string]any{"name": "lunch", "calories": 500})

	rec := env.do(t, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sum := decodeResponse[service.DaySummary](t, rec)
	require.Len(t, sum.Entries, 2)
	require.Equal(t, 1000, sum.Progress.Totals.Calories)
	require.Equal(t, 50, sum.Progress.Percent.Calories)
}

func TestGoals_PutValidatesAndPersists(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	bad := env.do(t, http.MethodPut, "/api/goals", map[string]any{"calories": 0})
	require.Equal(t, http.StatusBadRequest, bad.Code)

	ok := env.do(t, http.MethodPut, "/api/goals", map[string]any{
		"calories": 1800, "protein": 120, "carbs": 200, "fat": 60,
	})
	require.Equal(t, http.StatusOK, ok.Code)

	get := env.do(t, http.MethodGet, "/api/goals", nil)
	goals := decodeResponse[model.DailyGoals](t, get)
	require.Equal(t, 1800, goals.Calories)
}

func TestSettings_KeyNeverEchoed(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	put := env.do(t, http.MethodPut, "/api/settings", map[string]any{"apiKey": "super-secret"})
	require.Equal(t, http.StatusOK, put.Code)
	require.NotContains(t, put.Body.String(), "super-secret")

	get := env.do(t, http.MethodGet, "/api/settings", nil)
	settings := decodeResponse[service.Settings](t, get)
	require.True(t, settings.HasAPIKey)
	require.NotContains(t, get.Body.String(), "super-secret")
}

func TestAvatar_EquipFlow(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	locked := env.do(t, http.MethodPost, "/api/avatar/equip", map[string]string{"slot": "head", "itemId": "cap"})
	require.Equal(t, http.StatusBadRequest, locked.Code)

	env.state.Unlock("cap")
	ok := env.do(t, http.MethodPost, "/api/avatar/equip", map[string]string{"slot": "head", "itemId": "cap"})
	require.Equal(t, http.StatusOK, ok.Code)

	got := decodeResponse[service.AvatarState](t, ok)
	require.Equal(t, "cap", got.Equipped["head"])

	unknown := env.do(t, http.MethodPost, "/api/avatar/equip", map[string]string{"slot": "head", "itemId": "fedora"})
	require.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestAvatar_Color(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	env.state.Unlock("scarf")
	rec := env.do(t, http.MethodPost, "/api/avatar/color", map[string]string{"itemId": "scarf", "color": "#00ff00"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "#00ff00", decodeResponse[service.AvatarState](t, rec).Colors["scarf"])
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
