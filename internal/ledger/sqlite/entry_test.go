package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addTestEntry(t *testing.T, s *Store, entry model.FoodEntry) model.FoodEntry {
	t.Helper()
	_, err := s.AddEntry(context.Background(), "", &entry, nil)
	require.NoError(t, err)
	return entry
}

func today() string {
	return time.Now().Format(model.DateLayout)
}

func TestAddEntryDefaultsToToday(t *testing.T) {
	s := newTestStore(t)

	entry := addTestEntry(t, s, model.FoodEntry{Name: "Apple", Calories: 95, Carbs: 25, Portion: "1 medium"})
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, today(), entry.Date)

	got, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entry.ID, got[0].ID)
}

func TestAddEntryBackdated(t *testing.T) {
	s := newTestStore(t)
	past := time.Now().AddDate(0, 0, -3).Format(model.DateLayout)

	addTestEntry(t, s, model.FoodEntry{Name: "Leftovers", Date: past, Calories: 400})

	got, err := s.EntriesForDate(context.Background(), "", past)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	todayEntries, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	assert.Empty(t, todayEntries)
}

func TestEntriesForDateOrderedByTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := "2026-08-01"

	// Insert out of timestamp order by writing rows directly; AddEntry always
	// stamps "now", so craft the disorder at the SQL level.
	for _, row := range []struct {
		id string
		ts int64
	}{
		{"c", 3000}, {"a", 1000}, {"b", 2000},
	} {
		_, err := s.conn.Exec(
			`INSERT INTO food_entries (id, date, timestamp, name) VALUES (?, ?, ?, ?)`,
			row.id, date, row.ts, "food-"+row.id,
		)
		require.NoError(t, err)
	}

	got, err := s.EntriesForDate(ctx, "", date)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestEntriesForDateEmptyDay(t *testing.T) {
	s := newTestStore(t)

	got, err := s.EntriesForDate(context.Background(), "", "1999-01-01")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRoundTripFieldFidelity(t *testing.T) {
	s := newTestStore(t)

	entry := addTestEntry(t, s, model.FoodEntry{
		Name:       "Apple",
		Calories:   95,
		Protein:    0,
		Carbs:      25,
		Fat:        0,
		Portion:    "1 medium",
		Tags:       []string{"Fruit", "Low Fat"},
		HealthTip:  "An apple a day",
		Confidence: model.ConfidenceHigh,
	})

	got, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	require.Len(t, got, 1)

	read := got[0]
	assert.Equal(t, entry.Name, read.Name)
	assert.Equal(t, 95, read.Calories)
	assert.Equal(t, 0, read.Protein)
	assert.Equal(t, 25, read.Carbs)
	assert.Equal(t, 0, read.Fat)
	assert.Equal(t, "1 medium", read.Portion)
	assert.Equal(t, []string{"Fruit", "Low Fat"}, read.Tags)
	assert.Equal(t, "An apple a day", read.HealthTip)
	assert.Equal(t, model.ConfidenceHigh, read.Confidence)
}

func TestAddEntryInlinesImage(t *testing.T) {
	s := newTestStore(t)

	entry := model.FoodEntry{Name: "Pizza"}
	_, err := s.AddEntry(context.Background(), "", &entry, []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)

	got, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].ImageURL, "data:image/jpeg;base64,")
}

func TestUpdateEntryPartialMerge(t *testing.T) {
	s := newTestStore(t)
	entry := addTestEntry(t, s, model.FoodEntry{Name: "Soup", Calories: 200, Portion: "1 bowl"})

	cal := 250
	err := s.UpdateEntry(context.Background(), "", entry.ID, model.EntryChanges{Calories: &cal})
	require.NoError(t, err)

	got, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 250, got[0].Calories)
	assert.Equal(t, "Soup", got[0].Name)
	assert.Equal(t, "1 bowl", got[0].Portion)
}

func TestUpdateEntryNotFound(t *testing.T) {
	s := newTestStore(t)

	name := "Ghost"
	err := s.UpdateEntry(context.Background(), "", "missing", model.EntryChanges{Name: &name})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	entry := addTestEntry(t, s, model.FoodEntry{Name: "Cake", Calories: 450})

	require.NoError(t, s.DeleteEntry(context.Background(), "", entry.ID))

	got, err := s.EntriesForDate(context.Background(), "", today())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteEntryNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteEntry(context.Background(), "", "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.True(t, errors.Is(err, apperror.ErrPersistence))
}

func TestWeeklyTotalsSparse(t *testing.T) {
	s := newTestStore(t)
	yesterday := time.Now().AddDate(0, 0, -1).Format(model.DateLayout)
	lastMonth := time.Now().AddDate(0, -1, 0).Format(model.DateLayout)

	addTestEntry(t, s, model.FoodEntry{Name: "Oats", Calories: 300, Protein: 10})
	addTestEntry(t, s, model.FoodEntry{Name: "Eggs", Calories: 150, Protein: 12})
	addTestEntry(t, s, model.FoodEntry{Name: "Pasta", Date: yesterday, Calories: 600, Carbs: 80})
	addTestEntry(t, s, model.FoodEntry{Name: "Old pizza", Date: lastMonth, Calories: 900})

	totals, err := s.WeeklyTotals(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, model.Totals{Calories: 450, Protein: 22}, totals[today()])
	assert.Equal(t, model.Totals{Calories: 600, Carbs: 80}, totals[yesterday])
	// Outside the trailing week and empty days: absent, not zero-filled.
	assert.NotContains(t, totals, lastMonth)
	assert.Len(t, totals, 2)
}
