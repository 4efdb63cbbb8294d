package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caltrack/caltrack/internal/model"
)

func TestPrepareDefaultsDateToCaptureDay(t *testing.T) {
	now := time.Date(2026, 8, 28, 13, 45, 0, 0, time.Local)
	entry := &model.FoodEntry{Name: "Apple"}

	Prepare(entry, now)

	assert.Equal(t, "2026-08-28", entry.Date)
	assert.Equal(t, now.UnixMilli(), entry.Timestamp)
	assert.NotNil(t, entry.Tags)
}

func TestPrepareKeepsCallerSuppliedDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 13, 45, 0, 0, time.Local)
	entry := &model.FoodEntry{Name: "Borscht", Date: "2026-08-01"}

	Prepare(entry, now)

	// Back-dating is supported: the timestamp still reflects capture time.
	assert.Equal(t, "2026-08-01", entry.Date)
	assert.Equal(t, now.UnixMilli(), entry.Timestamp)
}

func TestPrepareClampsNegativeMacros(t *testing.T) {
	entry := &model.FoodEntry{Name: "Ghost food", Calories: -10, Protein: -1}

	Prepare(entry, time.Now())

	assert.Equal(t, 0, entry.Calories)
	assert.Equal(t, 0, entry.Protein)
}

func TestWeekWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)
	start, end := WeekWindow(now)
	assert.Equal(t, "2026-08-22", start)
	assert.Equal(t, "2026-08-28", end)
}

func TestApplyMergesOnlyProvidedFields(t *testing.T) {
	entry := &model.FoodEntry{
		ID:       "e1",
		Date:     "2026-08-28",
		Name:     "Banana",
		Calories: 105,
		Carbs:    27,
		Portion:  "1 medium",
	}

	name := "Big banana"
	cal := 130
	Apply(entry, model.EntryChanges{Name: &name, Calories: &cal})

	assert.Equal(t, "Big banana", entry.Name)
	assert.Equal(t, 130, entry.Calories)
	// Unspecified fields untouched.
	assert.Equal(t, 27, entry.Carbs)
	assert.Equal(t, "1 medium", entry.Portion)
	assert.Equal(t, "2026-08-28", entry.Date)
}
