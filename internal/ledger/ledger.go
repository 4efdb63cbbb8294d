// Package ledger defines the persistence abstraction for food entries: a
// per-day partitioned log with derived weekly aggregates. Two backends
// satisfy the same contract — an embedded local store and a remote
// user-scoped store — and callers never learn which one is active.
package ledger

import (
	"context"
	"time"

	"github.com/caltrack/caltrack/internal/model"
)

// Ledger is the entry store contract.
//
// userID scopes operations on the remote backend; the local backend ignores
// it. image carries optional raw JPEG bytes for the entry's photo: the local
// backend inlines them into the record, the remote backend uploads them to
// object storage and stores the resulting URL. An upload failure never aborts
// the entry write.
type Ledger interface {
	// AddEntry assigns timestamp (now) and date (caller-supplied day, or the
	// current local day when absent), persists the record and returns the
	// assigned id.
	AddEntry(ctx context.Context, userID string, entry *model.FoodEntry, image []byte) (string, error)

	// EntriesForDate returns all entries for the given calendar day, ordered
	// ascending by capture timestamp. A day with no entries yields an empty
	// slice, never an error.
	EntriesForDate(ctx context.Context, userID, date string) ([]model.FoodEntry, error)

	// UpdateEntry merges the non-nil changes into an existing record.
	UpdateEntry(ctx context.Context, userID, id string, changes model.EntryChanges) error

	// DeleteEntry removes the entry. Unknown ids surface a not-found
	// persistence error.
	DeleteEntry(ctx context.Context, userID, id string) error

	// WeeklyTotals returns per-day summed macros for the trailing 7 days
	// inclusive of today. Days without entries are absent from the map.
	WeeklyTotals(ctx context.Context, userID string) (map[string]model.Totals, error)

	Close() error
}

// Prepare stamps identityless fields on a new entry and enforces the
// ingestion invariants shared by both backends: timestamp is the capture
// instant, date defaults to the capture day in local time (a caller-supplied
// day wins — back-dating is a feature), macros are clamped non-negative and
// tags are never nil.
func Prepare(entry *model.FoodEntry, now time.Time) {
	entry.Timestamp = now.UnixMilli()
	if entry.Date == "" {
		entry.Date = now.Format(model.DateLayout)
	}
	entry.Calories = clamp(entry.Calories)
	entry.Protein = clamp(entry.Protein)
	entry.Carbs = clamp(entry.Carbs)
	entry.Fat = clamp(entry.Fat)
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
}

// WeekWindow returns the inclusive [start, end] day strings for the trailing
// 7 days ending at now.
func WeekWindow(now time.Time) (string, string) {
	end := now.Format(model.DateLayout)
	start := now.AddDate(0, 0, -6).Format(model.DateLayout)
	return start, end
}

// Apply merges partial changes into an entry. Identity, date and timestamp
// are immutable and not touched.
func Apply(entry *model.FoodEntry, changes model.EntryChanges) {
	if changes.Name != nil {
		entry.Name = *changes.Name
	}
	if changes.Calories != nil {
		entry.Calories = clamp(*changes.Calories)
	}
	if changes.Protein != nil {
		entry.Protein = clamp(*changes.Protein)
	}
	if changes.Carbs != nil {
		entry.Carbs = clamp(*changes.Carbs)
	}
	if changes.Fat != nil {
		entry.Fat = clamp(*changes.Fat)
	}
	if changes.Portion != nil {
		entry.Portion = *changes.Portion
	}
	if changes.Tags != nil {
		entry.Tags = changes.Tags
	}
	if changes.HealthTip != nil {
		entry.HealthTip = *changes.HealthTip
	}
	if changes.Confidence != nil {
		entry.Confidence = *changes.Confidence
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
