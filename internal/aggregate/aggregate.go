// Package aggregate derives daily nutrition totals from ledger entries.
// Totals are a plain fold recomputed on every read — entry lists are small
// (single user, single day) so there is nothing to cache.
package aggregate

import (
	"math"

	"github.com/caltrack/caltrack/internal/model"
)

// Sum folds the entries' macros into a single total. Order-independent.
func Sum(entries []model.FoodEntry) model.Totals {
	var t model.Totals
	for _, e := range entries {
		t.Calories += e.Calories
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fat += e.Fat
	}
	return t
}

// PercentOfGoal reports total as a rounded percentage of goal. A goal of
// zero yields 0 rather than the division's infinity — the settings surface
// rejects zero goals, this is the backstop.
func PercentOfGoal(total, goal int) int {
	if goal == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(goal) * 100))
}

// Progress is a day's totals expressed against each goal.
type Progress struct {
	Totals  model.Totals     `json:"totals"`
	Goals   model.DailyGoals `json:"goals"`
	Percent model.Totals     `json:"percent"`
}

// Against computes per-macro percent-of-goal for a day's totals.
func Against(totals model.Totals, goals model.DailyGoals) Progress {
	return Progress{
		Totals: totals,
		Goals:  goals,
		Percent: model.Totals{
			Calories: PercentOfGoal(totals.Calories, goals.Calories),
			Protein:  PercentOfGoal(totals.Protein, goals.Protein),
			Carbs:    PercentOfGoal(totals.Carbs, goals.Carbs),
			Fat:      PercentOfGoal(totals.Fat, goals.Fat),
		},
	}
}
