// Package model defines the data structures used throughout the application.
package model

// Confidence is the analysis client's self-reported certainty about a
// nutrition estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DateLayout is the calendar-day partition key format, e.g. "2026-08-28".
const DateLayout = "2006-01-02"

// FoodEntry is one logged meal or food item.
//
// Date is the partition key and Timestamp (epoch milliseconds) the within-day
// ordering key. Both are assigned at creation and immutable afterwards. Date
// normally equals Timestamp's calendar day in the creator's local time zone,
// but a caller may back-date an entry to a non-current day — that is a
// supported feature, so the ledger never cross-checks the two.
type FoodEntry struct {
	ID         string     `json:"id"`
	Date       string     `json:"date"`
	Timestamp  int64      `json:"timestamp"`
	Name       string     `json:"name"`
	Calories   int        `json:"calories"`
	Protein    int        `json:"protein"`
	Carbs      int        `json:"carbs"`
	Fat        int        `json:"fat"`
	Portion    string     `json:"portion"`
	Tags       []string   `json:"tags"`
	HealthTip  string     `json:"healthTip,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// EntryChanges is a partial update for a FoodEntry. Nil fields are left
// untouched by the ledger; Date, Timestamp and ID are immutable and
// deliberately absent.
type EntryChanges struct {
	Name       *string     `json:"name,omitempty"`
	Calories   *int        `json:"calories,omitempty"`
	Protein    *int        `json:"protein,omitempty"`
	Carbs      *int        `json:"carbs,omitempty"`
	Fat        *int        `json:"fat,omitempty"`
	Portion    *string     `json:"portion,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	HealthTip  *string     `json:"healthTip,omitempty"`
	Confidence *Confidence `json:"confidence,omitempty"`
}

// NutritionRecord is the normalized result of an AI analysis: a FoodEntry
// before the ledger assigns identity, date and timestamp.
type NutritionRecord struct {
	Name       string     `json:"name"`
	Calories   int        `json:"calories"`
	Protein    int        `json:"protein"`
	Carbs      int        `json:"carbs"`
	Fat        int        `json:"fat"`
	Portion    string     `json:"portion"`
	Tags       []string   `json:"tags"`
	HealthTip  string     `json:"healthTip"`
	Confidence Confidence `json:"confidence"`
}

// Totals are summed macro values across a set of entries.
type Totals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// DailyGoals are the user's target macro values, mutable via settings.
type DailyGoals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// DefaultGoals returns the out-of-the-box macro targets.
func DefaultGoals() DailyGoals {
	return DailyGoals{Calories: 2000, Protein: 150, Carbs: 250, Fat: 65}
}
