package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/rs/xid"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/ledger"
	"github.com/caltrack/caltrack/internal/model"
)

// Compile-time check that *Store satisfies the ledger contract.
var _ ledger.Ledger = (*Store)(nil)

// AddEntry persists a new entry. The local backend has no users, so userID is
// ignored. Image bytes, when present, are inlined as a JPEG data URL — there
// is no separate object store on-device.
func (s *Store) AddEntry(ctx context.Context, _ string, entry *model.FoodEntry, image []byte) (string, error) {
	entry.ID = xid.New().String()
	ledger.Prepare(entry, time.Now())

	if len(image) > 0 {
		entry.ImageURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	}

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return "", apperror.Persistence("encoding tags", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO food_entries (id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Date, entry.Timestamp, entry.Name,
		entry.Calories, entry.Protein, entry.Carbs, entry.Fat,
		entry.Portion, string(tags), entry.HealthTip, entry.ImageURL, string(entry.Confidence),
	)
	if err != nil {
		return "", apperror.Persistence("inserting entry", err)
	}

	return entry.ID, nil
}

// EntriesForDate returns the day's entries ordered ascending by capture
// timestamp. Ordering is by timestamp, not insertion order — the two differ
// when an entry was back-dated.
func (s *Store) EntriesForDate(ctx context.Context, _ string, date string) ([]model.FoodEntry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence
		 FROM food_entries
		 WHERE date = ?
		 ORDER BY timestamp ASC`,
		date,
	)
	if err != nil {
		return nil, apperror.Persistence("querying entries", err)
	}
	defer rows.Close()

	entries := []model.FoodEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.Persistence("scanning entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterating entries", err)
	}

	return entries, nil
}

// UpdateEntry merges partial changes into an existing record via
// fetch-apply-write, so unspecified fields are left untouched.
func (s *Store) UpdateEntry(ctx context.Context, _ string, id string, changes model.EntryChanges) error {
	entry, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	ledger.Apply(entry, changes)

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return apperror.Persistence("encoding tags", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`UPDATE food_entries
		 SET name = ?, calories = ?, protein = ?, carbs = ?, fat = ?, portion = ?, tags = ?, health_tip = ?, confidence = ?
		 WHERE id = ?`,
		entry.Name, entry.Calories, entry.Protein, entry.Carbs, entry.Fat,
		entry.Portion, string(tags), entry.HealthTip, string(entry.Confidence), id,
	)
	if err != nil {
		return apperror.Persistence("updating entry", err)
	}
	return nil
}

// DeleteEntry removes an entry; unknown ids surface as not-found.
func (s *Store) DeleteEntry(ctx context.Context, _ string, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM food_entries WHERE id = ?`, id)
	if err != nil {
		return apperror.Persistence("deleting entry", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Persistence("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("entry", id)
	}
	return nil
}

// WeeklyTotals sums macros per day over the trailing 7 days inclusive of
// today. The map is sparse: days without entries are simply absent.
func (s *Store) WeeklyTotals(ctx context.Context, _ string) (map[string]model.Totals, error) {
	start, end := ledger.WeekWindow(time.Now())

	rows, err := s.conn.QueryContext(ctx,
		`SELECT date, SUM(calories), SUM(protein), SUM(carbs), SUM(fat)
		 FROM food_entries
		 WHERE date BETWEEN ? AND ?
		 GROUP BY date`,
		start, end,
	)
	if err != nil {
		return nil, apperror.Persistence("querying weekly totals", err)
	}
	defer rows.Close()

	totals := make(map[string]model.Totals)
	for rows.Next() {
		var date string
		var t model.Totals
		if err := rows.Scan(&date, &t.Calories, &t.Protein, &t.Carbs, &t.Fat); err != nil {
			return nil, apperror.Persistence("scanning weekly totals", err)
		}
		totals[date] = t
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterating weekly totals", err)
	}

	return totals, nil
}

func (s *Store) getByID(ctx context.Context, id string) (*model.FoodEntry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence
		 FROM food_entries
		 WHERE id = ?`,
		id,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("entry", id)
		}
		return nil, apperror.Persistence("getting entry", err)
	}
	return &entry, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows so one scan routine serves both.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.FoodEntry, error) {
	var entry model.FoodEntry
	var tags, confidence string

	err := row.Scan(
		&entry.ID, &entry.Date, &entry.Timestamp, &entry.Name,
		&entry.Calories, &entry.Protein, &entry.Carbs, &entry.Fat,
		&entry.Portion, &tags, &entry.HealthTip, &entry.ImageURL, &confidence,
	)
	if err != nil {
		return entry, err
	}

	if err := json.Unmarshal([]byte(tags), &entry.Tags); err != nil {
		entry.Tags = []string{}
	}
	entry.Confidence = model.Confidence(confidence)
	return entry, nil
}
