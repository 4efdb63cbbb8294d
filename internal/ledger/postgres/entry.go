package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/ledger"
	"github.com/caltrack/caltrack/internal/model"
)

var _ ledger.Ledger = (*Store)(nil)

// AddEntry persists a new entry for the authenticated user. Image bytes are
// uploaded to the object store first; if the upload fails the entry is still
// written, just without a usable image reference — losing a photo is better
// than losing the log.
func (s *Store) AddEntry(ctx context.Context, userID string, entry *model.FoodEntry, image []byte) (string, error) {
	if userID == "" {
		return "", apperror.Unauthenticated()
	}

	entry.ID = xid.New().String()
	ledger.Prepare(entry, time.Now())

	if len(image) > 0 {
		key := fmt.Sprintf("%s/%d.jpg", userID, entry.Timestamp)
		url, err := s.blobs.Put(ctx, key, image, "image/jpeg")
		if err != nil {
			s.logger.Warn("image upload failed, persisting entry without image",
				slog.String("entry", entry.ID),
				slog.String("error", err.Error()),
			)
			entry.ImageURL = ""
		} else {
			entry.ImageURL = url
		}
	}

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return "", apperror.Persistence("encoding tags", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO food_entries (id, user_id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, userID, entry.Date, entry.Timestamp, entry.Name,
		entry.Calories, entry.Protein, entry.Carbs, entry.Fat,
		entry.Portion, tags, entry.HealthTip, entry.ImageURL, string(entry.Confidence),
	)
	if err != nil {
		return "", apperror.Persistence("inserting entry", err)
	}

	return entry.ID, nil
}

// EntriesForDate returns the user's entries for the day, ascending by
// capture timestamp. No session means no entries, not an error.
func (s *Store) EntriesForDate(ctx context.Context, userID, date string) ([]model.FoodEntry, error) {
	if userID == "" {
		return []model.FoodEntry{}, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence
		 FROM food_entries
		 WHERE user_id = $1 AND date = $2
		 ORDER BY timestamp ASC`,
		userID, date,
	)
	if err != nil {
		return nil, apperror.Persistence("querying entries", err)
	}
	defer rows.Close()

	entries := []model.FoodEntry{}
	for rows.Next() {
		var entry model.FoodEntry
		var tags []byte
		var confidence string
		if err := rows.Scan(
			&entry.ID, &entry.Date, &entry.Timestamp, &entry.Name,
			&entry.Calories, &entry.Protein, &entry.Carbs, &entry.Fat,
			&entry.Portion, &tags, &entry.HealthTip, &entry.ImageURL, &confidence,
		); err != nil {
			return nil, apperror.Persistence("scanning entry", err)
		}
		if err := json.Unmarshal(tags, &entry.Tags); err != nil {
			entry.Tags = []string{}
		}
		entry.Confidence = model.Confidence(confidence)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterating entries", err)
	}

	return entries, nil
}

// UpdateEntry merges partial changes into the user's entry.
func (s *Store) UpdateEntry(ctx context.Context, userID, id string, changes model.EntryChanges) error {
	if userID == "" {
		return apperror.Unauthenticated()
	}

	entry, err := s.getByID(ctx, userID, id)
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
		 SET name = $1, calories = $2, protein = $3, carbs = $4, fat = $5, portion = $6, tags = $7, health_tip = $8, confidence = $9
		 WHERE user_id = $10 AND id = $11`,
		entry.Name, entry.Calories, entry.Protein, entry.Carbs, entry.Fat,
		entry.Portion, tags, entry.HealthTip, string(entry.Confidence),
		userID, id,
	)
	if err != nil {
		return apperror.Persistence("updating entry", err)
	}
	return nil
}

// DeleteEntry removes the user's entry; ids owned by someone else look
// exactly like missing ids.
func (s *Store) DeleteEntry(ctx context.Context, userID, id string) error {
	if userID == "" {
		return apperror.Unauthenticated()
	}

	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM food_entries WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
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

// WeeklyTotals sums the user's macros per day over the trailing 7 days.
func (s *Store) WeeklyTotals(ctx context.Context, userID string) (map[string]model.Totals, error) {
	if userID == "" {
		return map[string]model.Totals{}, nil
	}

	start, end := ledger.WeekWindow(time.Now())

	rows, err := s.conn.QueryContext(ctx,
		`SELECT date, SUM(calories), SUM(protein), SUM(carbs), SUM(fat)
		 FROM food_entries
		 WHERE user_id = $1 AND date BETWEEN $2 AND $3
		 GROUP BY date`,
		userID, start, end,
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

func (s *Store) getByID(ctx context.Context, userID, id string) (*model.FoodEntry, error) {
	var entry model.FoodEntry
	var tags []byte
	var confidence string

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, date, timestamp, name, calories, protein, carbs, fat, portion, tags, health_tip, image_url, confidence
		 FROM food_entries
		 WHERE user_id = $1 AND id = $2`,
		userID, id,
	).Scan(
		&entry.ID, &entry.Date, &entry.Timestamp, &entry.Name,
		&entry.Calories, &entry.Protein, &entry.Carbs, &entry.Fat,
		&entry.Portion, &tags, &entry.HealthTip, &entry.ImageURL, &confidence,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("entry", id)
		}
		return nil, apperror.Persistence("getting entry", err)
	}

	if err := json.Unmarshal(tags, &entry.Tags); err != nil {
		entry.Tags = []string{}
	}
	entry.Confidence = model.Confidence(confidence)
	return &entry, nil
}
