// Package session holds process-wide user state: the AI credential, daily
// goals, language, the selected calendar day, and the gamification counters
// and unlocks. A defined subset persists to disk; ephemeral UI focus does
// not. Mutations are synchronous and last-writer-wins; interested components
// subscribe for change notification instead of polling.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/caltrack/caltrack/internal/model"
)

// RequestLimit is the shared/default credential's lifetime request quota.
// Once requestCount reaches it, analysis requests are refused locally until
// the user supplies their own credential.
const RequestLimit = 30

// persisted is the subset written to disk. Ephemeral flags (the selected
// day, transient errors, loading state) are deliberately absent.
type persisted struct {
	APIKey        string            `json:"apiKey"`
	Language      string            `json:"language"`
	DailyGoals    model.DailyGoals  `json:"dailyGoals"`
	LifetimeLogs  int               `json:"lifetimeLogs"`
	RequestCount  int               `json:"requestCount"`
	UnlockedItems []string          `json:"unlockedItems"`
	EquippedItems map[string]string `json:"equippedItems"`
	ItemColors    map[string]string `json:"itemColors"`
}

// Store is the session/preference container.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *slog.Logger

	state        persisted
	selectedDate string // ephemeral UI focus, never persisted

	subsMu sync.Mutex
	subs   map[int]func()
	nextID int
}

// New loads the persisted snapshot from path, or starts from defaults when
// none exists. A corrupt snapshot is logged and replaced with defaults
// rather than refusing to start.
func New(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		state: persisted{
			Language:      "en",
			DailyGoals:    model.DefaultGoals(),
			UnlockedItems: []string{},
			EquippedItems: map[string]string{},
			ItemColors:    map[string]string{},
		},
		selectedDate: time.Now().Format(model.DateLayout),
		subs:         map[int]func(){},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// first run
	case err != nil:
		return nil, fmt.Errorf("session: reading state: %w", err)
	default:
		if err := json.Unmarshal(data, &s.state); err != nil {
			logger.Warn("discarding corrupt session state", slog.String("path", path), slog.String("error", err.Error()))
			s.state = persisted{
				Language:      "en",
				DailyGoals:    model.DefaultGoals(),
				UnlockedItems: []string{},
				EquippedItems: map[string]string{},
				ItemColors:    map[string]string{},
			}
		}
		if s.state.UnlockedItems == nil {
			s.state.UnlockedItems = []string{}
		}
		if s.state.EquippedItems == nil {
			s.state.EquippedItems = map[string]string{}
		}
		if s.state.ItemColors == nil {
			s.state.ItemColors = map[string]string{}
		}
	}

	return s, nil
}

// Subscribe registers a change callback and returns its unsubscribe func.
// Callbacks run synchronously after each mutation, outside the state lock.
func (s *Store) Subscribe(fn func()) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// save writes the persisted subset atomically. Called with s.mu held.
func (s *Store) save() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		s.logger.Error("encoding session state", slog.String("error", err.Error()))
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Error("creating state dir", slog.String("error", err.Error()))
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.logger.Error("writing session state", slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("replacing session state", slog.String("error", err.Error()))
	}
}

// APIKey returns the user-supplied credential ("" when none).
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIKey
}

// SetAPIKey stores the user's credential. Supplying one exits the shared-
// credential quota machine entirely.
func (s *Store) SetAPIKey(key string) {
	s.mu.Lock()
	s.state.APIKey = key
	s.save()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language
}

func (s *Store) SetLanguage(lang string) {
	s.mu.Lock()
	s.state.Language = lang
	s.save()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Goals() model.DailyGoals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DailyGoals
}

func (s *Store) SetGoals(goals model.DailyGoals) {
	s.mu.Lock()
	s.state.DailyGoals = goals
	s.save()
	s.mu.Unlock()
	s.notify()
}

// SelectedDate is the UI's focused calendar day — ephemeral, not a data
// partition concern.
func (s *Store) SelectedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDate
}

func (s *Store) SetSelectedDate(date string) {
	s.mu.Lock()
	s.selectedDate = date
	s.mu.Unlock()
	s.notify()
}

func (s *Store) LifetimeLogs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LifetimeLogs
}

// IncrementLifetimeLogs bumps the monotone lifetime log counter and returns
// the new value.
func (s *Store) IncrementLifetimeLogs() int {
	s.mu.Lock()
	s.state.LifetimeLogs++
	n := s.state.LifetimeLogs
	s.save()
	s.mu.Unlock()
	s.notify()
	return n
}

func (s *Store) RequestCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RequestCount
}

// IncrementRequestCount bumps the shared-credential request counter. Only
// the shared-credential path calls this; user-supplied credentials are
// unmetered.
func (s *Store) IncrementRequestCount() int {
	s.mu.Lock()
	s.state.RequestCount++
	n := s.state.RequestCount
	s.save()
	s.mu.Unlock()
	s.notify()
	return n
}

// QuotaExhausted reports whether the shared credential's quota is spent.
// A user-supplied credential makes this irrelevant (always false).
func (s *Store) QuotaExhausted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIKey == "" && s.state.RequestCount >= RequestLimit
}

// Unlock adds a cosmetic item to the unlocked set. Set-union semantics:
// unlocking an already-unlocked id is a no-op. Returns true when the item
// was newly unlocked.
func (s *Store) Unlock(itemID string) bool {
	s.mu.Lock()
	if slices.Contains(s.state.UnlockedItems, itemID) {
		s.mu.Unlock()
		return false
	}
	s.state.UnlockedItems = append(s.state.UnlockedItems, itemID)
	s.save()
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) Unlocked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.UnlockedItems)
}

// Equip assigns an unlocked item to its slot; an empty id clears the slot.
func (s *Store) Equip(slot, itemID string) {
	s.mu.Lock()
	if itemID == "" {
		delete(s.state.EquippedItems, slot)
	} else {
		s.state.EquippedItems[slot] = itemID
	}
	s.save()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Equipped() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.state.EquippedItems))
	for k, v := range s.state.EquippedItems {
		out[k] = v
	}
	return out
}

func (s *Store) SetItemColor(itemID, color string) {
	s.mu.Lock()
	s.state.ItemColors[itemID] = color
	s.save()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) ItemColors() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.state.ItemColors))
	for k, v := range s.state.ItemColors {
		out[k] = v
	}
	return out
}
