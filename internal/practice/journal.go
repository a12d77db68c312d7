package practice

import (
	"context"
	"sync"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// Journal persists finished sessions.
type Journal interface {
	RecordHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error)
	TouchStreak(ctx context.Context, now time.Time) (model.PracticeStreak, error)
}

// MemoryJournal keeps history and the day streak in memory.
type MemoryJournal struct {
	mu     sync.Mutex
	log    *model.HistoryLog
	streak model.PracticeStreak
	nextID int64
}

// NewMemoryJournal returns a journal capped at model.MaxHistoryEntries.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{log: model.NewHistoryLog(model.MaxHistoryEntries)}
}

// RecordHistory appends e, assigning an id.
func (j *MemoryJournal) RecordHistory(_ context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	e.ID = j.nextID
	j.log.Append(e)
	return e, nil
}

// TouchStreak applies the calendar-day streak rule.
func (j *MemoryJournal) TouchStreak(_ context.Context, now time.Time) (model.PracticeStreak, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.streak = model.TouchStreak(j.streak, now)
	return j.streak, nil
}

// History returns recorded entries, oldest first.
func (j *MemoryJournal) History() []model.HistoryEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.log.Entries()
}

// Streak returns the current day streak.
func (j *MemoryJournal) Streak() model.PracticeStreak {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.streak
}
