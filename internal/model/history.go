package model

import "time"

// History limits.
const (
	MaxHistoryEntries = 200
	MaxHistoryWordIDs = 50
	MaxHistoryAnswers = 100
)

// AnswerRecord is one graded or skipped interaction. Input is empty for skips.
type AnswerRecord struct {
	WordID  string    `json:"word_id"`
	Input   string    `json:"input,omitempty"`
	Correct bool      `json:"correct"`
	Skipped bool      `json:"skipped"`
	At      time.Time `json:"at"`
}

// HistoryEntry summarises a finished session.
type HistoryEntry struct {
	ID           int64          `json:"id,omitempty"`
	Mode         Mode           `json:"mode"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      time.Time      `json:"ended_at"`
	Total        int            `json:"total"`
	Correct      int            `json:"correct"`
	Wrong        int            `json:"wrong"`
	Skipped      int            `json:"skipped"`
	Accuracy     int            `json:"accuracy"`
	DurationSecs int64          `json:"duration_secs"`
	WrongIDs     []string       `json:"wrong_ids,omitempty"`
	SkippedIDs   []string       `json:"skipped_ids,omitempty"`
	Answers      []AnswerRecord `json:"answers,omitempty"`
}

// HistoryLog is an append-only history capped at a fixed length. When full,
// the oldest entries are evicted first.
type HistoryLog struct {
	max     int
	entries []HistoryEntry
}

// NewHistoryLog returns a log holding at most max entries (MaxHistoryEntries
// when max <= 0).
func NewHistoryLog(max int, entries ...HistoryEntry) *HistoryLog {
	if max <= 0 {
		max = MaxHistoryEntries
	}
	l := &HistoryLog{max: max}
	for _, e := range entries {
		l.Append(e)
	}
	return l
}

// Append adds an entry, evicting the oldest beyond capacity.
func (l *HistoryLog) Append(e HistoryEntry) {
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append([]HistoryEntry(nil), l.entries[over:]...)
	}
}

// Entries returns the entries oldest first.
func (l *HistoryLog) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Newest returns the entries newest first.
func (l *HistoryLog) Newest() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Len returns the number of stored entries.
func (l *HistoryLog) Len() int {
	return len(l.entries)
}
