// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode identifies a practice mode.
type Mode string

// Practice modes.
const (
	ModeFlashcard Mode = "flashcard"
	ModeQuiz      Mode = "quiz"
	ModeTyping    Mode = "typing"
	ModeDictation Mode = "dictation"
)

// Modes lists every practice mode in display order.
var Modes = []Mode{ModeFlashcard, ModeQuiz, ModeTyping, ModeDictation}

// ParseMode maps a config or flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFlashcard:
		return ModeFlashcard, nil
	case ModeQuiz:
		return ModeQuiz, nil
	case ModeTyping:
		return ModeTyping, nil
	case ModeDictation:
		return ModeDictation, nil
	}
	return "", fmt.Errorf("unknown mode %q (want flashcard, quiz, typing or dictation)", s)
}

// FreeText reports whether the mode grades typed input.
func (m Mode) FreeText() bool {
	return m == ModeTyping || m == ModeDictation
}

// Field names a Word attribute that can be asked or hinted.
type Field string

// Word fields used by practice prompts.
const (
	FieldWord         Field = "word"
	FieldDefinition   Field = "definition"
	FieldTranslation  Field = "translation"
	FieldExample      Field = "example"
	FieldSynonyms     Field = "synonyms"
	FieldAntonyms     Field = "antonyms"
	FieldPhonetic     Field = "phonetic"
	FieldPartOfSpeech Field = "pos"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldWord, FieldDefinition, FieldTranslation, FieldExample,
		FieldSynonyms, FieldAntonyms, FieldPhonetic, FieldPartOfSpeech:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// PracticeStreak counts consecutive calendar days with at least one finished session.
type PracticeStreak struct {
	LastDay string `json:"last_day"` // YYYY-MM-DD in local time
	Days    int    `json:"days"`
}

// DayLayout formats PracticeStreak.LastDay.
const DayLayout = "2006-01-02"

// TouchStreak applies the calendar-day rule for a session finished at now:
// yesterday increments, today is a no-op, anything else restarts at 1.
func TouchStreak(s PracticeStreak, now time.Time) PracticeStreak {
	today := now.Format(DayLayout)
	if s.LastDay == today && s.Days > 0 {
		return s
	}
	yesterday := now.AddDate(0, 0, -1).Format(DayLayout)
	if s.LastDay == yesterday && s.Days > 0 {
		return PracticeStreak{LastDay: today, Days: s.Days + 1}
	}
	return PracticeStreak{LastDay: today, Days: 1}
}
