package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MasteryStreak is the consecutive-correct count that marks a word mastered.
const MasteryStreak = 3

// MaxSRSLevel is the highest spaced-repetition level.
const MaxSRSLevel = 6

// Meaning is one sense of a headword.
type Meaning struct {
	PartOfSpeech string   `json:"pos,omitempty"`
	Definition   string   `json:"definition,omitempty"`
	Translation  string   `json:"translation,omitempty"`
	Example      string   `json:"example,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Antonyms     []string `json:"antonyms,omitempty"`
	Phonetics    []string `json:"phonetics,omitempty"`
}

// Word is a vocabulary entry with its learning state.
type Word struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SetID     string    `json:"set_id,omitempty"`
	Meanings  []Meaning `json:"meanings,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	ReviewCount  int       `json:"review_count"`
	CorrectCount int       `json:"correct_count"`
	Streak       int       `json:"streak"`
	Mastered     bool      `json:"mastered"`
	Bookmarked   bool      `json:"bookmarked"`
	SRSLevel     int       `json:"srs_level"`
	NextReview   time.Time `json:"next_review"`
	LastReviewed time.Time `json:"last_reviewed"`
}

// NewWord returns a word with a fresh id.
func NewWord(text string, meanings ...Meaning) Word {
	return Word{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Meanings:  meanings,
		CreatedAt: time.Now(),
	}
}

// Accuracy returns CorrectCount/ReviewCount, 0 for a word never reviewed.
func (w Word) Accuracy() float64 {
	if w.ReviewCount == 0 {
		return 0
	}
	return float64(w.CorrectCount) / float64(w.ReviewCount)
}

// Primary returns the first meaning, or a zero Meaning.
func (w Word) Primary() Meaning {
	if len(w.Meanings) == 0 {
		return Meaning{}
	}
	return w.Meanings[0]
}

// FieldValue renders a field of the word for prompts and answers.
// List fields are joined with ", " across all meanings.
func (w Word) FieldValue(f Field) string {
	if f == FieldWord {
		return w.Text
	}
	var parts []string
	seen := map[string]struct{}{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
	}
	for _, m := range w.Meanings {
		switch f {
		case FieldDefinition:
			add(m.Definition)
		case FieldTranslation:
			add(m.Translation)
		case FieldExample:
			add(m.Example)
		case FieldPartOfSpeech:
			add(m.PartOfSpeech)
		case FieldSynonyms:
			for _, s := range m.Synonyms {
				add(s)
			}
		case FieldAntonyms:
			for _, s := range m.Antonyms {
				add(s)
			}
		case FieldPhonetic:
			for _, s := range m.Phonetics {
				add(s)
			}
		}
	}
	if f == FieldDefinition || f == FieldTranslation || f == FieldExample {
		return strings.Join(parts, "; ")
	}
	return strings.Join(parts, ", ")
}

// Accepted lists every answer accepted for a field. For the headword this is
// just the text; for translations each meaning's translation counts, split on
// commas and semicolons.
func (w Word) Accepted(f Field) []string {
	if f == FieldWord {
		return []string{w.Text}
	}
	raw := w.FieldValue(f)
	if raw == "" {
		return nil
	}
	split := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(split))
	for _, s := range split {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsDue reports whether the word should be reviewed at now.
// A word that was never scheduled is due.
func (w Word) IsDue(now time.Time) bool {
	return !now.Before(w.NextReview)
}
