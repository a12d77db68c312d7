package model

import "time"

// SRSChange is the scheduler's new state for a word.
type SRSChange struct {
	Level      int       `json:"level"`
	NextReview time.Time `json:"next_review"`
}

// Delta is a statistics change produced by grading one answer. Grading code
// returns deltas; whoever owns the word collection applies them.
type Delta struct {
	WordID string    `json:"word_id"`
	At     time.Time `json:"at"`

	// Graded deltas count toward accuracy and the consecutive-correct streak.
	Graded  bool `json:"graded"`
	Correct bool `json:"correct"`

	// SRS is set when the answer was graded by the spaced-repetition scheduler.
	SRS *SRSChange `json:"srs,omitempty"`
}

// Apply mutates w according to d. Every delta counts as one review.
//
// Mastery on the graded path is sticky: it is set once the streak reaches
// MasteryStreak and never cleared there. An SRS change always recomputes
// mastery from the level.
func (w *Word) Apply(d Delta) {
	w.ReviewCount++
	w.LastReviewed = d.At
	if d.Graded {
		if d.Correct {
			w.CorrectCount++
			w.Streak++
			if w.Streak >= MasteryStreak {
				w.Mastered = true
			}
		} else {
			w.Streak = 0
		}
	}
	if d.SRS != nil {
		level := d.SRS.Level
		if level < 0 {
			level = 0
		}
		if level > MaxSRSLevel {
			level = MaxSRSLevel
		}
		w.SRSLevel = level
		w.NextReview = d.SRS.NextReview
		w.Mastered = level >= MaxSRSLevel
	}
}

// Vocabulary is an in-memory word collection indexed by id.
type Vocabulary struct {
	words []Word
	index map[string]int
}

// NewVocabulary copies words into a collection.
func NewVocabulary(words []Word) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(words))}
	for _, w := range words {
		v.Add(w)
	}
	return v
}

// Add inserts or replaces a word.
func (v *Vocabulary) Add(w Word) {
	if i, ok := v.index[w.ID]; ok {
		v.words[i] = w
		return
	}
	v.index[w.ID] = len(v.words)
	v.words = append(v.words, w)
}

// Remove deletes a word by id. It returns false when the id is unknown.
func (v *Vocabulary) Remove(id string) bool {
	i, ok := v.index[id]
	if !ok {
		return false
	}
	v.words = append(v.words[:i], v.words[i+1:]...)
	delete(v.index, id)
	for j := i; j < len(v.words); j++ {
		v.index[v.words[j].ID] = j
	}
	return true
}

// Get returns the word with the given id.
func (v *Vocabulary) Get(id string) (Word, bool) {
	i, ok := v.index[id]
	if !ok {
		return Word{}, false
	}
	return v.words[i], true
}

// Apply applies d to the matching word. A delta for an unknown word is
// dropped and Apply returns false.
func (v *Vocabulary) Apply(d Delta) bool {
	i, ok := v.index[d.WordID]
	if !ok {
		return false
	}
	v.words[i].Apply(d)
	return true
}

// Words returns a copy of the collection in insertion order.
func (v *Vocabulary) Words() []Word {
	out := make([]Word, len(v.words))
	copy(out, v.words)
	return out
}

// Len returns the number of words.
func (v *Vocabulary) Len() int {
	return len(v.words)
}
