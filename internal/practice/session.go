// Package practice runs one drill through a frozen list of words.
package practice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/scoring"
	"github.com/verte-zerg/vocadrill/internal/srs"
)

var (
	// ErrNoWords is returned by Start for an empty word list.
	ErrNoWords = errors.New("no words to practice")
	// ErrDisposed is returned by Finish on a disposed session.
	ErrDisposed = errors.New("session disposed")
)

// State of a session.
type State int

const (
	Idle State = iota
	Active
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result describes the outcome of one cursor advance.
type Result struct {
	Correct       bool
	Skipped       bool
	CorrectAnswer string
	// Next is the word now under the cursor, nil when the session is complete.
	Next     *model.Word
	Complete bool
	// Delta is the statistics change for the answered word. It is nil for
	// skips. The caller applies it to its own word collection.
	Delta      *model.Delta
	Verdict    scoring.Verdict
	Suggestion string
}

// Summary is returned by Finish.
type Summary struct {
	Mode     model.Mode
	Total    int
	Score    int
	Wrong    int
	Skipped  int
	Accuracy int
	Duration time.Duration
	Answers  []model.AnswerRecord
	Entry    model.HistoryEntry
	Streak   model.PracticeStreak
}

// Progress is a snapshot of the running counters.
type Progress struct {
	Index   int
	Total   int
	Score   int
	Wrong   int
	Skipped int
}

// Option configures Start.
type Option func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the source used for shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// WithJournal sets where Finish records the session.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// Session is one practice run. It is not safe for concurrent use; only its
// Timers may be touched from other goroutines.
type Session struct {
	mode     model.Mode
	settings Settings
	words    []model.Word
	cursor   int
	score    int
	wrong    int
	skipped  int
	answers  []model.AnswerRecord
	started  time.Time

	now     func() time.Time
	rnd     *rand.Rand
	journal Journal
	timers  Timers

	disposed bool
	ended    bool
	summary  *Summary
}

// Start begins a session over a copy of words. Shuffle and limit are applied
// here once; later changes to the caller's slice do not affect the session.
func Start(mode model.Mode, words []model.Word, settings Settings, opts ...Option) (*Session, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	s := &Session{
		mode:     mode,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}

	s.words = make([]model.Word, len(words))
	copy(s.words, words)
	if settings.Shuffle {
		s.rnd.Shuffle(len(s.words), func(i, j int) { s.words[i], s.words[j] = s.words[j], s.words[i] })
	}
	if settings.Limit > 0 && settings.Limit < len(s.words) {
		s.words = s.words[:settings.Limit]
	}
	s.answers = make([]model.AnswerRecord, 0, len(s.words))
	s.started = s.now()
	s.timers.Arm()
	return s, nil
}

// Mode returns the practice mode.
func (s *Session) Mode() model.Mode { return s.mode }

// Settings returns the validated settings.
func (s *Session) Settings() Settings { return s.settings }

// Timers returns the session's cancellation tokens. A new token is armed on
// every cursor advance.
func (s *Session) Timers() *Timers { return &s.timers }

// State reports the lifecycle state.
func (s *Session) State() State {
	switch {
	case s.disposed:
		return Idle
	case s.ended || s.cursor >= len(s.words):
		return Complete
	}
	return Active
}

// Current returns the word under the cursor.
func (s *Session) Current() (model.Word, bool) {
	if s.State() != Active {
		return model.Word{}, false
	}
	return s.words[s.cursor], true
}

// Words returns the session's snapshot, including statistics updated by
// answers so far.
func (s *Session) Words() []model.Word {
	out := make([]model.Word, len(s.words))
	copy(out, s.words)
	return out
}

// Answers returns the answer log.
func (s *Session) Answers() []model.AnswerRecord {
	out := make([]model.AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// Progress returns the running counters.
func (s *Session) Progress() Progress {
	return Progress{
		Index:   s.cursor,
		Total:   len(s.words),
		Score:   s.score,
		Wrong:   s.wrong,
		Skipped: s.skipped,
	}
}

// ExpectedAnswer renders the answer field of the current word.
func (s *Session) ExpectedAnswer() string {
	w, ok := s.Current()
	if !ok {
		return ""
	}
	return w.FieldValue(s.settings.AnswerField)
}

// Submit records an externally graded answer for the current word. It returns
// nil unless the session is active.
func (s *Session) Submit(input string, correct bool) *Result {
	if s.State() != Active {
		return nil
	}
	now := s.now()
	d := model.Delta{WordID: s.words[s.cursor].ID, At: now, Graded: true, Correct: correct}
	return s.advance(input, d, now)
}

// Answer grades free text against the current word's answer field and
// submits the verdict. Blank input is ignored and returns nil.
func (s *Session) Answer(input string) *Result {
	w, ok := s.Current()
	if !ok || strings.TrimSpace(input) == "" {
		return nil
	}
	field := s.settings.AnswerField
	expected := w.FieldValue(field)
	accepted := append(w.Accepted(field), expected)
	v, best := scoring.GradeAny(input, accepted, s.settings.Scoring, s.settings.StrictMode)
	if best == "" {
		best = expected
	}

	res := s.Submit(input, v.Correct)
	res.Verdict = v
	if suggestion, ok := scoring.Suggest(v, best, s.settings.AutoCorrect); ok {
		res.Suggestion = suggestion
	}
	return res
}

// Rate grades the current word with a spaced-repetition quality. Anything but
// Forgot counts as correct.
func (s *Session) Rate(q srs.Quality) *Result {
	w, ok := s.Current()
	if !ok {
		return nil
	}
	now := s.now()
	d := srs.Review(w, q, now)
	d.Graded = true
	d.Correct = q != srs.Forgot
	return s.advance(q.String(), d, now)
}

// Skip advances without touching statistics.
func (s *Session) Skip() *Result {
	w, ok := s.Current()
	if !ok {
		return nil
	}
	s.answers = append(s.answers, model.AnswerRecord{WordID: w.ID, Skipped: true, At: s.now()})
	s.skipped++
	s.cursor++
	return s.result(w, false, true, nil)
}

// Expire treats a fired countdown as a skip. It returns nil when tok is stale.
func (s *Session) Expire(tok Token) *Result {
	if !s.timers.Valid(tok) {
		return nil
	}
	return s.Skip()
}

// Finish ends the session, records it once through the journal and returns
// the summary. It may be called before the list is exhausted. Later calls
// return the cached summary.
func (s *Session) Finish(ctx context.Context) (Summary, error) {
	if s.summary != nil {
		return *s.summary, nil
	}
	if s.disposed {
		return Summary{}, ErrDisposed
	}
	s.ended = true
	s.timers.Cancel()

	end := s.now()
	sum := Summary{
		Mode:     s.mode,
		Total:    len(s.words),
		Score:    s.score,
		Wrong:    s.wrong,
		Skipped:  s.skipped,
		Accuracy: accuracy(s.score, len(s.words)),
		Duration: end.Sub(s.started),
		Answers:  s.Answers(),
	}
	sum.Entry = s.historyEntry(sum, end)

	if s.journal != nil {
		entry, err := s.journal.RecordHistory(ctx, sum.Entry)
		if err != nil {
			return sum, fmt.Errorf("record history: %w", err)
		}
		sum.Entry = entry
		streak, err := s.journal.TouchStreak(ctx, end)
		if err != nil {
			s.summary = &sum
			return sum, fmt.Errorf("update streak: %w", err)
		}
		sum.Streak = streak
	}
	s.summary = &sum
	return sum, nil
}

// Dispose discards the session and cancels its timers. A disposed session
// accepts no more answers.
func (s *Session) Dispose() {
	s.disposed = true
	s.timers.Cancel()
}

// advance applies d to the snapshot, logs the answer and moves the cursor.
// Statistics are updated before the cursor moves.
func (s *Session) advance(input string, d model.Delta, now time.Time) *Result {
	w := &s.words[s.cursor]
	w.Apply(d)
	answered := *w
	s.answers = append(s.answers, model.AnswerRecord{WordID: w.ID, Input: input, Correct: d.Correct, At: now})
	if d.Correct {
		s.score++
	} else {
		s.wrong++
	}
	s.cursor++
	return s.result(answered, d.Correct, false, &d)
}

func (s *Session) result(answered model.Word, correct, skipped bool, d *model.Delta) *Result {
	res := &Result{
		Correct:       correct,
		Skipped:       skipped,
		CorrectAnswer: answered.FieldValue(s.settings.AnswerField),
		Delta:         d,
	}
	if s.cursor < len(s.words) {
		next := s.words[s.cursor]
		res.Next = &next
		s.timers.Arm()
	} else {
		res.Complete = true
		s.timers.Cancel()
	}
	return res
}

func (s *Session) historyEntry(sum Summary, end time.Time) model.HistoryEntry {
	e := model.HistoryEntry{
		Mode:         s.mode,
		StartedAt:    s.started,
		EndedAt:      end,
		Total:        sum.Total,
		Correct:      sum.Score,
		Wrong:        sum.Wrong,
		Skipped:      sum.Skipped,
		Accuracy:     sum.Accuracy,
		DurationSecs: int64(math.Round(sum.Duration.Seconds())),
	}
	for _, a := range s.answers {
		switch {
		case a.Skipped:
			if len(e.SkippedIDs) < model.MaxHistoryWordIDs {
				e.SkippedIDs = append(e.SkippedIDs, a.WordID)
			}
		case !a.Correct:
			if len(e.WrongIDs) < model.MaxHistoryWordIDs {
				e.WrongIDs = append(e.WrongIDs, a.WordID)
			}
		}
	}
	n := len(s.answers)
	if n > model.MaxHistoryAnswers {
		n = model.MaxHistoryAnswers
	}
	e.Answers = append([]model.AnswerRecord(nil), s.answers[:n]...)
	return e
}

func accuracy(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
