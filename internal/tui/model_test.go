package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/practice"
)

type recordingStore struct {
	deltas []model.Delta
	err    error
}

func (s *recordingStore) ApplyDelta(_ context.Context, d model.Delta) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.deltas = append(s.deltas, d)
	return true, nil
}

type recordingSpeaker struct {
	said []string
	err  error
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.said = append(s.said, text)
	return s.err
}

func testWords(texts ...string) []model.Word {
	out := make([]model.Word, len(texts))
	for i, text := range texts {
		out[i] = model.Word{
			ID:   text,
			Text: text,
			Meanings: []model.Meaning{{
				Definition:  "definition of " + text,
				Translation: text + "-tr",
				Example:     "an example with " + text,
				Phonetics:   []string{"/" + text + "/"},
			}},
		}
	}
	return out
}

func startModel(t *testing.T, mode model.Mode, opts Options, words ...string) (*Model, *practice.Session, *practice.MemoryJournal) {
	t.Helper()
	settings := practice.DefaultSettings(mode)
	settings.Shuffle = false
	settings.AutoNext = false
	journal := practice.NewMemoryJournal()
	sess, err := practice.Start(mode, testWords(words...), settings, practice.WithJournal(journal))
	require.NoError(t, err)
	return NewModel(sess, opts), sess, journal
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestTypingCorrectAnswerPersistsDelta(t *testing.T) {
	st := &recordingStore{}
	m, sess, _ := startModel(t, model.ModeTyping, Options{Store: st}, "cat", "dog")

	typeText(m, "cat")
	press(m, tea.KeyEnter)

	require.Equal(t, phaseFeedback, m.phase)
	require.Len(t, st.deltas, 1)
	assert.Equal(t, "cat", st.deltas[0].WordID)
	assert.True(t, st.deltas[0].Correct)
	assert.Contains(t, m.View(), "Correct")
	w, ok := m.vocab.Get("cat")
	require.True(t, ok)
	assert.Equal(t, 1, w.ReviewCount, "local copy should be updated")
	assert.Equal(t, 1, w.Streak)

	press(m, tea.KeyEnter)
	assert.Equal(t, phaseAsk, m.phase)
	assert.Equal(t, "dog", m.word.ID)
	assert.Empty(t, m.input.Value(), "input should be reset")
	assert.Equal(t, 1, sess.Progress().Score)
}

func TestTypingWrongAnswerShowsExpected(t *testing.T) {
	m, _, _ := startModel(t, model.ModeTyping, Options{}, "cat", "dog")
	typeText(m, "owl")
	press(m, tea.KeyEnter)

	view := m.View()
	for _, want := range []string{"Wrong", "answer: ", "cat"} {
		assert.Contains(t, view, want)
	}
}

func TestBlankAnswerIgnored(t *testing.T) {
	m, sess, _ := startModel(t, model.ModeTyping, Options{}, "cat")
	typeText(m, "  ")
	press(m, tea.KeyEnter)
	assert.Equal(t, phaseAsk, m.phase)
	assert.Empty(t, sess.Answers(), "blank input should not be graded")
}

func TestExpireIgnoresStaleToken(t *testing.T) {
	m, sess, _ := startModel(t, model.ModeTyping, Options{}, "cat", "dog", "owl")
	stale := sess.Timers().Current()

	typeText(m, "cat")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)

	m.Update(expireMsg{tok: stale})
	assert.Zero(t, sess.Progress().Skipped, "stale expiry must not skip")
	assert.Equal(t, phaseAsk, m.phase)

	m.Update(expireMsg{tok: sess.Timers().Current()})
	assert.Equal(t, 1, sess.Progress().Skipped, "current expiry should skip")
	assert.Equal(t, phaseFeedback, m.phase)
	assert.True(t, m.last.Skipped)
}

func TestAutoNextAdvances(t *testing.T) {
	m, sess, _ := startModel(t, model.ModeTyping, Options{}, "cat", "dog")
	typeText(m, "cat")
	press(m, tea.KeyEnter)

	m.Update(autoNextMsg{tok: sess.Timers().Current() + 1})
	require.Equal(t, phaseFeedback, m.phase, "stale auto-next must be ignored")
	m.Update(autoNextMsg{tok: sess.Timers().Current()})
	assert.Equal(t, phaseAsk, m.phase)
	assert.Equal(t, "dog", m.word.ID)
}

func TestQuizPicksChoice(t *testing.T) {
	st := &recordingStore{}
	m, sess, _ := startModel(t, model.ModeQuiz, Options{Store: st}, "cat", "dog", "owl", "elk")
	require.Len(t, m.choices, 4)
	require.GreaterOrEqual(t, m.answer, 0)
	assert.Equal(t, "cat", m.choices[m.answer], "correct choice should be the headword")

	typeText(m, string(rune('1'+m.answer)))
	assert.True(t, m.last.Correct)
	assert.Equal(t, 1, sess.Progress().Score)
	assert.Len(t, st.deltas, 1)

	press(m, tea.KeyEnter)
	wrong := (m.answer + 1) % len(m.choices)
	typeText(m, string(rune('1'+wrong)))
	assert.False(t, m.last.Correct)
	assert.Equal(t, 1, sess.Progress().Wrong)
}

func TestQuizOutOfRangeKeyIgnored(t *testing.T) {
	m, sess, _ := startModel(t, model.ModeQuiz, Options{}, "cat", "dog")
	typeText(m, "9")
	assert.Empty(t, sess.Answers())
}

func TestFlashcardFlipAndRate(t *testing.T) {
	st := &recordingStore{}
	m, _, _ := startModel(t, model.ModeFlashcard, Options{Store: st}, "cat")

	typeText(m, "3")
	require.Empty(t, st.deltas, "rating before flipping must be ignored")
	press(m, tea.KeySpace)
	assert.True(t, m.revealed)
	assert.Contains(t, m.View(), "definition of cat")
	typeText(m, "3")
	require.Len(t, st.deltas, 1)
	require.NotNil(t, st.deltas[0].SRS)
	assert.True(t, st.deltas[0].Correct)
	assert.Equal(t, 1, st.deltas[0].SRS.Level, "good from level 0 should reach level 1")
}

func TestHintsRevealInOrder(t *testing.T) {
	m, _, _ := startModel(t, model.ModeTyping, Options{}, "cat")
	assert.NotContains(t, m.View(), "an example with cat", "hints start hidden")
	press(m, tea.KeyTab)
	press(m, tea.KeyTab)
	press(m, tea.KeyTab)
	assert.Equal(t, 2, m.hints, "hints stop at the configured count")
	view := m.View()
	assert.Contains(t, view, "an example with cat")
	assert.Contains(t, view, "/cat/")
}

func TestCompletingRecordsHistory(t *testing.T) {
	m, sess, journal := startModel(t, model.ModeTyping, Options{}, "cat", "dog")
	typeText(m, "cat")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)
	press(m, tea.KeyCtrlS)
	press(m, tea.KeyEnter)

	require.Equal(t, phaseSummary, m.phase)
	sum, ok := m.Summary()
	require.True(t, ok)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 50, sum.Accuracy)
	assert.Len(t, journal.History(), 1)
	assert.Equal(t, practice.Complete, sess.State())
	assert.Contains(t, m.View(), "Session complete")
}

func TestEscFinishesEarly(t *testing.T) {
	m, _, journal := startModel(t, model.ModeTyping, Options{}, "cat", "dog", "owl")
	typeText(m, "cat")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEsc)

	sum, ok := m.Summary()
	require.True(t, ok)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Score)
	assert.Len(t, journal.History(), 1, "early finish should be recorded")
}

func TestQuitWithoutAnswersDisposes(t *testing.T) {
	m, sess, journal := startModel(t, model.ModeTyping, Options{}, "cat")
	assert.NotNil(t, press(m, tea.KeyCtrlC), "expected quit command")
	assert.Equal(t, practice.Idle, sess.State())
	assert.Empty(t, journal.History(), "untouched session must not be recorded")
}

func TestEscWithoutAnswersDisposes(t *testing.T) {
	m, sess, journal := startModel(t, model.ModeTyping, Options{}, "cat")
	assert.NotNil(t, press(m, tea.KeyEsc), "expected quit command")
	_, ok := m.Summary()
	assert.False(t, ok, "untouched session must not produce a summary")
	assert.Equal(t, practice.Idle, sess.State())
	assert.Empty(t, journal.History(), "untouched session must not be recorded")
	assert.Zero(t, journal.Streak().Days, "untouched session must not touch the streak")
}

func TestStoreErrorIsShown(t *testing.T) {
	st := &recordingStore{err: errors.New("disk full")}
	m, _, _ := startModel(t, model.ModeTyping, Options{Store: st}, "cat", "dog")
	typeText(m, "cat")
	press(m, tea.KeyEnter)
	assert.Contains(t, m.View(), "disk full")
}

func TestDictationSpeaksCurrentWord(t *testing.T) {
	sp := &recordingSpeaker{}
	m, _, _ := startModel(t, model.ModeDictation, Options{Speaker: sp}, "cat")
	msg := m.speakCmd()()
	assert.Equal(t, []string{"cat"}, sp.said)
	m.Update(msg)
	assert.Empty(t, m.status)

	sp.err = errors.New("no voice")
	m.Update(m.speakCmd()())
	assert.Contains(t, m.status, "no voice")
}
