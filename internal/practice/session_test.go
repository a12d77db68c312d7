package practice

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/scoring"
	"github.com/verte-zerg/vocadrill/internal/srs"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testWords(ids ...string) []model.Word {
	out := make([]model.Word, len(ids))
	for i, id := range ids {
		out[i] = model.Word{
			ID:       id,
			Text:     id,
			Meanings: []model.Meaning{{Definition: "meaning of " + id, Translation: id + "-tr"}},
		}
	}
	return out
}

func plain(mode model.Mode) Settings {
	s := DefaultSettings(mode)
	s.Shuffle = false
	return s
}

func TestStartRejectsEmptyList(t *testing.T) {
	s, err := Start(model.ModeTyping, nil, plain(model.ModeTyping))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoWords)
}

func TestStartRejectsInvalidSettings(t *testing.T) {
	settings := plain(model.ModeQuiz)
	settings.Choices = 1
	_, err := Start(model.ModeQuiz, testWords("a"), settings)
	require.Error(t, err)

	_, err = Start(model.Mode("karaoke"), testWords("a"), plain(model.ModeQuiz))
	require.Error(t, err)
}

func TestStartFreezesAndLimitsWords(t *testing.T) {
	words := testWords("a", "b", "c", "d")
	settings := plain(model.ModeQuiz)
	settings.Limit = 3
	s, err := Start(model.ModeQuiz, words, settings)
	require.NoError(t, err)

	words[0].Text = "mutated"
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.Text)
	assert.Equal(t, 3, s.Progress().Total)
}

func TestStartShufflesWithProvidedSource(t *testing.T) {
	settings := DefaultSettings(model.ModeQuiz)
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	s1, err := Start(model.ModeQuiz, testWords(ids...), settings, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	s2, err := Start(model.ModeQuiz, testWords(ids...), settings, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	assert.Equal(t, s1.Words(), s2.Words())
	assert.Len(t, s1.Words(), len(ids))
}

func TestSubmitUpdatesStatsBeforeAdvancing(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	s, err := Start(model.ModeQuiz, testWords("a", "b"), plain(model.ModeQuiz), WithClock(clock.now))
	require.NoError(t, err)

	res := s.Submit("a", true)
	require.NotNil(t, res)
	assert.True(t, res.Correct)
	assert.Equal(t, "a", res.CorrectAnswer)
	require.NotNil(t, res.Next)
	assert.Equal(t, "b", res.Next.ID)
	require.NotNil(t, res.Delta)
	assert.Equal(t, "a", res.Delta.WordID)
	assert.True(t, res.Delta.Graded)

	answered := s.Words()[0]
	assert.Equal(t, 1, answered.ReviewCount)
	assert.Equal(t, 1, answered.CorrectCount)
	assert.Equal(t, 1, answered.Streak)
	assert.Equal(t, clock.t, answered.LastReviewed)

	res = s.Submit("x", false)
	require.NotNil(t, res)
	assert.True(t, res.Complete)
	assert.Nil(t, res.Next)
	assert.Equal(t, Complete, s.State())
	assert.Nil(t, s.Submit("late", true))
	assert.Nil(t, s.Skip())

	p := s.Progress()
	assert.Equal(t, Progress{Index: 2, Total: 2, Score: 1, Wrong: 1}, p)
}

func TestAnswerLogMatchesCursor(t *testing.T) {
	s, err := Start(model.ModeTyping, testWords("a", "b", "c", "d", "e"), plain(model.ModeTyping))
	require.NoError(t, err)

	steps := []func() *Result{
		func() *Result { return s.Answer("a") },
		func() *Result { return s.Skip() },
		func() *Result { return s.Submit("nope", false) },
		func() *Result { return s.Answer("D") },
		func() *Result { return s.Skip() },
	}
	for i, step := range steps {
		require.NotNil(t, step())
		assert.Len(t, s.Answers(), s.Progress().Index)
		assert.Equal(t, i+1, s.Progress().Index)
	}
	for _, w := range s.Words() {
		assert.LessOrEqual(t, w.CorrectCount, w.ReviewCount)
	}
	p := s.Progress()
	assert.Equal(t, 2, p.Score)
	assert.Equal(t, 1, p.Wrong)
	assert.Equal(t, 2, p.Skipped)
}

func TestBlankAnswerIsNoOp(t *testing.T) {
	s, err := Start(model.ModeTyping, testWords("a"), plain(model.ModeTyping))
	require.NoError(t, err)
	assert.Nil(t, s.Answer("   "))
	assert.Equal(t, 0, s.Progress().Index)
	assert.Empty(t, s.Answers())
	assert.Equal(t, Active, s.State())
}

func TestSkipLeavesStatisticsAlone(t *testing.T) {
	s, err := Start(model.ModeTyping, testWords("a", "b"), plain(model.ModeTyping))
	require.NoError(t, err)
	res := s.Skip()
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	assert.Nil(t, res.Delta)

	w := s.Words()[0]
	assert.Zero(t, w.ReviewCount)
	assert.True(t, s.Answers()[0].Skipped)
	assert.Empty(t, s.Answers()[0].Input)
}

func TestAnswerUsesScoringAndSuggestion(t *testing.T) {
	words := []model.Word{{ID: "w", Text: "necessary"}}
	settings := plain(model.ModeTyping)
	settings.Scoring = scoring.Exact
	settings.AutoCorrect = true
	s, err := Start(model.ModeTyping, words, settings)
	require.NoError(t, err)

	res := s.Answer("neccessary")
	require.NotNil(t, res)
	assert.False(t, res.Correct)
	assert.Equal(t, "necessary", res.Suggestion)
	assert.Equal(t, "necessary", res.CorrectAnswer)
}

func TestAnswerLenientAcceptsAnyTranslation(t *testing.T) {
	words := []model.Word{{ID: "w", Text: "house", Meanings: []model.Meaning{
		{Translation: "casa, hogar"},
		{Translation: "vivienda"},
	}}}
	settings := plain(model.ModeTyping)
	settings.AnswerField = model.FieldTranslation
	settings.AskFields = []model.Field{model.FieldWord}
	settings.HintFields = nil
	s, err := Start(model.ModeTyping, words, settings)
	require.NoError(t, err)

	res := s.Answer("Hogar ")
	require.NotNil(t, res)
	assert.True(t, res.Correct)
	assert.Equal(t, "casa, hogar; vivienda", res.CorrectAnswer)
}

func TestRateCarriesSRSChange(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	words := testWords("a", "b")
	words[0].SRSLevel = 5
	s, err := Start(model.ModeFlashcard, words, plain(model.ModeFlashcard), WithClock(clock.now))
	require.NoError(t, err)

	res := s.Rate(srs.Easy)
	require.NotNil(t, res)
	assert.True(t, res.Correct)
	require.NotNil(t, res.Delta.SRS)
	assert.Equal(t, 6, res.Delta.SRS.Level)

	res = s.Rate(srs.Forgot)
	require.NotNil(t, res)
	assert.False(t, res.Correct)

	got := s.Words()
	assert.True(t, got[0].Mastered)
	assert.Equal(t, clock.t.AddDate(0, 0, 120), got[0].NextReview)
	assert.Equal(t, 0, got[1].SRSLevel)
	assert.Equal(t, 1, got[1].ReviewCount)
	assert.Equal(t, 0, got[1].CorrectCount)
}

func TestFinishRecordsOnce(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	journal := NewMemoryJournal()
	s, err := Start(model.ModeQuiz, testWords("a", "b", "c"), plain(model.ModeQuiz),
		WithClock(clock.now), WithJournal(journal))
	require.NoError(t, err)

	s.Submit("a", true)
	s.Submit("x", false)
	s.Skip()
	clock.advance(90 * time.Second)

	sum, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 1, sum.Wrong)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 33, sum.Accuracy)
	assert.Equal(t, 90*time.Second, sum.Duration)
	assert.Len(t, sum.Answers, 3)
	assert.Equal(t, []string{"b"}, sum.Entry.WrongIDs)
	assert.Equal(t, []string{"c"}, sum.Entry.SkippedIDs)
	assert.Equal(t, int64(90), sum.Entry.DurationSecs)
	assert.Equal(t, 1, sum.Streak.Days)

	again, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sum, again)
	assert.Len(t, journal.History(), 1)
	assert.Equal(t, 1, journal.Streak().Days)
}

func TestFinishEarlyStopsTheSession(t *testing.T) {
	s, err := Start(model.ModeQuiz, testWords("a", "b", "c", "d"), plain(model.ModeQuiz))
	require.NoError(t, err)
	s.Submit("a", true)

	sum, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 25, sum.Accuracy)
	assert.Equal(t, Complete, s.State())
	assert.Nil(t, s.Submit("b", true))
	_, ok := s.Current()
	assert.False(t, ok)
}

type failingJournal struct {
	calls int
}

func (j *failingJournal) RecordHistory(context.Context, model.HistoryEntry) (model.HistoryEntry, error) {
	j.calls++
	return model.HistoryEntry{}, errors.New("disk full")
}

func (j *failingJournal) TouchStreak(context.Context, time.Time) (model.PracticeStreak, error) {
	return model.PracticeStreak{}, nil
}

func TestFinishJournalErrorCanBeRetried(t *testing.T) {
	j := &failingJournal{}
	s, err := Start(model.ModeQuiz, testWords("a"), plain(model.ModeQuiz), WithJournal(j))
	require.NoError(t, err)
	s.Submit("a", true)

	_, err = s.Finish(context.Background())
	require.Error(t, err)
	_, err = s.Finish(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, j.calls)
}

func TestHistoryEntryIsCapped(t *testing.T) {
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + time.Duration(i).String()
	}
	s, err := Start(model.ModeQuiz, testWords(ids...), plain(model.ModeQuiz))
	require.NoError(t, err)
	for range ids {
		s.Submit("", false)
	}
	sum, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Len(t, sum.Answers, 120)
	assert.Len(t, sum.Entry.Answers, model.MaxHistoryAnswers)
	assert.Len(t, sum.Entry.WrongIDs, model.MaxHistoryWordIDs)
	assert.Equal(t, 0, sum.Accuracy)
}

func TestDisposeCancelsTimersAndRejectsWork(t *testing.T) {
	s, err := Start(model.ModeQuiz, testWords("a", "b"), plain(model.ModeQuiz))
	require.NoError(t, err)
	tok := s.Timers().Current()
	require.True(t, s.Timers().Valid(tok))

	s.Dispose()
	assert.Equal(t, Idle, s.State())
	assert.False(t, s.Timers().Valid(tok))
	assert.Nil(t, s.Submit("a", true))
	assert.Nil(t, s.Expire(tok))
	_, err = s.Finish(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestExpireIgnoresStaleTokens(t *testing.T) {
	s, err := Start(model.ModeTyping, testWords("a", "b", "c"), plain(model.ModeTyping))
	require.NoError(t, err)
	first := s.Timers().Current()

	require.NotNil(t, s.Submit("a", true))
	assert.Nil(t, s.Expire(first), "countdown for an answered word must not skip the next one")

	res := s.Expire(s.Timers().Current())
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, s.Progress().Skipped)
}
