package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/practice"
)

var _ practice.Journal = (*Store)(nil)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "vocadrill.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestAddGetFindWord(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 7, time.UTC)

	w, err := st.AddWord(ctx, model.Word{
		Text:      " Ephemeral ",
		SetID:     "gre",
		CreatedAt: created,
		Meanings: []model.Meaning{{
			PartOfSpeech: "adj",
			Definition:   "lasting a very short time",
			Synonyms:     []string{"fleeting", "transient"},
		}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, w.ID, "id should be assigned")

	got, err := st.GetWord(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ephemeral", got.Text)
	assert.Equal(t, "gre", got.SetID)
	assert.True(t, got.CreatedAt.Equal(created), "created_at = %v, want %v", got.CreatedAt, created)
	require.Len(t, got.Meanings, 1)
	assert.Equal(t, []string{"fleeting", "transient"}, got.Meanings[0].Synonyms)
	assert.True(t, got.NextReview.IsZero(), "new word should be unscheduled")

	found, err := st.FindWord(ctx, "EPHEMERAL")
	require.NoError(t, err)
	assert.Equal(t, w.ID, found.ID)
	_, err = st.FindWord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddWordRejectsDuplicatesPerSet(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_, err := st.AddWord(ctx, model.Word{Text: "cat", SetID: "a"})
	require.NoError(t, err)
	_, err = st.AddWord(ctx, model.Word{Text: "Cat", SetID: "a"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = st.AddWord(ctx, model.Word{Text: "cat", SetID: "b"})
	assert.NoError(t, err, "same text in another set should be allowed")
	_, err = st.AddWord(ctx, model.Word{Text: "  "})
	assert.Error(t, err, "empty text")
}

func TestListDeleteBookmark(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, text := range []string{"alpha", "beta", "gamma"} {
		set := "one"
		if i == 2 {
			set = "two"
		}
		w, err := st.AddWord(ctx, model.Word{Text: text, SetID: set, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
		ids = append(ids, w.ID)
	}

	all, err := st.ListWords(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Text)
	assert.Equal(t, "gamma", all[2].Text)

	one, err := st.ListWords(ctx, ListFilter{SetID: "one"})
	require.NoError(t, err)
	assert.Len(t, one, 2)
	sets, err := st.ListSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, sets)

	require.NoError(t, st.SetBookmarked(ctx, ids[1], true))
	marked, err := st.ListWords(ctx, ListFilter{Bookmarked: true})
	require.NoError(t, err)
	if assert.Len(t, marked, 1) {
		assert.Equal(t, ids[1], marked[0].ID)
	}
	assert.ErrorIs(t, st.SetBookmarked(ctx, "nope", true), ErrNotFound)

	require.NoError(t, st.DeleteWord(ctx, ids[0]))
	assert.ErrorIs(t, st.DeleteWord(ctx, ids[0]), ErrNotFound, "second delete")
}

func TestApplyDelta(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	w, err := st.AddWord(ctx, model.Word{Text: "loquacious"})
	require.NoError(t, err)
	at := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ok, err := st.ApplyDelta(ctx, model.Delta{WordID: w.ID, At: at, Graded: true, Correct: true})
		require.NoError(t, err)
		require.True(t, ok)
	}
	next := at.AddDate(0, 0, 3)
	_, err = st.ApplyDelta(ctx, model.Delta{WordID: w.ID, At: at, SRS: &model.SRSChange{Level: 1, NextReview: next}})
	require.NoError(t, err)

	got, err := st.GetWord(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ReviewCount)
	assert.Equal(t, 3, got.CorrectCount)
	assert.Equal(t, 3, got.Streak)
	assert.False(t, got.Mastered, "srs level 1 should clear mastery")
	assert.Equal(t, 1, got.SRSLevel)
	assert.True(t, got.NextReview.Equal(next), "next review = %v", got.NextReview)
	assert.True(t, got.LastReviewed.Equal(at), "last reviewed = %v", got.LastReviewed)

	ok, err := st.ApplyDelta(ctx, model.Delta{WordID: "gone", Graded: true})
	assert.NoError(t, err)
	assert.False(t, ok, "missing word delta should be dropped quietly")
}

func TestCountDue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	for i, next := range []time.Time{{}, now.Add(-time.Hour), now, now.Add(time.Minute)} {
		_, err := st.AddWord(ctx, model.Word{Text: string(rune('a' + i)), NextReview: next})
		require.NoError(t, err)
	}
	n, err := st.CountDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecordHistoryPrunesOldestFirst(t *testing.T) {
	st := openTestStore(t, WithHistoryCap(3))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := model.HistoryEntry{
			Mode:      model.ModeTyping,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			Total:     i + 1,
			Correct:   i,
			Wrong:     1,
			WrongIDs:  []string{"w"},
			Answers:   []model.AnswerRecord{{WordID: "w", Input: "x", At: base}},
		}
		got, err := st.RecordHistory(ctx, e)
		require.NoError(t, err)
		assert.NotZero(t, got.ID)
	}
	entries, err := st.ListHistory(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3, "entries after pruning")
	assert.Equal(t, 3, entries[0].Total, "oldest evicted first")
	assert.Equal(t, 5, entries[2].Total)
	if assert.Len(t, entries[0].Answers, 1) {
		assert.Equal(t, "x", entries[0].Answers[0].Input)
	}

	since := base.Add(4 * time.Hour)
	recent, err := st.ListHistory(ctx, HistoryFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 1, "since filter")
	quiz, err := st.ListHistory(ctx, HistoryFilter{Mode: model.ModeQuiz})
	require.NoError(t, err)
	assert.Empty(t, quiz, "mode filter")
}

func TestTouchStreak(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 20, 0, 0, 0, time.Local)

	for i, tc := range []struct {
		at   time.Time
		want int
	}{
		{day, 1},
		{day.Add(time.Hour), 1},
		{day.AddDate(0, 0, 1), 2},
		{day.AddDate(0, 0, 4), 1},
	} {
		got, err := st.TouchStreak(ctx, tc.at)
		require.NoError(t, err, "touch %d", i)
		assert.Equal(t, tc.want, got.Days, "step %d", i)
	}
	stored, err := st.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Days)
}

func TestBackupRoundTrip(t *testing.T) {
	src := openTestStore(t)
	ctx := context.Background()
	w, err := src.AddWord(ctx, model.Word{Text: "sonder", Bookmarked: true, SRSLevel: 2})
	require.NoError(t, err)
	_, err = src.RecordHistory(ctx, model.HistoryEntry{Mode: model.ModeQuiz, Total: 1, Correct: 1, Accuracy: 100})
	require.NoError(t, err)
	_, err = src.TouchStreak(ctx, time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = src.ExportJSON(ctx, &buf)
	require.NoError(t, err)

	dst := openTestStore(t)
	_, err = dst.AddWord(ctx, model.Word{Text: "stale"})
	require.NoError(t, err)
	b, err := dst.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, b.Words, 1)
	assert.Len(t, b.History, 1)

	words, err := dst.ListWords(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, words, 1, "restore replaces existing words")
	assert.Equal(t, w.ID, words[0].ID)
	assert.True(t, words[0].Bookmarked)
	assert.Equal(t, 2, words[0].SRSLevel)

	streak, err := dst.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Days)
}

func TestImportRejectsNewerVersion(t *testing.T) {
	st := openTestStore(t)
	_, err := st.ImportJSON(context.Background(), bytes.NewBufferString(`{"version": 99}`))
	assert.Error(t, err)
}

func TestStoreAsJournal(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	words := []model.Word{{ID: "a", Text: "a"}, {ID: "b", Text: "b"}}
	settings := practice.DefaultSettings(model.ModeQuiz)
	settings.Shuffle = false
	s, err := practice.Start(model.ModeQuiz, words, settings, practice.WithJournal(st))
	require.NoError(t, err)
	s.Submit("a", true)
	s.Submit("x", false)
	_, err = s.Finish(ctx)
	require.NoError(t, err)
	_, err = s.Finish(ctx)
	require.NoError(t, err, "second finish")

	entries, err := st.ListHistory(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50, entries[0].Accuracy)
	assert.Len(t, entries[0].WrongIDs, 1)
}
