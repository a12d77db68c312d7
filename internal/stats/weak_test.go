package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/model"
)

var weakNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRecentFailureOutranksNeverReviewed(t *testing.T) {
	missed := model.Word{ID: "missed", Text: "ubiquitous", ReviewCount: 2, LastReviewed: weakNow.Add(-72 * time.Hour)}
	fresh := model.Word{ID: "fresh", Text: "serendipity"}
	history := []model.HistoryEntry{
		{EndedAt: weakNow.Add(-2 * time.Hour), Answers: []model.AnswerRecord{{WordID: "missed"}}},
		{EndedAt: weakNow.Add(-26 * time.Hour), Answers: []model.AnswerRecord{{WordID: "missed"}}},
	}

	ranked := RankWeakWords([]model.Word{fresh, missed}, history, WeakOptions{Days: 7, Limit: 10, Now: weakNow})
	require.Len(t, ranked, 2)
	assert.Equal(t, "missed", ranked[0].Word.ID, "recently missed word ranks first")
	assert.True(t, ranked[0].RecentWrong)
	assert.False(t, ranked[1].RecentWrong)
	assert.Equal(t, 1100, ranked[0].Score)
	assert.Equal(t, 300, ranked[1].Score)
}

func TestWeakScoreComponents(t *testing.T) {
	w := model.Word{
		ID:           "w",
		ReviewCount:  4,
		CorrectCount: 2,
		Streak:       1,
		LastReviewed: weakNow.Add(-12 * time.Hour),
	}
	// accuracy 0.5 -> +50, recency 48-12 -> +36, streak > 0 -> -10
	assert.Equal(t, 76, weakScore(w, false, weakNow))
	assert.Equal(t, 1076, weakScore(w, true, weakNow))
}

func TestWeakScoreRoundsFractionalTerms(t *testing.T) {
	w := model.Word{ID: "w", ReviewCount: 4, CorrectCount: 2, Streak: 1}
	cases := []struct {
		name string
		ago  time.Duration
		want int
	}{
		// recency 47.5 rounds up to 48
		{name: "half hour", ago: 30 * time.Minute, want: 50 + 48 - 10},
		// recency 0.4 rounds down to 0
		{name: "just inside window", ago: 47*time.Hour + 36*time.Minute, want: 50 - 10},
		{name: "outside window", ago: 72 * time.Hour, want: 50 - 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w.LastReviewed = weakNow.Add(-tc.ago)
			assert.Equal(t, tc.want, weakScore(w, false, weakNow))
		})
	}

	// accuracy 1/3 -> 66.67 rounds to 67
	third := model.Word{ID: "t", ReviewCount: 3, CorrectCount: 1}
	assert.Equal(t, 67, weakScore(third, false, weakNow))
}

func TestStrongWordsAreNotCandidates(t *testing.T) {
	strong := model.Word{ID: "strong", ReviewCount: 10, CorrectCount: 9, Streak: 4}
	weak := model.Word{ID: "weak", ReviewCount: 10, CorrectCount: 9, Streak: 0}
	ranked := RankWeakWords([]model.Word{strong, weak}, nil, WeakOptions{Days: 7, Now: weakNow})
	require.Len(t, ranked, 1)
	assert.Equal(t, "weak", ranked[0].Word.ID)
}

func TestRankReturnsAtLeastFourAndBreaksTiesByOrder(t *testing.T) {
	var words []model.Word
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		words = append(words, model.Word{ID: id})
	}
	ranked := WeakWords(words, nil, WeakOptions{Days: 7, Limit: 2, Now: weakNow})
	require.Len(t, ranked, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, ranked[i].ID, "position %d", i)
	}
}

func TestRecentWrongIDsStopsAtWindowAndIgnoresSkips(t *testing.T) {
	history := []model.HistoryEntry{
		{EndedAt: weakNow.AddDate(0, 0, -10), WrongIDs: []string{"old"}},
		{EndedAt: weakNow.Add(-time.Hour), Answers: []model.AnswerRecord{
			{WordID: "skipped", Skipped: true},
			{WordID: "right", Correct: true},
			{WordID: "wrong"},
		}},
		{EndedAt: weakNow.AddDate(0, 0, -2), WrongIDs: []string{"listed"}},
	}
	ids := RecentWrongIDs(history, 7, weakNow)
	assert.Len(t, ids, 2)
	for _, id := range []string{"wrong", "listed"} {
		assert.Contains(t, ids, id)
	}
}
