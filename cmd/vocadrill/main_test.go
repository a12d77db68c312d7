package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/config"
	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/pool"
	"github.com/verte-zerg/vocadrill/internal/scoring"
)

func ptr[T any](v T) *T { return &v }

func TestResolvePracticeDefaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	run, err := resolvePractice(cmd, config.FileConfig{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.ModeTyping, run.mode)
	assert.Equal(t, scoring.Lenient, run.settings.Scoring, "typing default scoring")
	assert.False(t, run.settings.Shuffle)
	assert.Equal(t, defaultLimit, run.sel.Limit)
	assert.Equal(t, pool.OrderRandom, run.sel.Sort)
}

func TestResolvePracticeFileAndFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--scoring", "exact", "--limit", "5"}))
	fileCfg := config.FileConfig{Practice: config.PracticeConfig{
		Mode:          ptr("quiz"),
		Scoring:       ptr("half"),
		Limit:         ptr(50),
		AutoNextDelay: ptr("2s"),
		Choices:       ptr(3),
	}}
	run, err := resolvePractice(cmd, fileCfg, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.ModeQuiz, run.mode, "mode from config")
	assert.Equal(t, scoring.Exact, run.settings.Scoring, "flag wins over config")
	assert.Equal(t, 5, run.sel.Limit)
	assert.Equal(t, 2*time.Second, run.settings.AutoNextDelay)
	assert.Equal(t, 3, run.settings.Choices)
	assert.True(t, run.settings.AutoNext, "quiz default auto-next survives")
}

func TestResolvePracticeDueKeepsOverdueOrder(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--due"}))
	run, err := resolvePractice(cmd, config.FileConfig{}, time.Now())
	require.NoError(t, err)
	assert.True(t, run.sel.Due)
	assert.True(t, run.sel.KeepOrder, "due ranking is kept")

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--due", "--sort", "az"}))
	run, err = resolvePractice(cmd, config.FileConfig{}, time.Now())
	require.NoError(t, err)
	assert.False(t, run.sel.KeepOrder, "explicit sort wins")
	assert.Equal(t, pool.OrderAlphaAsc, run.sel.Sort)
}

func TestResolvePracticeErrors(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		fileCfg config.FileConfig
		want    string
	}{
		{name: "mode", args: []string{"--mode", "karaoke"}, want: "--mode"},
		{name: "sort", args: []string{"--sort", "sideways"}, want: "--sort"},
		{name: "duration", fileCfg: config.FileConfig{Practice: config.PracticeConfig{TimeLimit: ptr("soon")}}, want: "time-limit"},
		{name: "weak and due", args: []string{"--weak", "--due"}, want: "cannot be combined"},
		{name: "range", args: []string{"--since", "2024-05-02", "--until", "2024-05-01"}, want: "--until"},
		{name: "choices", args: []string{"--choices", "1"}, want: "choices"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newRootCmd()
			require.NoError(t, cmd.ParseFlags(tc.args))
			_, err := resolvePractice(cmd, tc.fileCfg, time.Now())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseDay(t *testing.T) {
	start, err := parseDay("2024-05-01", false)
	require.NoError(t, err)
	end, err := parseDay("2024-05-01", true)
	require.NoError(t, err)
	assert.Zero(t, start.Hour())
	assert.Equal(t, 24*time.Hour-time.Nanosecond, end.Sub(start))

	zero, err := parseDay("", true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	_, err = parseDay("05/01/2024", false)
	assert.Error(t, err)
}

func selectionWords(now time.Time) []model.Word {
	return []model.Word{
		{ID: "a", Text: "apple", SetID: "fruit", CreatedAt: now.Add(-72 * time.Hour), NextReview: now.Add(time.Hour)},
		{ID: "b", Text: "banana", SetID: "fruit", CreatedAt: now.Add(-48 * time.Hour), NextReview: now.Add(-2 * time.Hour)},
		{ID: "c", Text: "cherry", SetID: "fruit", CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "d", Text: "dog", SetID: "animals", CreatedAt: now, Mastered: true},
	}
}

func ids(words []model.Word) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.ID
	}
	return strings.Join(out, ",")
}

func TestSelectWordsSetAndSort(t *testing.T) {
	now := time.Now()
	got := selectWords(selectionWords(now), nil, selection{
		SetID:   "fruit",
		Include: pool.DefaultInclude(),
		Sort:    pool.OrderAlphaDesc,
		Limit:   2,
		Now:     now,
	}, nil)
	assert.Equal(t, "c,b", ids(got))
}

func TestSelectWordsDueKeepsOrder(t *testing.T) {
	now := time.Now()
	got := selectWords(selectionWords(now), nil, selection{
		Include:   pool.DefaultInclude(),
		KeepOrder: true,
		Due:       true,
		Now:       now,
	}, nil)
	assert.Equal(t, "c,d,b", ids(got))
}

func TestSelectWordsDateAndInclude(t *testing.T) {
	now := time.Now()
	got := selectWords(selectionWords(now), nil, selection{
		From:    now.Add(-50 * time.Hour),
		Include: pool.Include{Mastered: true},
		Sort:    pool.OrderOldest,
		Now:     now,
	}, nil)
	assert.Equal(t, "d", ids(got))
}

func TestWordRow(t *testing.T) {
	now := time.Now()
	w := model.NewWord("cat", model.Meaning{Definition: "a small domesticated feline"})
	w.ReviewCount = 4
	w.CorrectCount = 3
	w.Bookmarked = true
	w.NextReview = now.Add(48 * time.Hour)
	row := wordRow(w, now)
	assert.Equal(t, "cat", row[0])
	assert.Equal(t, "75%", row[3])
	assert.Equal(t, "B", row[7])
	assert.Equal(t, w.NextReview.Local().Format(model.DayLayout), row[6])
	assert.Contains(t, renderWordTable([]model.Word{w}, now), "Definition")
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	tmpl := defaultConfigTemplate()
	for _, table := range []string{"[practice]", "[weak]", "[remind]", "[log]"} {
		assert.Contains(t, tmpl, table)
	}
}
