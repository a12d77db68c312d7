package statsui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/stats"
	"github.com/verte-zerg/vocadrill/internal/store"
)

type fakeSource struct {
	words   []model.Word
	history []model.HistoryEntry
	filters []store.HistoryFilter
	err     error
}

func (f *fakeSource) ListWords(context.Context, store.ListFilter) ([]model.Word, error) {
	return f.words, f.err
}

func (f *fakeSource) ListHistory(_ context.Context, filter store.HistoryFilter) ([]model.HistoryEntry, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.HistoryEntry
	for _, e := range f.history {
		if filter.Mode == "" || e.Mode == filter.Mode {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSource) Streak(context.Context) (model.PracticeStreak, error) {
	return model.PracticeStreak{}, f.err
}

func newFakeSource() *fakeSource {
	end := time.Date(2025, 5, 1, 10, 0, 0, 0, time.Local)
	return &fakeSource{
		words: []model.Word{
			{ID: "1", Text: "laconic", ReviewCount: 4, CorrectCount: 1},
			{ID: "2", Text: "verbose", ReviewCount: 6, CorrectCount: 6, Streak: 6, Mastered: true},
		},
		history: []model.HistoryEntry{
			{ID: 1, Mode: model.ModeQuiz, EndedAt: end, Total: 4, Correct: 2, Wrong: 2, Accuracy: 50, DurationSecs: 40, WrongIDs: []string{"1"}},
			{ID: 2, Mode: model.ModeTyping, EndedAt: end.Add(time.Hour), Total: 4, Correct: 3, Wrong: 1, Accuracy: 75, DurationSecs: 50},
		},
	}
}

func newSizedModel(src stats.Source) *Model {
	m := NewModel(src, stats.ReportOptions{CurveWindow: 5, WeakDays: 7, ForecastDays: 3,
		Now: time.Date(2025, 5, 2, 10, 0, 0, 0, time.Local)})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestOverviewRendersCards(t *testing.T) {
	m := newSizedModel(newFakeSource())
	view := m.View()
	for _, want := range []string{"Overview", "History", "Weak Words", "Sessions", "Mastered", "window=5"} {
		assert.Contains(t, view, want)
	}
}

func TestTabsShowTables(t *testing.T) {
	m := newSizedModel(newFakeSource())
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, tabHistory, m.activeTab)
	view := m.View()
	assert.Contains(t, view, "typing")
	assert.Contains(t, view, "75%")

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Contains(t, m.View(), "laconic")
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabOverview, m.activeTab, "tabs wrap around")
}

func TestFilterAppliesMode(t *testing.T) {
	src := newFakeSource()
	m := newSizedModel(src)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, m.filterMode)
	m.filterInputs[0].SetValue("typing")
	m.filterInputs[2].SetValue("1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.filterMode)
	assert.Equal(t, model.ModeTyping, m.opts.Mode)
	assert.Equal(t, 1, m.opts.Last)
	require.NotEmpty(t, src.filters)
	assert.Equal(t, model.ModeTyping, src.filters[len(src.filters)-1].Mode, "mode is passed to the source")
	assert.Len(t, m.report.History, 1)
}

func TestFilterRejectsBadInput(t *testing.T) {
	m := newSizedModel(newFakeSource())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.filterInputs[0].SetValue("karaoke")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.filterMode, "form stays open")
	assert.NotEmpty(t, m.filterError)

	m.filterInputs[0].SetValue("")
	m.filterInputs[3].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.filterError, "curve window")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.filterMode, "esc closes the form")
}

func TestSourceErrorShown(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("database is locked")
	m := newSizedModel(src)
	assert.Contains(t, m.View(), "database is locked")
}

func TestHistoryRowsNewestFirst(t *testing.T) {
	rows := historyRows(newFakeSource().history)
	require.Len(t, rows, 2)
	assert.Equal(t, "typing", rows[0][1])
	assert.Equal(t, "quiz", rows[1][1])
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.next, nextCurveWindow(c.in), "next(%d)", c.in)
		assert.Equal(t, c.prev, prevCurveWindow(c.in), "prev(%d)", c.in)
	}
}
