package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/srs"
	"github.com/verte-zerg/vocadrill/internal/store"
)

// Source is the read side of the store used for reports.
type Source interface {
	ListWords(ctx context.Context, filter store.ListFilter) ([]model.Word, error)
	ListHistory(ctx context.Context, filter store.HistoryFilter) ([]model.HistoryEntry, error)
	Streak(ctx context.Context) (model.PracticeStreak, error)
}

// ReportOptions filters and sizes a report.
type ReportOptions struct {
	Mode         model.Mode
	Since        *time.Time
	Last         int
	CurveWindow  int
	WeakDays     int
	WeakLimit    int
	ForecastDays int
	Now          time.Time
}

// Report contains precomputed data for stats rendering.
type Report struct {
	History  []model.HistoryEntry
	Words    []model.Word
	Overview Overview
	Modes    []ModeStats
	Weak     []RankedWord
	Hardest  []model.Word
	Forecast []int
	Window   int
	Now      time.Time
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, opts ReportOptions) (Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	history, err := src.ListHistory(ctx, store.HistoryFilter{Mode: opts.Mode, Since: opts.Since})
	if err != nil {
		return Report{}, err
	}
	if opts.Last > 0 && len(history) > opts.Last {
		history = history[len(history)-opts.Last:]
	}
	words, err := src.ListWords(ctx, store.ListFilter{})
	if err != nil {
		return Report{}, err
	}
	streak, err := src.Streak(ctx)
	if err != nil {
		return Report{}, err
	}

	return Report{
		History:  history,
		Words:    words,
		Overview: Summarize(history, words, streak, now),
		Modes:    ByMode(history),
		Weak:     RankWeakWords(words, history, WeakOptions{Days: opts.WeakDays, Limit: opts.WeakLimit, Now: now}),
		Hardest:  HardestWords(words, 2, 10),
		Forecast: srs.Forecast(words, now, opts.ForecastDays),
		Window:   opts.CurveWindow,
		Now:      now,
	}, nil
}
