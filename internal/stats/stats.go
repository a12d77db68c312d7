// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Overview aggregates practice history and the vocabulary state.
type Overview struct {
	Sessions     int
	Answered     int
	Correct      int
	Wrong        int
	Skipped      int
	AvgAccuracy  float64
	BestAccuracy int
	Practiced    time.Duration

	Words      int
	Mastered   int
	Bookmarked int
	Due        int
	Streak     int
}

// ModeStats summarises sessions of one practice mode.
type ModeStats struct {
	Mode     model.Mode
	Sessions int
	Answered int
	Accuracy float64
}

// Summarize builds an overview. Sessions with no answers do not affect the
// average accuracy.
func Summarize(history []model.HistoryEntry, words []model.Word, streak model.PracticeStreak, now time.Time) Overview {
	var o Overview
	var accSum float64
	accCount := 0
	for _, e := range history {
		o.Sessions++
		o.Correct += e.Correct
		o.Wrong += e.Wrong
		o.Skipped += e.Skipped
		o.Answered += e.Correct + e.Wrong + e.Skipped
		o.Practiced += time.Duration(e.DurationSecs) * time.Second
		if e.Total > 0 {
			accSum += float64(e.Accuracy)
			accCount++
		}
		if e.Accuracy > o.BestAccuracy {
			o.BestAccuracy = e.Accuracy
		}
	}
	if accCount > 0 {
		o.AvgAccuracy = accSum / float64(accCount)
	}
	for _, w := range words {
		o.Words++
		if w.Mastered {
			o.Mastered++
		}
		if w.Bookmarked {
			o.Bookmarked++
		}
		if w.IsDue(now) {
			o.Due++
		}
	}
	o.Streak = currentStreak(streak, now)
	return o
}

// currentStreak is zero once a full day has passed without practice.
func currentStreak(s model.PracticeStreak, now time.Time) int {
	if s.LastDay == "" {
		return 0
	}
	day := now.Format(model.DayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(model.DayLayout)
	if s.LastDay == day || s.LastDay == yesterday {
		return s.Days
	}
	return 0
}

// ByMode breaks history down per practice mode, in display order.
func ByMode(history []model.HistoryEntry) []ModeStats {
	stats := map[model.Mode]*ModeStats{}
	accSum := map[model.Mode]float64{}
	for _, e := range history {
		ms, ok := stats[e.Mode]
		if !ok {
			ms = &ModeStats{Mode: e.Mode}
			stats[e.Mode] = ms
		}
		ms.Sessions++
		ms.Answered += e.Correct + e.Wrong + e.Skipped
		accSum[e.Mode] += float64(e.Accuracy)
	}
	out := make([]ModeStats, 0, len(stats))
	for _, m := range model.Modes {
		ms, ok := stats[m]
		if !ok {
			continue
		}
		ms.Accuracy = accSum[m] / float64(ms.Sessions)
		out = append(out, *ms)
	}
	return out
}

// AccuracySeries returns session accuracies in history order.
func AccuracySeries(history []model.HistoryEntry) []float64 {
	out := make([]float64, len(history))
	for i, e := range history {
		out[i] = float64(e.Accuracy)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(min(i+1, window))
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the overview.
func RenderSummary(w io.Writer, o Overview) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Words: %d (mastered %d, bookmarked %d, due %d)", o.Words, o.Mastered, o.Bookmarked, o.Due),
		fmt.Sprintf("Sessions: %d", o.Sessions),
		fmt.Sprintf("Answered: %d (correct %d, wrong %d, skipped %d)", o.Answered, o.Correct, o.Wrong, o.Skipped),
		fmt.Sprintf("Avg Accuracy: %.1f%%", o.AvgAccuracy),
		fmt.Sprintf("Best Accuracy: %d%%", o.BestAccuracy),
		fmt.Sprintf("Time Practiced: %s", o.Practiced.Round(time.Second)),
		fmt.Sprintf("Day Streak: %d", o.Streak),
		"",
	}
	if o.Sessions == 0 {
		lines[2] = "No sessions found."
		lines = append(lines[:3], lines[7:]...)
	}
	return writeLines(w, lines)
}

// RenderModes prints the per-mode breakdown.
func RenderModes(w io.Writer, modes []ModeStats) error {
	if len(modes) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(modes))
	for _, m := range modes {
		rows = append(rows, []string{
			string(m.Mode),
			fmt.Sprintf("%d", m.Sessions),
			fmt.Sprintf("%d", m.Answered),
			fmt.Sprintf("%.1f%%", m.Accuracy),
		})
	}
	lines := append([]string{"By Mode"}, formatTable(
		[]string{"Mode", "Sessions", "Answered", "Accuracy"}, rows,
		map[int]bool{1: true, 2: true, 3: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderHistory prints one row per session, newest last.
func RenderHistory(w io.Writer, history []model.HistoryEntry) error {
	if len(history) == 0 {
		return writeLines(w, []string{"No sessions found."})
	}
	rows := make([][]string, 0, len(history))
	for _, e := range history {
		rows = append(rows, historyRow(e))
	}
	lines := append([]string{"History"}, formatTable(HistoryHeaders, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true})...)
	return writeLines(w, append(lines, ""))
}

// HistoryHeaders labels the columns produced for history rows.
var HistoryHeaders = []string{"Ended", "Mode", "Total", "Correct", "Wrong", "Skipped", "Accuracy", "Duration"}

func historyRow(e model.HistoryEntry) []string {
	return []string{
		e.EndedAt.Local().Format("2006-01-02 15:04"),
		string(e.Mode),
		fmt.Sprintf("%d", e.Total),
		fmt.Sprintf("%d", e.Correct),
		fmt.Sprintf("%d", e.Wrong),
		fmt.Sprintf("%d", e.Skipped),
		fmt.Sprintf("%d%%", e.Accuracy),
		(time.Duration(e.DurationSecs) * time.Second).String(),
	}
}

// HistoryRows renders entries for table widgets.
func HistoryRows(history []model.HistoryEntry) [][]string {
	rows := make([][]string, len(history))
	for i, e := range history {
		rows[i] = historyRow(e)
	}
	return rows
}

// RenderForecast prints due counts for the coming days with a sparkline.
func RenderForecast(w io.Writer, counts []int, now time.Time) error {
	if len(counts) == 0 {
		return nil
	}
	values := make([]float64, len(counts))
	rows := make([][]string, 0, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
		label := now.AddDate(0, 0, i).Format("Mon 01-02")
		if i == 0 {
			label = "today"
		}
		rows = append(rows, []string{label, fmt.Sprintf("%d", c)})
	}
	lines := []string{"Review Forecast " + Sparkline(values)}
	lines = append(lines, formatTable([]string{"Day", "Due"}, rows, map[int]bool{1: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderWeak prints ranked weak words.
func RenderWeak(w io.Writer, ranked []RankedWord) error {
	if len(ranked) == 0 {
		return writeLines(w, []string{"No weak words found.", ""})
	}
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		recent := ""
		if r.RecentWrong {
			recent = "yes"
		}
		rows = append(rows, []string{
			r.Word.Text,
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%.0f%%", r.Word.Accuracy()*100),
			fmt.Sprintf("%d", r.Word.ReviewCount),
			fmt.Sprintf("%d", r.Word.Streak),
			recent,
		})
	}
	lines := append([]string{"Weak Words"}, formatTable(
		[]string{"Word", "Score", "Accuracy", "Reviews", "Streak", "Missed"}, rows,
		map[int]bool{1: true, 2: true, 3: true, 4: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderCurves plots the moving-average accuracy across sessions.
func RenderCurves(w io.Writer, history []model.HistoryEntry, window, totalWidth, height int, useColor bool) error {
	if len(history) == 0 {
		return nil
	}
	acc := MovingAverage(AccuracySeries(history), window)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotPercent(w, "Accuracy Curve", []Series{{Name: "Accuracy", Values: acc}}, width, height, useColor)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
