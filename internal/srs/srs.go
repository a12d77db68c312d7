// Package srs implements a Leitner-style spaced repetition schedule.
package srs

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// Intervals maps a level to its review interval in days.
var Intervals = [model.MaxSRSLevel + 1]int{1, 3, 7, 14, 30, 60, 120}

// Quality is the learner's self-assessment of a review.
type Quality int

// Review qualities.
const (
	Forgot Quality = iota
	Hard
	Good
	Easy
)

func (q Quality) String() string {
	switch q {
	case Forgot:
		return "forgot"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// ParseQuality accepts a name or the 1-4 key used by the review screen.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forgot", "again", "1":
		return Forgot, nil
	case "hard", "2":
		return Hard, nil
	case "good", "3":
		return Good, nil
	case "easy", "4":
		return Easy, nil
	}
	return 0, fmt.Errorf("unknown review quality %q", s)
}

// Interval returns the interval for level, clamped to the table.
func Interval(level int) time.Duration {
	return time.Duration(Intervals[clamp(level)]) * 24 * time.Hour
}

// NextLevel applies a quality to a level.
func NextLevel(level int, q Quality) int {
	level = clamp(level)
	switch q {
	case Forgot:
		return 0
	case Hard:
		return clamp(level - 1)
	case Good:
		return clamp(level + 1)
	case Easy:
		return clamp(level + 2)
	}
	return level
}

// Review grades w and returns the delta to apply. Applying it bumps the
// review count, sets the last review time, moves the level, schedules the next
// review Intervals[level] days from now and sets mastery to level >= 6.
func Review(w model.Word, q Quality, now time.Time) model.Delta {
	level := NextLevel(w.SRSLevel, q)
	return model.Delta{
		WordID: w.ID,
		At:     now,
		SRS: &model.SRSChange{
			Level:      level,
			NextReview: now.AddDate(0, 0, Intervals[level]),
		},
	}
}

// IsDue reports whether w is due for review at now.
func IsDue(w model.Word, now time.Time) bool {
	return w.IsDue(now)
}

// Forecast counts words coming due on each of the next days calendar days,
// starting with today. Overdue and never-scheduled words count toward today.
func Forecast(words []model.Word, now time.Time, days int) []int {
	if days <= 0 {
		return nil
	}
	out := make([]int, days)
	today := civilDay(now)
	for _, w := range words {
		if !w.NextReview.After(now) {
			out[0]++
			continue
		}
		idx := int(civilDay(w.NextReview.In(now.Location())).Sub(today).Hours() / 24)
		if idx < days {
			out[idx]++
		}
	}
	return out
}

// civilDay maps t's local calendar date onto UTC midnight so that day
// differences are exact multiples of 24h regardless of DST.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level > model.MaxSRSLevel {
		return model.MaxSRSLevel
	}
	return level
}
