package stats

import (
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// Weak-word scoring weights.
const (
	recentWrongBoost   = 1000
	neverReviewedBoost = 200
	accuracyBoostMax   = 100
	recencyWindowHours = 48
	streakPenalty      = 10

	weakAccuracyBelow = 0.7
	minWeakResults    = 4
	maxRecentWrongIDs = 200
)

// WeakOptions configures weak-word ranking.
type WeakOptions struct {
	Days  int       // history window for recent failures
	Limit int       // results wanted; at least minWeakResults are returned
	Now   time.Time // zero means time.Now()
}

// RankedWord is a weak candidate with its urgency score.
type RankedWord struct {
	Word        model.Word
	Score       int
	RecentWrong bool
}

// RankWeakWords orders the words that need review, most urgent first.
// history may be in any order; it is scanned newest first.
func RankWeakWords(words []model.Word, history []model.HistoryEntry, opts WeakOptions) []RankedWord {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	recent := RecentWrongIDs(history, opts.Days, now)

	candidates := make([]RankedWord, 0, len(words))
	seen := map[string]struct{}{}
	for _, w := range words {
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}
		if !isWeak(w) {
			continue
		}
		_, wrong := recent[w.ID]
		candidates = append(candidates, RankedWord{
			Word:        w,
			Score:       weakScore(w, wrong, now),
			RecentWrong: wrong,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	top := opts.Limit
	if top < minWeakResults {
		top = minWeakResults
	}
	if top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// WeakWords is RankWeakWords without the scores.
func WeakWords(words []model.Word, history []model.HistoryEntry, opts WeakOptions) []model.Word {
	ranked := RankWeakWords(words, history, opts)
	out := make([]model.Word, len(ranked))
	for i, r := range ranked {
		out[i] = r.Word
	}
	return out
}

// RecentWrongIDs collects ids answered incorrectly (not skipped) in sessions
// that ended within the last days. Scanning stops at the first older entry.
func RecentWrongIDs(history []model.HistoryEntry, days int, now time.Time) map[string]struct{} {
	entries := make([]model.HistoryEntry, len(history))
	copy(entries, history)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].EndedAt.After(entries[j].EndedAt)
	})

	cutoff := now.AddDate(0, 0, -days)
	ids := map[string]struct{}{}
	for _, e := range entries {
		if e.EndedAt.Before(cutoff) {
			break
		}
		if len(e.Answers) > 0 {
			for _, a := range e.Answers {
				if !a.Correct && !a.Skipped {
					ids[a.WordID] = struct{}{}
				}
				if len(ids) >= maxRecentWrongIDs {
					return ids
				}
			}
			continue
		}
		for _, id := range e.WrongIDs {
			ids[id] = struct{}{}
			if len(ids) >= maxRecentWrongIDs {
				return ids
			}
		}
	}
	return ids
}

func isWeak(w model.Word) bool {
	return w.ReviewCount == 0 ||
		w.CorrectCount == 0 ||
		w.Accuracy() < weakAccuracyBelow ||
		w.Streak == 0
}

func weakScore(w model.Word, recentWrong bool, now time.Time) int {
	score := 0
	if recentWrong {
		score += recentWrongBoost
	}
	if w.ReviewCount == 0 {
		score += neverReviewedBoost
	}
	score += int(math.Round((1 - w.Accuracy()) * accuracyBoostMax))
	if !w.LastReviewed.IsZero() {
		hours := now.Sub(w.LastReviewed).Hours()
		if hours < 0 {
			hours = 0
		}
		score += int(math.Round(math.Max(0, recencyWindowHours-math.Min(recencyWindowHours, hours))))
	}
	if w.Streak > 0 {
		score -= streakPenalty
	}
	return score
}
