package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// HardestWords returns up to n reviewed words with the lowest accuracy.
// Ties go to the word reviewed more often, then alphabetically.
func HardestWords(words []model.Word, minReviews, n int) []model.Word {
	if n <= 0 || len(words) == 0 {
		return nil
	}
	items := make([]model.Word, 0, len(words))
	for _, w := range words {
		if w.ReviewCount > 0 && w.ReviewCount >= minReviews {
			items = append(items, w)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ai, aj := items[i].Accuracy(), items[j].Accuracy()
		if ai != aj {
			return ai < aj
		}
		if items[i].ReviewCount != items[j].ReviewCount {
			return items[i].ReviewCount > items[j].ReviewCount
		}
		return strings.ToLower(items[i].Text) < strings.ToLower(items[j].Text)
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// MostMissed counts wrong answers per word id across history, using the
// answer log when present.
func MostMissed(history []model.HistoryEntry, n int) []string {
	counts := map[string]int{}
	for _, e := range history {
		if len(e.Answers) > 0 {
			for _, a := range e.Answers {
				if !a.Correct && !a.Skipped {
					counts[a.WordID]++
				}
			}
			continue
		}
		for _, id := range e.WrongIDs {
			counts[id]++
		}
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && n < len(ids) {
		ids = ids[:n]
	}
	return ids
}
