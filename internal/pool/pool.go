// Package pool selects the words that take part in a practice session.
package pool

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// ScopeKind names how a scope restricts the word collection.
type ScopeKind string

// Scope kinds.
const (
	ScopeAll       ScopeKind = "all"
	ScopeSet       ScopeKind = "set"
	ScopeDateRange ScopeKind = "date"
	ScopeWords     ScopeKind = "words"
)

// Scope restricts the candidate words. From and To bound CreatedAt
// inclusively; a zero bound is open.
type Scope struct {
	Kind    ScopeKind
	SetID   string
	From    time.Time
	To      time.Time
	WordIDs []string
}

// Include enables word categories. A word passes if it matches any enabled
// category; the categories overlap.
type Include struct {
	Unmarked   bool
	Mastered   bool
	Learning   bool
	Bookmarked bool
}

// DefaultInclude enables every category.
func DefaultInclude() Include {
	return Include{Unmarked: true, Mastered: true, Learning: true, Bookmarked: true}
}

// Order is a sort order for the selected words.
type Order string

// Sort orders.
const (
	OrderRandom    Order = "random"
	OrderNewest    Order = "newest"
	OrderOldest    Order = "oldest"
	OrderAlphaAsc  Order = "az"
	OrderAlphaDesc Order = "za"
)

// ParseOrder validates a sort order name.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderRandom, OrderNewest, OrderOldest, OrderAlphaAsc, OrderAlphaDesc:
		return o, nil
	case "":
		return OrderRandom, nil
	}
	return "", fmt.Errorf("unknown sort %q (want random, newest, oldest, az or za)", s)
}

// Config describes a selection.
type Config struct {
	Scope   Scope
	Include Include
	Sort    Order
	Limit   int // 0 = unlimited
}

// DefaultConfig selects every word in random order.
func DefaultConfig() Config {
	return Config{Scope: Scope{Kind: ScopeAll}, Include: DefaultInclude(), Sort: OrderRandom}
}

// Select filters by scope, then by include flags, then sorts, then limits.
// The input slice is not modified.
func Select(words []model.Word, cfg Config, rnd *rand.Rand) []model.Word {
	out := filterScope(words, cfg.Scope)
	out = filterInclude(out, cfg.Include)
	sortWords(out, cfg.Sort, rnd)
	if cfg.Limit > 0 && len(out) > cfg.Limit {
		out = out[:cfg.Limit]
	}
	return out
}

func filterScope(words []model.Word, scope Scope) []model.Word {
	out := make([]model.Word, 0, len(words))
	switch scope.Kind {
	case ScopeSet:
		for _, w := range words {
			if w.SetID == scope.SetID {
				out = append(out, w)
			}
		}
	case ScopeDateRange:
		for _, w := range words {
			if !scope.From.IsZero() && w.CreatedAt.Before(scope.From) {
				continue
			}
			if !scope.To.IsZero() && w.CreatedAt.After(scope.To) {
				continue
			}
			out = append(out, w)
		}
	case ScopeWords:
		byID := make(map[string]model.Word, len(words))
		for _, w := range words {
			byID[w.ID] = w
		}
		seen := map[string]struct{}{}
		for _, id := range scope.WordIDs {
			w, ok := byID[id]
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, w)
		}
	default:
		out = append(out, words...)
	}
	return out
}

func filterInclude(words []model.Word, inc Include) []model.Word {
	out := words[:0]
	for _, w := range words {
		if included(w, inc) {
			out = append(out, w)
		}
	}
	return out
}

func included(w model.Word, inc Include) bool {
	switch {
	case inc.Unmarked && !w.Mastered && !w.Bookmarked:
		return true
	case inc.Mastered && w.Mastered:
		return true
	case inc.Learning && !w.Mastered:
		return true
	case inc.Bookmarked && w.Bookmarked:
		return true
	}
	return false
}

func sortWords(words []model.Word, order Order, rnd *rand.Rand) {
	switch order {
	case OrderNewest:
		sort.SliceStable(words, func(i, j int) bool {
			return words[i].CreatedAt.After(words[j].CreatedAt)
		})
	case OrderOldest:
		sort.SliceStable(words, func(i, j int) bool {
			return words[i].CreatedAt.Before(words[j].CreatedAt)
		})
	case OrderAlphaAsc:
		sort.SliceStable(words, func(i, j int) bool {
			return strings.ToLower(words[i].Text) < strings.ToLower(words[j].Text)
		})
	case OrderAlphaDesc:
		sort.SliceStable(words, func(i, j int) bool {
			return strings.ToLower(words[i].Text) > strings.ToLower(words[j].Text)
		})
	case OrderRandom:
		Shuffle(words, rnd)
	}
}

// Shuffle permutes words in place with Fisher-Yates. A nil rnd uses a
// time-seeded source.
func Shuffle(words []model.Word, rnd *rand.Rand) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}

// Due returns the words due at now, most overdue first. Never-scheduled words
// sort ahead of everything else.
func Due(words []model.Word, now time.Time) []model.Word {
	var out []model.Word
	for _, w := range words {
		if w.IsDue(now) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextReview.Before(out[j].NextReview)
	})
	return out
}
