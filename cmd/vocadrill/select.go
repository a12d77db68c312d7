package main

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/pool"
	"github.com/verte-zerg/vocadrill/internal/stats"
)

// selection describes which words a practice run uses.
type selection struct {
	SetID   string
	From    time.Time
	To      time.Time
	Include pool.Include
	Sort    pool.Order
	// KeepOrder keeps the weak or due ranking instead of Sort.
	KeepOrder bool
	Limit     int

	Weak      bool
	Due       bool
	WeakDays  int
	WeakLimit int
	Now       time.Time
}

// selectWords narrows all by set and date, then picks weak or due words,
// then applies the include flags, order and limit.
func selectWords(all []model.Word, history []model.HistoryEntry, sel selection, rnd *rand.Rand) []model.Word {
	words := all
	if sel.SetID != "" {
		words = pool.Select(words, pool.Config{
			Scope:   pool.Scope{Kind: pool.ScopeSet, SetID: sel.SetID},
			Include: pool.DefaultInclude(),
		}, rnd)
	}
	if !sel.From.IsZero() || !sel.To.IsZero() {
		words = pool.Select(words, pool.Config{
			Scope:   pool.Scope{Kind: pool.ScopeDateRange, From: sel.From, To: sel.To},
			Include: pool.DefaultInclude(),
		}, rnd)
	}

	scope := pool.Scope{Kind: pool.ScopeAll}
	switch {
	case sel.Weak:
		ranked := stats.WeakWords(words, history, stats.WeakOptions{
			Days:  sel.WeakDays,
			Limit: sel.WeakLimit,
			Now:   sel.Now,
		})
		scope = pool.Scope{Kind: pool.ScopeWords, WordIDs: wordIDs(ranked)}
	case sel.Due:
		scope = pool.Scope{Kind: pool.ScopeWords, WordIDs: wordIDs(pool.Due(words, sel.Now))}
	}

	order := sel.Sort
	if sel.KeepOrder {
		order = ""
	}
	return pool.Select(words, pool.Config{
		Scope:   scope,
		Include: sel.Include,
		Sort:    order,
		Limit:   sel.Limit,
	}, rnd)
}

func wordIDs(words []model.Word) []string {
	ids := make([]string, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	return ids
}
