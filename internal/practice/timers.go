package practice

import (
	"sync"
	"time"
)

// Token identifies one armed question. Zero is never valid.
type Token uint64

// Timers hands out cancellation tokens for scheduled work such as the
// auto-advance delay and the per-question countdown. Arming a new token
// invalidates the previous one, so callbacks scheduled for an old question
// become no-ops.
//
// Timers is safe for concurrent use; callbacks run on their own goroutines.
type Timers struct {
	mu      sync.Mutex
	seq     Token
	armed   bool
	pending []*time.Timer
}

// Arm invalidates the current token, stops its pending timers and returns a
// fresh token.
func (t *Timers) Arm() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.seq++
	t.armed = true
	return t.seq
}

// Valid reports whether tok is the current, uncancelled token.
func (t *Timers) Valid(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.validLocked(tok)
}

// Current returns the active token, zero when nothing is armed.
func (t *Timers) Current() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return 0
	}
	return t.seq
}

// Cancel invalidates the current token without issuing a new one.
func (t *Timers) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.armed = false
}

// AfterFunc runs fn after d if the token current at scheduling time is still
// current when the timer fires. It returns that token, or zero if nothing is
// armed and fn was not scheduled.
func (t *Timers) AfterFunc(d time.Duration, fn func(Token)) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return 0
	}
	tok := t.seq
	timer := time.AfterFunc(d, func() {
		if t.Valid(tok) {
			fn(tok)
		}
	})
	t.pending = append(t.pending, timer)
	return tok
}

func (t *Timers) validLocked(tok Token) bool {
	return t.armed && tok != 0 && tok == t.seq
}

func (t *Timers) stopLocked() {
	for _, timer := range t.pending {
		timer.Stop()
	}
	t.pending = nil
}
