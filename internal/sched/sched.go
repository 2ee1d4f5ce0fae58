// internal/sched/sched.go
//
// Deferred and periodic callback delivery for the game engine.
// Responsibilities:
//   - Scheduler: the contract the engine schedules against (After / Every / Cancel).
//   - Timers: wall-clock implementation backed by time.AfterFunc and time.Ticker.
//
// Notes:
//   - Callbacks fire on timer goroutines; the consumer serializes them.
//   - Token 0 is never issued, so a zero Token is safe to Cancel.

package sched

import (
	"sync"
	"time"
)

// Token identifies a scheduled callback so it can be cancelled.
type Token uint64

// Scheduler delivers callbacks after a delay or on a fixed interval.
type Scheduler interface {
	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Token
	// Every runs fn every d until cancelled.
	Every(d time.Duration, fn func()) Token
	// Cancel stops a pending callback. Unknown or fired tokens are ignored.
	Cancel(t Token)
}

// Timers is the wall-clock Scheduler.
type Timers struct {
	mu     sync.Mutex
	next   Token
	active map[Token]func() // stop functions keyed by token
	closed bool
}

// NewTimers constructs an empty wall-clock scheduler.
func NewTimers() *Timers {
	return &Timers{active: make(map[Token]func())}
}

// After schedules fn once. Returns 0 if the scheduler was closed.
func (t *Timers) After(d time.Duration, fn func()) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	t.next++
	tok := t.next
	timer := time.AfterFunc(d, func() {
		// A cancelled token is gone from the map even if the timer already fired.
		if !t.take(tok) {
			return
		}
		fn()
	})
	t.active[tok] = func() { timer.Stop() }
	return tok
}

// Every schedules fn on a ticker. Returns 0 if the scheduler was closed.
func (t *Timers) Every(d time.Duration, fn func()) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	t.next++
	tok := t.next
	stop := make(chan struct{})
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	t.active[tok] = func() { close(stop) }
	return tok
}

// Cancel stops the callback behind tok.
func (t *Timers) Cancel(tok Token) {
	t.mu.Lock()
	stop, ok := t.active[tok]
	delete(t.active, tok)
	t.mu.Unlock()
	if ok {
		stop()
	}
}

// Pending reports how many callbacks are still scheduled.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Close cancels everything and rejects further scheduling.
func (t *Timers) Close() {
	t.mu.Lock()
	stops := make([]func(), 0, len(t.active))
	for tok, stop := range t.active {
		stops = append(stops, stop)
		delete(t.active, tok)
	}
	t.closed = true
	t.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// take removes a one-shot token, reporting whether it was still live.
func (t *Timers) take(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[tok]; !ok {
		return false
	}
	delete(t.active, tok)
	return true
}
