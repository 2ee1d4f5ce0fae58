package sched

import (
	"sync"
	"time"
)

// Manual is a virtual-clock Scheduler. Nothing fires until Advance is called,
// which makes timing-dependent engine behavior deterministic in tests.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	next  Token
	seq   uint64
	tasks map[Token]*task
}

type task struct {
	at    time.Duration
	every time.Duration // zero for one-shot tasks
	seq   uint64        // FIFO order among tasks due at the same instant
	fn    func()
}

// NewManual returns a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{tasks: make(map[Token]*task)}
}

func (m *Manual) After(d time.Duration, fn func()) Token {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Token {
	return m.add(d, d, fn)
}

func (m *Manual) Cancel(tok Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, tok)
}

// Now returns the virtual time elapsed since construction.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the virtual clock forward by d, running every callback that
// comes due in time order. Callbacks may schedule or cancel further work;
// anything that becomes due before the new time also runs.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		tok, t := m.earliest(target)
		if t == nil {
			break
		}
		m.now = t.at
		if t.every > 0 {
			t.at += t.every
			m.seq++
			t.seq = m.seq
		} else {
			delete(m.tasks, tok)
		}
		fn := t.fn
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) add(d, every time.Duration, fn func()) Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.seq++
	m.tasks[m.next] = &task{at: m.now + d, every: every, seq: m.seq, fn: fn}
	return m.next
}

// earliest returns the first task due at or before limit. Caller holds mu.
func (m *Manual) earliest(limit time.Duration) (Token, *task) {
	var (
		bestTok Token
		best    *task
	)
	for tok, t := range m.tasks {
		if t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			bestTok, best = tok, t
		}
	}
	return bestTok, best
}
