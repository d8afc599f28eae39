package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow is a per-key fixed-window counter. Each key gets up to limit
// allowances per window; a fresh window starts implicitly once the previous
// one has elapsed. Counters never carry over between windows.
type FixedWindow struct {
	mu sync.Mutex

	clock  Clock
	limit  int
	window time.Duration

	counters map[string]*windowCounter
}

type windowCounter struct {
	start time.Time
	count int
}

func NewFixedWindow(clock Clock, limit int, window time.Duration) *FixedWindow {
	if clock == nil {
		clock = RealClock{}
	}
	if limit < 0 {
		limit = 0
	}
	return &FixedWindow{
		clock:    clock,
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

// Allow consumes one allowance for key. It returns false once the key has
// exhausted its limit within the current window.
//
// A limit or window of zero disables limiting entirely.
func (w *FixedWindow) Allow(key string) bool {
	if w.limit == 0 || w.window <= 0 {
		return true
	}

	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.counters[key]
	if !ok || now.Sub(c.start) >= w.window {
		w.counters[key] = &windowCounter{start: now, count: 1}
		return true
	}

	if c.count >= w.limit {
		return false
	}
	c.count++
	return true
}

// Forget drops the counter for key. Called when a sender disconnects so the
// map does not grow with dead keys.
func (w *FixedWindow) Forget(key string) {
	w.mu.Lock()
	delete(w.counters, key)
	w.mu.Unlock()
}

// Reset clears all counters. Test isolation hook.
func (w *FixedWindow) Reset() {
	w.mu.Lock()
	w.counters = make(map[string]*windowCounter)
	w.mu.Unlock()
}
