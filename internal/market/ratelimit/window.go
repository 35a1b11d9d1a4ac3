// Package ratelimit implements per-provider sliding-window call accounting.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow counts calls inside a trailing time window and answers
// whether another call fits under the ceiling. State lives for the process
// lifetime only; a restart resets quotas optimistically.
//
// Callers must check Allow before issuing a request and Record once the
// attempt is actually made, success or not, so the count reflects true
// provider load.
type SlidingWindow struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	calls []time.Time
	now   func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{limit: limit, window: window, now: time.Now}
}

// Allow reports whether a fresh call fits under the ceiling. Timestamps
// older than the window are discarded on every check.
func (w *SlidingWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.calls) < w.limit
}

// Record appends the current timestamp. It deliberately does not check the
// ceiling: the decision was made by Allow, Record only accounts for it.
func (w *SlidingWindow) Record() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, w.now())
}

// Used returns the number of calls inside the current window.
func (w *SlidingWindow) Used() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.calls)
}

// Limit returns the configured ceiling.
func (w *SlidingWindow) Limit() int { return w.limit }

// Remaining returns how many calls are still permitted in the window.
func (w *SlidingWindow) Remaining() int {
	used := w.Used()
	if used >= w.limit {
		return 0
	}
	return w.limit - used
}

// prune drops timestamps older than the window. Caller holds w.mu.
func (w *SlidingWindow) prune() {
	cutoff := w.now().Add(-w.window)
	i := 0
	for i < len(w.calls) && !w.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.calls = append(w.calls[:0], w.calls[i:]...)
	}
}
