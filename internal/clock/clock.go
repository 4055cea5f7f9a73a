// Package clock provides the blocking delay used by the sequencer.
package clock

import (
	"sync"
	"time"
)

// Clock blocks the caller for a fixed duration. Delays are never cut short.
type Clock interface {
	Sleep(d time.Duration)
}

// Real sleeps on the wall clock.
type Real struct{}

// Sleep blocks for d.
func (Real) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Recorder returns immediately and records every requested delay.
type Recorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

// Sleep records d without blocking.
func (r *Recorder) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
}

// Sleeps returns a copy of the recorded delays in call order.
func (r *Recorder) Sleeps() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}

// Count returns how many recorded delays equal d.
func (r *Recorder) Count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

// Total returns the sum of all recorded delays.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, s := range r.sleeps {
		total += s
	}
	return total
}

// Reset forgets all recorded delays.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = nil
}
