// Package debounce provides a cancellable scheduled task that only fires
// after a quiet period with no newer schedule.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Task is run when the quiet period of the latest Schedule call elapses.
// The context is cancelled if the debouncer is stopped while the task runs.
type Task func(ctx context.Context, seq uint64)

// Debouncer schedules work so that only the last scheduled task fires.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	cancel  context.CancelFunc
	stopped bool
}

// New creates a Debouncer with the given quiet period.
func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Schedule cancels any pending task and schedules fn to run after the quiet
// period. It returns the sequence number assigned to this schedule; higher
// numbers were issued later.
func (d *Debouncer) Schedule(fn Task) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.stopped {
		return seq
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.fire(seq, fn)
	})
	return seq
}

func (d *Debouncer) fire(seq uint64, fn Task) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	defer cancel()
	fn(ctx, seq)
}

// Cancel drops the pending task, if any, without stopping the debouncer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Latest reports the sequence number of the most recent Schedule or Cancel.
func (d *Debouncer) Latest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// IsLatest reports whether seq is still the most recently issued schedule.
func (d *Debouncer) IsLatest(seq uint64) bool {
	return d.Latest() == seq
}

// Stop cancels the pending task and any task in flight. The debouncer
// ignores later schedules.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
}
