// Package debounce delays propagation of a rapidly changing value until
// it has been quiet for a fixed interval.
package debounce

import (
	"sync"
	"time"
)

// chanBuffer coalesces to the latest value, so one slot is enough.
const chanBuffer = 1

// Debouncer emits the most recently observed value once no new value
// has arrived for the configured delay. Emission is trailing-edge only;
// there is no leading emission. Values are delivered one at a time, in
// observation order, on a dedicated goroutine. A stopped debouncer
// never emits again.
type Debouncer struct {
	delay time.Duration
	emit  func(string)
	ch    chan string

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// New returns a running debouncer that hands quiet values to emit.
func New(delay time.Duration, emit func(string)) *Debouncer {
	d := &Debouncer{
		delay: delay,
		emit:  emit,
		ch:    make(chan string, chanBuffer),
	}
	go d.deliver()
	return d
}

// Observe records a new value, cancelling any pending emission and
// scheduling a fresh one after the full delay. Observing an identical
// value still restarts the quiet period.
func (d *Debouncer) Observe(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, value) })
}

// fire queues value for delivery unless a newer observation superseded
// this timer while it was in flight.
func (d *Debouncer) fire(seq uint64, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || seq != d.seq {
		return
	}
	select {
	case d.ch <- value:
	default:
		// Drop the undelivered older value; only the latest matters.
		select {
		case <-d.ch:
		default:
		}
		d.ch <- value
	}
}

// deliver drains the queue serially so emissions keep observation order.
func (d *Debouncer) deliver() {
	for value := range d.ch {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if stopped {
			continue
		}
		d.emit(value)
	}
}

// Cancel drops any pending emission without stopping the debouncer;
// later Observe calls work as usual. An already-queued value may still
// deliver; callers that must suppress it re-check on receipt.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending emission and releases the timer. Further
// Observe calls become no-ops; the delivery goroutine exits.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	close(d.ch)
}
