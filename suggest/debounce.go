package suggest

import (
	"sync"
	"time"

	"github.com/iw2rmb/quire/transform"
)

// Range is a half-open document range.
type Range struct {
	From, To int
}

// Empty reports whether r covers no positions.
func (r Range) Empty() bool { return r.To <= r.From }

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	return Range{From: min(r.From, o.From), To: max(r.To, o.To)}
}

// Debouncer merges queued ranges and calls fire once no range has been
// queued for the delay. It is either idle, or pending with a merged range
// and a running timer.
type Debouncer struct {
	delay time.Duration
	fire  func()

	mu      sync.Mutex
	pending Range
	ok      bool
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns an idle debouncer. fire runs on its own goroutine.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Queue merges r into the pending range and restarts the timer.
func (d *Debouncer) Queue(r Range) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.ok {
		d.pending = d.pending.Union(r)
	} else {
		d.pending, d.ok = r, true
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Map remaps the pending range through m.
func (d *Debouncer) Map(m *transform.Mapping) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ok {
		return
	}
	from, to := m.Map(d.pending.From, -1), m.Map(d.pending.To, 1)
	d.pending = Range{From: from, To: max(from, to)}
}

// Pending returns the pending range.
func (d *Debouncer) Pending() (Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.ok
}

// Take returns the pending range and makes the debouncer idle.
func (d *Debouncer) Take() (Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.pending, d.ok
	d.pending, d.ok = Range{}, false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return r, ok
}

// Stop discards the pending range. Later Queue calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending, d.ok = Range{}, false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
