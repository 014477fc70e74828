package catalog

import (
	"sync"
	"time"
)

// debouncer delays running a function by a fixed quiet interval; a new trigger
// supersedes any pending one. This is the search debounce of the original
// storefront, which waited 300ms after the last keystroke before filtering.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// trigger schedules fn after the quiet interval, cancelling any pending run.
// With a non-positive interval fn runs synchronously, which keeps tests
// deterministic.
func (d *debouncer) trigger(fn func()) {
	if d.interval <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}
