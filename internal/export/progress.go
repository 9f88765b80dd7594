package export

import "sync"

// tracker forwards only non-decreasing values clamped to [0,100].
type tracker struct {
	mu   sync.Mutex
	last float64
	seen bool
	sink ProgressFunc
}

func newTracker(sink ProgressFunc) *tracker {
	return &tracker{sink: sink}
}

func (t *tracker) report(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seen && v <= t.last {
		return
	}
	t.last, t.seen = v, true
	if t.sink != nil {
		t.sink(v)
	}
}

func (t *tracker) value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// phase maps a 0..1 fraction onto [lo, hi].
func phase(progress ProgressFunc, lo, hi float64) func(done, total int) {
	return func(done, total int) {
		if progress == nil || total <= 0 {
			return
		}
		progress(lo + (hi-lo)*float64(done)/float64(total))
	}
}
