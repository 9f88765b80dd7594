// Package clock is the boundary to the audio transport. The core never decodes
// or plays audio itself; it only observes a Source that reports time and emits a
// fixed vocabulary of events.
package clock

import (
	"sort"
	"sync"
)

type EventType string

const (
	EventReady      EventType = "ready"
	EventPlay       EventType = "play"
	EventPause      EventType = "pause"
	EventFinish     EventType = "finish"
	EventTimeUpdate EventType = "timeUpdate"
	EventSeek       EventType = "seek"
)

// Event carries the transport time in seconds at the moment it fired.
type Event struct {
	Type EventType
	Time float64
}

type Handler func(Event)

// Source is an audio clock. Subscribe and Unsubscribe are idempotent: a second
// Subscribe with the same key replaces the handler, unsubscribing an unknown
// key does nothing.
type Source interface {
	CurrentTime() float64
	Duration() float64
	Play()
	Pause()
	Stop()
	Seek(t float64)
	Subscribe(key string, h Handler)
	Unsubscribe(key string)
}

// hub fans events out to subscribers in key order.
type hub struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

func (h *hub) subscribe(key string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[string]Handler)
	}
	h.handlers[key] = fn
}

func (h *hub) unsubscribe(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, key)
}

func (h *hub) emit(ev Event) {
	h.mu.Lock()
	keys := make([]string, 0, len(h.handlers))
	for k := range h.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fns := make([]Handler, 0, len(keys))
	for _, k := range keys {
		fns = append(fns, h.handlers[k])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func clamp(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}
