package clock

import "sync"

// Manual is a Source driven entirely by its caller. Tests use it as a fake
// transport; the CLI uses it when no playback is needed.
type Manual struct {
	hub

	mu       sync.Mutex
	duration float64
	current  float64
	playing  bool
}

func NewManual(duration float64) *Manual {
	return &Manual{duration: duration}
}

func (m *Manual) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manual) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Manual) Subscribe(key string, h Handler) { m.subscribe(key, h) }
func (m *Manual) Unsubscribe(key string)          { m.unsubscribe(key) }

// Ready announces that the audio is loaded and Duration is meaningful.
func (m *Manual) Ready() {
	m.emit(Event{Type: EventReady, Time: m.CurrentTime()})
}

func (m *Manual) Play() {
	m.mu.Lock()
	m.playing = true
	t := m.current
	m.mu.Unlock()
	m.emit(Event{Type: EventPlay, Time: t})
}

func (m *Manual) Pause() {
	m.mu.Lock()
	m.playing = false
	t := m.current
	m.mu.Unlock()
	m.emit(Event{Type: EventPause, Time: t})
}

func (m *Manual) Stop() {
	m.mu.Lock()
	m.playing = false
	m.current = 0
	m.mu.Unlock()
	m.emit(Event{Type: EventPause, Time: 0})
}

func (m *Manual) Seek(t float64) {
	m.mu.Lock()
	m.current = clamp(t, m.duration)
	t = m.current
	m.mu.Unlock()
	m.emit(Event{Type: EventSeek, Time: t})
}

// Advance moves the transport forward by dt seconds and emits timeUpdate, or
// finish once the end is reached.
func (m *Manual) Advance(dt float64) {
	m.mu.Lock()
	m.current = clamp(m.current+dt, m.duration)
	t := m.current
	done := t >= m.duration
	if done {
		m.playing = false
	}
	m.mu.Unlock()

	m.emit(Event{Type: EventTimeUpdate, Time: t})
	if done {
		m.emit(Event{Type: EventFinish, Time: t})
	}
}

func (m *Manual) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}
