package clock

import (
	"sync"
	"time"
)

// Player is a wall-clock transport over an audio track of known duration. It
// emits timeUpdate every Interval while playing and finish at the end. It does
// not output sound.
type Player struct {
	hub

	Interval time.Duration

	mu        sync.Mutex
	duration  float64
	offset    float64
	startedAt time.Time
	playing   bool
	stop      chan struct{}
	done      chan struct{}
}

func NewPlayer(duration float64, interval time.Duration) *Player {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Player{duration: duration, Interval: interval}
}

func (p *Player) Subscribe(key string, h Handler) { p.subscribe(key, h) }
func (p *Player) Unsubscribe(key string)          { p.unsubscribe(key) }

func (p *Player) Duration() float64 {
	return p.duration
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() float64 {
	if !p.playing {
		return p.offset
	}
	return clamp(p.offset+time.Since(p.startedAt).Seconds(), p.duration)
}

// Ready emits the ready event. Callers invoke it once the duration is known.
func (p *Player) Ready() {
	p.emit(Event{Type: EventReady, Time: p.CurrentTime()})
}

func (p *Player) Play() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	if p.offset >= p.duration {
		p.offset = 0
	}
	p.playing = true
	p.startedAt = time.Now()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	t := p.offset
	p.mu.Unlock()

	p.emit(Event{Type: EventPlay, Time: t})
	go p.run(stop, done)
}

func (p *Player) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			t := p.positionLocked()
			finished := t >= p.duration
			if finished {
				p.offset = p.duration
				p.playing = false
			}
			p.mu.Unlock()

			p.emit(Event{Type: EventTimeUpdate, Time: t})
			if finished {
				p.emit(Event{Type: EventFinish, Time: t})
				return
			}
		}
	}
}

// halt stops the ticker goroutine and waits for it. The lock must not be held.
func (p *Player) halt() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	select {
	case <-done:
	default:
		close(stop)
		<-done
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	wasPlaying := p.playing
	p.offset = p.positionLocked()
	p.playing = false
	t := p.offset
	p.mu.Unlock()

	p.halt()
	if wasPlaying {
		p.emit(Event{Type: EventPause, Time: t})
	}
}

func (p *Player) Stop() {
	p.Pause()
	p.mu.Lock()
	p.offset = 0
	p.mu.Unlock()
}

func (p *Player) Seek(t float64) {
	p.mu.Lock()
	p.offset = clamp(t, p.duration)
	p.startedAt = time.Now()
	t = p.offset
	p.mu.Unlock()
	p.emit(Event{Type: EventSeek, Time: t})
}

// Wait blocks until the current playback run ends.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops playback and releases the ticker goroutine.
func (p *Player) Close() {
	p.Pause()
}
