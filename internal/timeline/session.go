package timeline

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/clock"
	"github.com/ivlev/frameline/internal/source"
)

const subscriberKey = "timeline"

// Session owns the current Timeline and the selected slot, and follows an
// audio clock.
type Session struct {
	mu       sync.Mutex
	fps      int
	tl       *Timeline
	selected int
	playing  bool
	log      *zap.Logger
}

func NewSession(fps int, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{fps: fps, tl: Generate(0, fps), log: log}
}

// Generate builds the timeline for duration unless a slot already holds an
// image, in which case the current timeline is kept even if its length no
// longer matches duration.
func (s *Session) Generate(duration float64) *Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tl.HasContent() {
		if SlotCount(duration, s.fps) != s.tl.Len() {
			s.log.Warn("timeline kept with stale length",
				zap.Int("slots", s.tl.Len()),
				zap.Float64("duration", duration))
		}
		return s.tl
	}
	s.tl = Generate(duration, s.fps)
	s.selected = 0
	s.log.Debug("timeline generated", zap.Int("slots", s.tl.Len()), zap.Int("fps", s.fps))
	return s.tl
}

// Replace discards the current timeline for a new audio source.
func (s *Session) Replace(duration float64) *Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tl = Generate(duration, s.fps)
	s.selected = 0
	return s.tl
}

func (s *Session) Timeline() *Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl
}

func (s *Session) Select(t float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.tl.SelectSlotForTime(t)
	return s.selected
}

func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// AssignSelected puts img into the currently selected slot.
func (s *Session) AssignSelected(img source.Image) {
	s.mu.Lock()
	tl, id := s.tl, s.selected
	s.mu.Unlock()
	tl.AssignImage(id, img)
}

// Attach subscribes the session to src and returns the matching detach.
func (s *Session) Attach(src clock.Source) func() {
	src.Subscribe(subscriberKey, func(ev clock.Event) {
		switch ev.Type {
		case clock.EventReady:
			s.Generate(src.Duration())
		case clock.EventPlay:
			s.setPlaying(true)
		case clock.EventPause:
			s.setPlaying(false)
		case clock.EventFinish:
			s.setPlaying(false)
			s.Select(ev.Time)
		case clock.EventTimeUpdate, clock.EventSeek:
			s.Select(ev.Time)
		}
	})
	return func() { src.Unsubscribe(subscriberKey) }
}

func (s *Session) setPlaying(v bool) {
	s.mu.Lock()
	s.playing = v
	s.mu.Unlock()
}
