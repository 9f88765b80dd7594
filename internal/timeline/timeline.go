package timeline

import (
	"math"
	"sync"

	"github.com/ivlev/frameline/internal/source"
)

// FrameSlot is one discrete point on the timeline. ID and Time never change
// after creation; Image is nil while the slot is empty.
type FrameSlot struct {
	ID    int
	Time  float64
	Image source.Image
}

// Timeline is the ordered slot sequence for one audio source.
type Timeline struct {
	mu       sync.RWMutex
	fps      int
	duration float64
	slots    []FrameSlot
}

// SlotCount is ceil(duration*fps), zero for non-positive or non-finite input.
func SlotCount(duration float64, fps int) int {
	if !(duration > 0) || math.IsInf(duration, 0) || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration * float64(fps)))
}

// Generate builds ceil(duration*fps) empty slots with time = id/fps.
func Generate(duration float64, fps int) *Timeline {
	n := SlotCount(duration, fps)
	slots := make([]FrameSlot, n)
	for i := range slots {
		slots[i] = FrameSlot{ID: i, Time: float64(i) / float64(fps)}
	}
	return &Timeline{fps: fps, duration: duration, slots: slots}
}

func (t *Timeline) FPS() int          { return t.fps }
func (t *Timeline) Duration() float64 { return t.duration }

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}

func (t *Timeline) Slot(id int) (FrameSlot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || id >= len(t.slots) {
		return FrameSlot{}, false
	}
	return t.slots[id], true
}

// Slots returns a copy of every slot in order.
func (t *Timeline) Slots() []FrameSlot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]FrameSlot, len(t.slots))
	copy(out, t.slots)
	return out
}

// AssignImage replaces the image of one slot. Out-of-range ids are ignored.
func (t *Timeline) AssignImage(id int, img source.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.slots) {
		return
	}
	t.slots[id].Image = img
}

// SelectSlotForTime maps seconds to floor(sec*fps) clamped to the slot range.
func (t *Timeline) SelectSlotForTime(sec float64) int {
	t.mu.RLock()
	n := len(t.slots)
	t.mu.RUnlock()
	if n == 0 {
		return 0
	}

	id := int(math.Floor(sec * float64(t.fps)))
	if id < 0 {
		return 0
	}
	if id > n-1 {
		return n - 1
	}
	return id
}

// Populated returns the slots holding an image, in timeline order.
func (t *Timeline) Populated() []FrameSlot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []FrameSlot
	for _, s := range t.slots {
		if s.Image != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t *Timeline) HasContent() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.slots {
		if s.Image != nil {
			return true
		}
	}
	return false
}
