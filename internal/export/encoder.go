package export

import (
	"context"
	"sort"
	"sync"

	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/timeline"
)

// Frame is one populated slot handed to a backend.
type Frame struct {
	Time  float64
	Image source.Image
}

// FramesFrom collects the populated slots of tl in order.
func FramesFrom(tl *timeline.Timeline) []Frame {
	slots := tl.Populated()
	frames := make([]Frame, len(slots))
	for i, s := range slots {
		frames[i] = Frame{Time: s.Time, Image: s.Image}
	}
	return frames
}

// ProgressFunc receives percentages in [0,100].
type ProgressFunc func(percent float64)

// Encoder is a format backend. Implementations report progress through the
// callback and return a complete artifact or an error, never both.
type Encoder interface {
	Encode(ctx context.Context, frames []Frame, fps int, opts Options, progress ProgressFunc) (*Result, error)
}

// Registry maps formats to encoders. It is filled once at startup.
type Registry struct {
	mu       sync.RWMutex
	encoders map[Format]Encoder
}

func NewRegistry() *Registry {
	return &Registry{encoders: make(map[Format]Encoder)}
}

func (r *Registry) Register(f Format, e Encoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[f] = e
}

func (r *Registry) Lookup(f Format) (Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.encoders[f]
	if !ok {
		return nil, &EncoderUnavailableError{Format: f, Reason: "no encoder registered"}
	}
	return e, nil
}

func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.encoders))
	for f := range r.encoders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
