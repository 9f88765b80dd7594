// Package mapper spreads a decoded GIF over a run of timeline slots.
package mapper

import (
	"fmt"
	"math"

	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/timeline"
)

// Span is the slot range a GIF occupies once mapped.
type Span struct {
	Start     int
	SpanSlots int
	Available int
}

// Plan computes the affected range without touching the timeline.
func Plan(asset *source.GifAsset, tl *timeline.Timeline, start int) Span {
	spanSlots := int(math.Ceil(asset.TotalDurationSeconds() * float64(tl.FPS())))
	end := start + spanSlots
	if end > tl.Len() {
		end = tl.Len()
	}
	available := end - start
	if start < 0 || available < 0 {
		available = 0
	}
	return Span{Start: start, SpanSlots: spanSlots, Available: available}
}

// FrameIndex picks the GIF frame shown at offset i of an available-slot run:
// min(floor(i/available*frames), frames-1).
func FrameIndex(i, available, frames int) int {
	idx := int(math.Floor(float64(i) / float64(available) * float64(frames)))
	if idx > frames-1 {
		idx = frames - 1
	}
	return idx
}

// Apply assigns GIF frames to slots [start, min(start+spanSlots, len)). Slots
// outside that range are untouched; a drop at or past the end is a no-op.
func Apply(asset *source.GifAsset, tl *timeline.Timeline, start int) (*timeline.Timeline, Span) {
	span := Plan(asset, tl, start)
	if span.Available == 0 || len(asset.Frames) == 0 {
		return tl, span
	}

	// one shared reference per GIF frame, reused by every slot showing it
	refs := make([]source.Image, len(asset.Frames))
	for i, f := range asset.Frames {
		refs[i] = &source.Bitmap{Label: fmt.Sprintf("gif frame %d", i), Image: f}
	}

	for i := 0; i < span.Available; i++ {
		tl.AssignImage(start+i, refs[FrameIndex(i, span.Available, len(refs))])
	}
	return tl, span
}
