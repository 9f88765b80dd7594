// Package scene reads, writes and generates YAML scene files.
package scene

import (
	"fmt"
	"math"
)

// Distributor spreads a list of inputs evenly across a soundtrack.
type Distributor struct {
	FPS      int
	MinDwell float64 // Minimum time per input (seconds)
	MaxDwell float64 // Maximum time per input (seconds), 0 means no cap
}

func NewDistributor(fps int) *Distributor {
	return &Distributor{FPS: fps, MinDwell: 1.0 / float64(max(fps, 1))}
}

// Distribute gives each input an equal dwell time starting at 0. Inputs that
// would start at or after the end of the audio are dropped.
func (d *Distributor) Distribute(inputs []string, audio string, duration float64) (*Scene, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to distribute")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("audio duration must be positive, got %f", duration)
	}

	dwell := d.dwellTime(duration, len(inputs))
	hold := max(1, int(math.Floor(dwell*float64(d.FPS)+1e-9)))

	s := &Scene{Version: "1.0", Audio: audio, FPS: d.FPS}
	for i, in := range inputs {
		slot := int(math.Floor(float64(i)*dwell*float64(d.FPS) + 1e-9))
		if float64(slot) >= duration*float64(d.FPS) {
			break
		}
		p := AtSlot(in, slot)
		p.Hold = hold
		s.Placements = append(s.Placements, p)
	}
	return s, nil
}

// dwellTime determines how long to show each input
func (d *Distributor) dwellTime(duration float64, count int) float64 {
	dwell := duration / float64(count)
	if dwell < d.MinDwell {
		dwell = d.MinDwell
	}
	if d.MaxDwell > 0 && dwell > d.MaxDwell {
		dwell = d.MaxDwell
	}
	return dwell
}
