package scene

import (
	"fmt"
	"path/filepath"
)

// Scene describes which images land where on the timeline of one soundtrack
type Scene struct {
	Version    string      `yaml:"version"`
	Audio      string      `yaml:"audio"`
	FPS        int         `yaml:"fps,omitempty"`
	Placements []Placement `yaml:"placements"`
}

// Placement puts one input at a slot, given either as a slot id or as a time
// in seconds. GIF inputs are spread by their own duration, PDF inputs put one
// page per slot, stills fill Hold slots (1 if unset).
type Placement struct {
	Input string   `yaml:"input"`
	Time  *float64 `yaml:"time,omitempty"`
	Slot  *int     `yaml:"slot,omitempty"`
	Hold  int      `yaml:"hold,omitempty"`
}

func (p Placement) Slots() int {
	if p.Hold < 1 {
		return 1
	}
	return p.Hold
}

func (s *Scene) Validate() error {
	if s.Audio == "" {
		return fmt.Errorf("scene has no audio")
	}
	if s.FPS < 0 {
		return fmt.Errorf("fps must not be negative, got %d", s.FPS)
	}
	for i, p := range s.Placements {
		if p.Input == "" {
			return fmt.Errorf("placement %d: input is empty", i)
		}
		if (p.Time == nil) == (p.Slot == nil) {
			return fmt.Errorf("placement %d (%s): set exactly one of time or slot", i, p.Input)
		}
		if p.Time != nil && *p.Time < 0 {
			return fmt.Errorf("placement %d (%s): negative time", i, p.Input)
		}
		if p.Slot != nil && *p.Slot < 0 {
			return fmt.Errorf("placement %d (%s): negative slot", i, p.Input)
		}
		if p.Hold < 0 {
			return fmt.Errorf("placement %d (%s): negative hold", i, p.Input)
		}
	}
	return nil
}

// resolve makes relative paths relative to dir.
func (s *Scene) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	s.Audio = abs(s.Audio)
	for i := range s.Placements {
		s.Placements[i].Input = abs(s.Placements[i].Input)
	}
}

// Inputs lists every file the scene depends on, audio first.
func (s *Scene) Inputs() []string {
	out := []string{s.Audio}
	for _, p := range s.Placements {
		out = append(out, p.Input)
	}
	return out
}

func AtTime(input string, t float64) Placement {
	return Placement{Input: input, Time: &t}
}

func AtSlot(input string, slot int) Placement {
	return Placement{Input: input, Slot: &slot}
}
