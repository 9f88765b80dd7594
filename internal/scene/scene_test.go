package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDistribute(t *testing.T) {
	d := NewDistributor(10)
	s, err := d.Distribute([]string{"a.png", "b.png", "c.png", "d.png"}, "song.mp3", 2.0)
	if err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	if s.Version != "1.0" || s.Audio != "song.mp3" || s.FPS != 10 {
		t.Errorf("unexpected header: %+v", s)
	}
	if len(s.Placements) != 4 {
		t.Fatalf("Expected 4 placements, got %d", len(s.Placements))
	}

	wantSlots := []int{0, 5, 10, 15}
	for i, p := range s.Placements {
		if p.Slot == nil || *p.Slot != wantSlots[i] {
			t.Errorf("placement %d: slot %v, want %d", i, p.Slot, wantSlots[i])
		}
		if p.Hold != 5 {
			t.Errorf("placement %d: hold %d, want 5", i, p.Hold)
		}
	}
}

func TestDistributeDropsOverflow(t *testing.T) {
	d := NewDistributor(4)
	d.MinDwell = 1.0

	// 1 second per input but only 2 seconds of audio
	s, err := d.Distribute([]string{"a", "b", "c"}, "x.wav", 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Placements) != 2 {
		t.Errorf("Expected 2 placements, got %d", len(s.Placements))
	}

	if _, err := d.Distribute(nil, "x.wav", 2); err == nil {
		t.Error("expected error for no inputs")
	}
	if _, err := d.Distribute([]string{"a"}, "x.wav", 0); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestSceneWriteRead(t *testing.T) {
	dir := t.TempDir()
	s := &Scene{
		Version: "1.0",
		Audio:   "audio/song.mp3",
		FPS:     12,
		Placements: []Placement{
			AtTime("intro.gif", 0.5),
			AtSlot("/abs/slides.pdf", 30),
		},
	}
	s.Placements[1].Hold = 3

	path := filepath.Join(dir, "scenes", "test.yaml")
	if err := Write(s, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Audio != filepath.Join(dir, "scenes", "audio", "song.mp3") {
		t.Errorf("audio not resolved: %s", got.Audio)
	}
	if got.Placements[0].Input != filepath.Join(dir, "scenes", "intro.gif") {
		t.Errorf("input not resolved: %s", got.Placements[0].Input)
	}
	if got.Placements[1].Input != "/abs/slides.pdf" {
		t.Errorf("absolute input changed: %s", got.Placements[1].Input)
	}
	if got.Placements[0].Time == nil || *got.Placements[0].Time != 0.5 {
		t.Errorf("time lost: %+v", got.Placements[0])
	}
	if got.Placements[1].Slot == nil || *got.Placements[1].Slot != 30 || got.Placements[1].Slots() != 3 {
		t.Errorf("slot lost: %+v", got.Placements[1])
	}
	if got.Placements[0].Slots() != 1 {
		t.Errorf("default hold should be 1")
	}

	inputs := got.Inputs()
	if len(inputs) != 3 || inputs[0] != got.Audio {
		t.Errorf("Inputs = %v", inputs)
	}
}

func TestValidate(t *testing.T) {
	tm, slot := 1.0, 2
	tests := []struct {
		name string
		s    Scene
		ok   bool
	}{
		{"valid", Scene{Audio: "a", Placements: []Placement{{Input: "x", Time: &tm}}}, true},
		{"no audio", Scene{}, false},
		{"both", Scene{Audio: "a", Placements: []Placement{{Input: "x", Time: &tm, Slot: &slot}}}, false},
		{"neither", Scene{Audio: "a", Placements: []Placement{{Input: "x"}}}, false},
		{"no input", Scene{Audio: "a", Placements: []Placement{{Slot: &slot}}}, false},
		{"negative fps", Scene{Audio: "a", FPS: -1}, false},
	}
	for _, tt := range tests {
		err := tt.s.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("version: \"1.0\"\nplacements:\n  - input: a.png\n"), 0644)
	if _, err := Read(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestGeneratePath(t *testing.T) {
	now := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	path := GeneratePath("scenes", now)
	if path != filepath.Join("scenes", "scene_2026-02-13_01-00-00.yaml") {
		t.Errorf("unexpected path %s", path)
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "scene_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "scene_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "scene_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		os.WriteFile(f, []byte("test"), 0644)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}

	latest, err := FindLatest(dir)
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}
	if !strings.HasSuffix(latest, filepath.Base(files[len(files)-1])) {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}
