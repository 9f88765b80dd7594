package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.mp3", "b.wav", "c.txt"}
	for i, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		mod := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(p, mod, mod)
	}

	got, err := FindLatestAudio(dir)
	if err != nil {
		t.Fatalf("FindLatestAudio failed: %v", err)
	}
	if filepath.Base(got) != "b.wav" {
		t.Errorf("expected b.wav, got %s", got)
	}

	if _, err := FindLatestScene(dir); err == nil {
		t.Error("expected error when no scene files exist")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.500000\n", 12.5, false},
		{"0", 0, false},
		{"N/A", 0, true},
		{"-1", 0, true},
		{"nan", 0, true},
		{"inf", 0, true},
		{"-Inf", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPickEncoder(t *testing.T) {
	if got := pickEncoder(" V....D h264_nvenc  NVIDIA NVENC"); got != "h264_nvenc" {
		t.Errorf("got %s", got)
	}
	if got := pickEncoder(" V....D libx264"); got != "libx264" {
		t.Errorf("got %s", got)
	}
}

func TestLimitFor(t *testing.T) {
	frame := int64(1920 * 1080 * 4)
	if got := limitFor(8, frame, 1<<40); got != 8 {
		t.Errorf("plenty of memory: got %d, want 8", got)
	}
	if got := limitFor(8, frame, 0); got != 1 {
		t.Errorf("no memory: got %d, want 1", got)
	}
	// 4 frames worth of budget after the quarter and the x2 factor
	if got := limitFor(8, frame, uint64(frame)*32); got != 4 {
		t.Errorf("tight memory: got %d, want 4", got)
	}
}

func TestWorkersPositive(t *testing.T) {
	if Workers() < 1 {
		t.Error("Workers must be at least 1")
	}
}

func TestImagePoolReuse(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 4, 4)

	img := p.Get(rect)
	if img.Bounds() != rect {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	p.Put(img)
	p.Get(rect)

	stats := p.Stats()
	if stats.Gets != 2 {
		t.Errorf("Gets = %d, want 2", stats.Gets)
	}
	if stats.Allocs < 1 || stats.Allocs > 2 {
		t.Errorf("Allocs = %d, want 1 or 2", stats.Allocs)
	}

	// foreign sizes are dropped silently
	p.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	p.Put(nil)
}
