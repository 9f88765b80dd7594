package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Format string

const (
	FormatGIF  Format = "gif"
	FormatPNG  Format = "png"
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
)

func (f Format) IsVideo() bool {
	return f == FormatMP4 || f == FormatWebM
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatGIF, FormatPNG, FormatMP4, FormatWebM:
		return f, nil
	}
	return "", &EncoderUnavailableError{Format: Format(s), Reason: "unknown format"}
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AudioTrack is the soundtrack the timeline was built against.
type AudioTrack struct {
	Path     string
	Duration float64
}

type Options struct {
	Format              Format
	Quality             int
	Resolution          Resolution
	IncludeAudio        bool
	UseEntireSoundtrack bool
	Audio               *AudioTrack
}

// Normalize forces the audio flags off where they carry no meaning.
func (o Options) Normalize() Options {
	if !o.Format.IsVideo() {
		o.IncludeAudio = false
	}
	if !o.IncludeAudio {
		o.UseEntireSoundtrack = false
	}
	return o
}

func (o Options) Validate() error {
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("quality must be in 1..100, got %d", o.Quality)
	}
	if o.Resolution.Width <= 0 || o.Resolution.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", o.Resolution.Width, o.Resolution.Height)
	}
	return nil
}

// Result is the encoded artifact of one export.
type Result struct {
	Data      []byte
	MimeType  string
	Extension string
}

// Filename is animation-<unix-millis>.<ext>, or animation-frames-<unix-millis>.zip
// for PNG sequences.
func (r *Result) Filename(now time.Time) string {
	ms := now.UnixMilli()
	if r.Extension == "zip" {
		return fmt.Sprintf("animation-frames-%d.zip", ms)
	}
	return fmt.Sprintf("animation-%d.%s", ms, r.Extension)
}

// Save writes the artifact into dir and returns its path.
func (r *Result) Save(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.Filename(now))
	if err := os.WriteFile(path, r.Data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
