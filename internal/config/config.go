package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the CLI and the engine need. It is read from an
// optional YAML file and then overlaid with command line flags.
type Config struct {
	ScenePath  string `yaml:"scene"`
	AudioPath  string `yaml:"audio"`
	OutputDir  string `yaml:"output_dir"`
	OutputPath string `yaml:"output"`

	FPS                 int    `yaml:"fps"`
	Format              string `yaml:"format"`
	Quality             int    `yaml:"quality"`
	Width               int    `yaml:"width"`
	Height              int    `yaml:"height"`
	Fit                 string `yaml:"fit"`
	IncludeAudio        bool   `yaml:"include_audio"`
	UseEntireSoundtrack bool   `yaml:"use_entire_soundtrack"`

	// Engine selects the gif/png backend: "native" or "interpreted".
	Engine       string `yaml:"engine"`
	Workers      int    `yaml:"workers"`
	DPI          int    `yaml:"dpi"`
	VideoEncoder string `yaml:"video_encoder"`
	Realtime     bool   `yaml:"realtime"`

	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`
}

const (
	FormatGIF  = "gif"
	FormatPNG  = "png"
	FormatMP4  = "mp4"
	FormatWebM = "webm"
)

const (
	EngineNative      = "native"
	EngineInterpreted = "interpreted"
)

// Default returns the baseline configuration. Workers is left at zero so the
// caller can size it from the host.
func Default() *Config {
	return &Config{
		OutputDir: "output",
		FPS:       24,
		Format:    FormatGIF,
		Quality:   80,
		Width:     640,
		Height:    480,
		Fit:       "stretch",
		Engine:    EngineNative,
		DPI:       150,
	}
}

// Load reads a YAML config file on top of Default. A missing path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be in 1..100, got %d", c.Quality)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Width, c.Height)
	}
	switch c.Format {
	case FormatGIF, FormatPNG, FormatMP4, FormatWebM:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	switch c.Fit {
	case "stretch", "contain", "cover":
	default:
		return fmt.Errorf("unknown fit mode %q", c.Fit)
	}
	switch c.Engine {
	case EngineNative, EngineInterpreted:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	return nil
}

// IsVideo reports whether the configured format is muxed by the video backend.
func (c *Config) IsVideo() bool {
	return c.Format == FormatMP4 || c.Format == FormatWebM
}
