package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/boundary"
	"github.com/ivlev/frameline/internal/canvas"
	"github.com/ivlev/frameline/internal/config"
	"github.com/ivlev/frameline/internal/export"
	"github.com/ivlev/frameline/internal/scene"
	"github.com/ivlev/frameline/internal/system"
	"github.com/ivlev/frameline/internal/timeline"
)

// Project собирает один артефакт: сцена -> таймлайн -> экспорт -> файл.
type Project struct {
	Config   *config.Config
	Exporter *export.Exporter
	Log      *zap.Logger
	Out      io.Writer

	// AudioDuration по умолчанию спрашивает ffprobe.
	AudioDuration func(ctx context.Context, path string) (float64, error)
	Now           func() time.Time
}

// Report описывает результат прогона.
type Report struct {
	Output    string
	Audio     string
	Duration  float64
	Slots     int
	Populated int
	Bytes     int

	Place  time.Duration
	Encode time.Duration
	Total  time.Duration
}

func NewProject(cfg *config.Config, ex *export.Exporter, log *zap.Logger) *Project {
	if log == nil {
		log = zap.NewNop()
	}
	return &Project{
		Config:        cfg,
		Exporter:      ex,
		Log:           log,
		Out:           os.Stdout,
		AudioDuration: system.GetAudioDuration,
		Now:           time.Now,
	}
}

// NewRegistry регистрирует бэкенды по выбранному движку. Видео всегда
// кодируется нативно.
func NewRegistry(cfg *config.Config, log *zap.Logger) (*export.Registry, error) {
	fit, err := canvas.ParseFit(cfg.Fit)
	if err != nil {
		return nil, err
	}
	reg := export.NewNativeRegistry(export.NativeOptions{
		Fit:          fit,
		Workers:      cfg.Workers,
		VideoEncoder: cfg.VideoEncoder,
		Realtime:     cfg.Realtime,
	}, log)

	if cfg.Engine == config.EngineInterpreted {
		boundary.Register(reg, boundary.Default())
	}
	return reg, nil
}

func (p *Project) printf(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}

// Load читает сцену и строит сессию с заполненным таймлайном.
func (p *Project) Load(ctx context.Context) (*scene.Scene, *timeline.Session, float64, error) {
	cfg := p.Config
	if cfg.ScenePath == "" {
		return nil, nil, 0, fmt.Errorf("сцена не задана")
	}
	sc, err := scene.Read(cfg.ScenePath)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("ошибка чтения сцены: %w", err)
	}
	if cfg.AudioPath != "" {
		sc.Audio = cfg.AudioPath
	}

	fps := cfg.FPS
	if sc.FPS > 0 {
		fps = sc.FPS
	}

	duration, err := p.AudioDuration(ctx, sc.Audio)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("не удалось определить длительность аудио %s: %w", sc.Audio, err)
	}

	session := timeline.NewSession(fps, p.Log)
	tl := session.Generate(duration)
	if err := Place(tl, sc.Placements, cfg.DPI, p.Log); err != nil {
		return nil, nil, 0, err
	}
	return sc, session, duration, nil
}

func (p *Project) Run(ctx context.Context) (*Report, error) {
	start := p.Now()
	cfg := p.Config

	sc, session, duration, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	tl := session.Timeline()
	placed := p.Now()

	rep := &Report{
		Audio:     sc.Audio,
		Duration:  duration,
		Slots:     tl.Len(),
		Populated: len(tl.Populated()),
		Place:     placed.Sub(start),
	}

	p.printf("--- [FRAMELINE] ---\n")
	p.printf("[*] Сцена: %s | Аудио: %s (%.2fs)\n", cfg.ScenePath, filepath.Base(sc.Audio), duration)
	p.printf("[*] Слотов: %d @ %d FPS | Заполнено: %d\n", rep.Slots, tl.FPS(), rep.Populated)
	p.printf("[*] Формат: %s | %dx%d | Качество: %d | Движок: %s\n", cfg.Format, cfg.Width, cfg.Height, cfg.Quality, cfg.Engine)
	p.printf("-------------------\n")

	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts := export.Options{
		Format:              format,
		Quality:             cfg.Quality,
		Resolution:          export.Resolution{Width: cfg.Width, Height: cfg.Height},
		IncludeAudio:        cfg.IncludeAudio,
		UseEntireSoundtrack: cfg.UseEntireSoundtrack,
		Audio:               &export.AudioTrack{Path: sc.Audio, Duration: duration},
	}

	step := -1
	res, err := p.Exporter.Export(ctx, tl, opts, func(percent float64) {
		if s := int(percent) / 10; s > step {
			step = s
			p.printf("[>] Экспорт: %d%%\n", int(percent))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка экспорта: %w", err)
	}
	encoded := p.Now()
	rep.Encode = encoded.Sub(placed)

	out := cfg.OutputPath
	if out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(out, res.Data, 0644); err != nil {
			return nil, err
		}
	} else {
		out, err = res.Save(cfg.OutputDir, encoded)
		if err != nil {
			return nil, err
		}
	}
	rep.Output = out
	rep.Bytes = len(res.Data)
	rep.Total = p.Now().Sub(start)

	p.printf("[+++] Успех! Файл сохранен: %s (%d байт)\n", out, rep.Bytes)
	if cfg.ShowStats {
		p.writeStats(rep)
	}
	return rep, nil
}

func (p *Project) writeStats(rep *Report) {
	cfg := p.Config
	fps := 0.0
	if rep.Encode > 0 {
		fps = float64(rep.Populated) / rep.Encode.Seconds()
	}
	pool := system.GlobalPoolStats()

	p.printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Total Time: %.2fs\n"+
		"Placement: %.2fs\n"+
		"Encoding: %.2fs\n"+
		"Effective FPS: %.2f\n"+
		"Canvas pool: %d gets / %d allocs\n"+
		"----------------------------\n",
		cfg.BuildVersion, rep.Total.Seconds(), rep.Place.Seconds(), rep.Encode.Seconds(), fps, pool.Gets, pool.Allocs)

	entry := fmt.Sprintf("[%s] Build: %s | Scene: %s | Format: %s | Frames: %d | Total: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		p.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(cfg.ScenePath),
		cfg.Format,
		rep.Populated,
		rep.Total.Seconds(),
		rep.Encode.Seconds(),
		fps,
	)

	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	os.MkdirAll(dir, 0755)
	f, err := os.OpenFile(filepath.Join(dir, "benchmark.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		p.printf("[!] Не удалось записать benchmark.log: %v\n", err)
		return
	}
	f.WriteString(entry)
	f.Close()
}
