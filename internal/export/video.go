package export

import (
	"context"
	"errors"
	"image"
	"os"

	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/canvas"
	"github.com/ivlev/frameline/internal/system"
	"github.com/ivlev/frameline/internal/video"
)

type videoSink interface {
	WriteFrame(img image.Image) error
	Close() error
	Abort()
}

// VideoEncoder streams frames through one ffmpeg process into mp4 or webm.
// Frames are loaded one at a time so memory stays flat for long timelines.
type VideoEncoder struct {
	Fit canvas.Fit
	// Encoder overrides the H.264 encoder; empty means probe the host.
	Encoder string
	// Realtime paces frames at the timeline rate, like a live capture.
	Realtime bool
	Log      *zap.Logger

	start func(ctx context.Context, p video.Params) (videoSink, error)
}

func startFFmpeg(ctx context.Context, p video.Params) (videoSink, error) {
	proc, err := video.Start(ctx, p)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func (e *VideoEncoder) Encode(ctx context.Context, frames []Frame, fps int, opts Options, progress ProgressFunc) (*Result, error) {
	start := e.start
	if start == nil {
		if !system.FFmpegAvailable() {
			return nil, &EncoderUnavailableError{Format: opts.Format, Backend: "native", Reason: "ffmpeg not found in PATH"}
		}
		start = startFFmpeg
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	container := string(opts.Format)
	p := video.Params{
		Width:     opts.Resolution.Width,
		Height:    opts.Resolution.Height,
		FPS:       fps,
		Container: container,
		Encoder:   e.Encoder,
		Quality:   opts.Quality,
	}
	if opts.Format == FormatMP4 && p.Encoder == "" {
		p.Encoder = system.GetBestH264Encoder(ctx)
	}

	var audioDuration float64
	if opts.IncludeAudio {
		if opts.Audio == nil || opts.Audio.Path == "" {
			return nil, &ResourceError{Op: "mux audio", Err: errors.New("no audio track loaded")}
		}
		p.AudioPath = opts.Audio.Path
		p.FullAudio = opts.UseEntireSoundtrack
		audioDuration = opts.Audio.Duration
	}
	total := video.FrameCount(len(frames), fps, audioDuration, p.FullAudio)
	p.Frames = total

	tmp, err := os.CreateTemp("", "frameline-*."+container)
	if err != nil {
		return nil, &ResourceError{Op: "create temp file", Err: err}
	}
	tmp.Close()
	p.Output = tmp.Name()
	defer os.Remove(p.Output)

	log.Debug("starting video encode",
		zap.String("container", container),
		zap.String("encoder", p.Encoder),
		zap.Int("frames", len(frames)),
		zap.Int("stream_frames", total),
		zap.Bool("audio", p.AudioPath != ""))

	sink, err := start(ctx, p)
	if err != nil {
		return nil, &ResourceError{Op: "start encoder", Err: err}
	}

	r := canvas.NewRenderer(p.Width, p.Height, e.Fit, opts.Quality)
	frame := system.GetImage(image.Rect(0, 0, p.Width, p.Height))
	defer canvas.Release(frame)
	clear(frame.Pix)

	report := phase(progress, 0, 99)
	pacer := video.NewPacer(fps, e.Realtime)
	pacer.Start()
	for k := 0; k < total; k++ {
		// past the last frame the canvas keeps showing it
		if k < len(frames) {
			src, err := frames[k].Image.Load(ctx)
			if err != nil {
				sink.Abort()
				return nil, &FrameLoadError{Index: k, Name: frames[k].Image.Name(), Err: err}
			}
			r.RenderInto(frame, src)
		}
		if err := pacer.Wait(ctx, k); err != nil {
			sink.Abort()
			return nil, err
		}
		if err := sink.WriteFrame(frame); err != nil {
			sink.Abort()
			return nil, &ResourceError{Op: "write frame", Err: err}
		}
		report(k+1, total)
	}

	if err := sink.Close(); err != nil {
		return nil, &ResourceError{Op: "finish video", Err: err}
	}
	data, err := os.ReadFile(p.Output)
	if err != nil {
		return nil, &ResourceError{Op: "read video", Err: err}
	}
	if len(data) == 0 {
		return nil, &ResourceError{Op: "read video", Err: errors.New("encoder produced no data")}
	}

	if progress != nil {
		progress(100)
	}
	return &Result{Data: data, MimeType: "video/" + container, Extension: container}, nil
}
