// Package export turns a populated timeline into a single downloadable
// artifact: an animated GIF, a zip of PNG frames, or an mp4/webm video.
package export

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/timeline"
)

type State int

const (
	StateIdle State = iota
	StatePreparing
	StateEncoding
	StateFinalizing
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateEncoding:
		return "encoding"
	case StateFinalizing:
		return "finalizing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) busy() bool {
	return s == StatePreparing || s == StateEncoding || s == StateFinalizing
}

// Exporter runs one export at a time against a registry of backends.
type Exporter struct {
	registry *Registry
	log      *zap.Logger

	// OnState observes every transition, including the reset to Idle.
	OnState func(from, to State)

	mu    sync.Mutex
	state State
	err   error
}

func NewExporter(registry *Registry, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{registry: registry, log: log}
}

func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err is the failure of the last export, if it failed.
func (e *Exporter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Exporter) transition(to State) {
	e.mu.Lock()
	from := e.state
	e.state = to
	e.mu.Unlock()

	e.log.Debug("export state", zap.Stringer("from", from), zap.Stringer("to", to))
	if e.OnState != nil {
		e.OnState(from, to)
	}
}

func (e *Exporter) fail(err error) error {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.transition(StateFailed)
	e.log.Warn("export failed", zap.Error(err))
	return err
}

// Export encodes the populated slots of tl. progress receives non-decreasing
// percentages and ends at 100 on success.
func (e *Exporter) Export(ctx context.Context, tl *timeline.Timeline, opts Options, progress ProgressFunc) (*Result, error) {
	e.mu.Lock()
	if e.state.busy() {
		e.mu.Unlock()
		return nil, ErrExportInProgress
	}
	prev := e.state
	empty := tl == nil || !tl.HasContent()
	// claim the exporter before releasing the lock; without a populated slot
	// Preparing is never entered
	if empty {
		e.state = StateFailed
		e.err = ErrEmptyExport
	} else {
		e.state = StatePreparing
		e.err = nil
	}
	e.mu.Unlock()

	if prev != StateIdle && e.OnState != nil {
		e.OnState(prev, StateIdle)
	}
	if empty {
		e.log.Warn("export failed", zap.Error(ErrEmptyExport))
		if e.OnState != nil {
			e.OnState(StateIdle, StateFailed)
		}
		return nil, ErrEmptyExport
	}
	if e.OnState != nil {
		e.OnState(StateIdle, StatePreparing)
	}

	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, e.fail(err)
	}
	enc, err := e.registry.Lookup(opts.Format)
	if err != nil {
		return nil, e.fail(err)
	}

	frames := FramesFrom(tl)
	tr := newTracker(progress)
	tr.report(0)

	e.log.Info("export started",
		zap.String("format", string(opts.Format)),
		zap.Int("frames", len(frames)),
		zap.Int("fps", tl.FPS()),
		zap.Int("width", opts.Resolution.Width),
		zap.Int("height", opts.Resolution.Height),
		zap.Bool("audio", opts.IncludeAudio))

	e.transition(StateEncoding)
	res, err := enc.Encode(ctx, frames, tl.FPS(), opts, tr.report)
	if err != nil {
		return nil, e.fail(err)
	}

	e.transition(StateFinalizing)
	if res == nil || len(res.Data) == 0 {
		return nil, e.fail(&ResourceError{Op: "finalize", Err: errors.New("encoder returned an empty artifact")})
	}
	tr.report(100)

	e.transition(StateComplete)
	e.log.Info("export complete",
		zap.String("mime", res.MimeType),
		zap.Int("bytes", len(res.Data)))
	return res, nil
}

// Close refuses while an export is running.
func (e *Exporter) Close() error {
	if e.State().busy() {
		return ErrExportInProgress
	}
	return nil
}
