package export

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frameline/internal/canvas"
	"github.com/ivlev/frameline/internal/system"
)

// frameFunc receives the rendered canvas of frame i. The canvas goes back to
// the pool after it returns unless keep is set.
type frameFunc func(i int, rgba *image.RGBA) (keep bool, err error)

// renderFrames loads and renders frames concurrently. done is called under a
// lock with the running count of finished frames.
func renderFrames(ctx context.Context, frames []Frame, r *canvas.Renderer, workers int, fn frameFunc, done func(n, total int)) error {
	if workers <= 0 {
		workers = system.Workers()
	}
	frameBytes := int64(r.Width) * int64(r.Height) * 4

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(system.LoadLimit(workers, frameBytes))

	var (
		mu       sync.Mutex
		finished int
	)
	for i := range frames {
		f := frames[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := f.Image.Load(ctx)
			if err != nil {
				return &FrameLoadError{Index: i, Name: f.Image.Name(), Err: err}
			}

			rgba := r.Render(src)
			keep, err := fn(i, rgba)
			if !keep {
				canvas.Release(rgba)
			}
			if err != nil {
				return err
			}

			mu.Lock()
			finished++
			if done != nil {
				done(finished, len(frames))
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
