package export

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frameline/internal/canvas"
	"github.com/ivlev/frameline/internal/system"
)

// GIFEncoder renders all frames, then palettes and encodes them into one
// looping animation. Loading covers 0-50% of progress, encoding 50-100%.
type GIFEncoder struct {
	Fit     canvas.Fit
	Workers int
}

// gifDelay converts 1000/fps milliseconds into GIF hundredths of a second.
func gifDelay(fps int) int {
	if fps <= 0 {
		return 100
	}
	return max(1, int(math.Round(100/float64(fps))))
}

func (e *GIFEncoder) Encode(ctx context.Context, frames []Frame, fps int, opts Options, progress ProgressFunc) (*Result, error) {
	r := canvas.NewRenderer(opts.Resolution.Width, opts.Resolution.Height, e.Fit, opts.Quality)

	rendered := make([]*image.RGBA, len(frames))
	release := func() {
		for i, img := range rendered {
			if img != nil {
				canvas.Release(img)
				rendered[i] = nil
			}
		}
	}
	defer release()

	err := renderFrames(ctx, frames, r, e.Workers, func(i int, rgba *image.RGBA) (bool, error) {
		rendered[i] = rgba
		return true, nil
	}, phase(progress, 0, 50))
	if err != nil {
		return nil, err
	}

	pal := buildPalette(rendered, paletteSize(opts.Quality))
	var drawer draw.Drawer = draw.Src
	if opts.Quality >= 50 {
		drawer = draw.FloydSteinberg
	}

	workers := e.Workers
	if workers <= 0 {
		workers = system.Workers()
	}
	out := make([]*image.Paletted, len(rendered))
	report := phase(progress, 50, 99)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rendered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := rendered[i].Bounds()
			pm := image.NewPaletted(b, pal)
			drawer.Draw(pm, b, rendered[i], b.Min)
			out[i] = pm

			mu.Lock()
			done++
			report(done, len(rendered))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	release()

	anim := &gif.GIF{
		Image:     out,
		Delay:     make([]int, len(out)),
		Disposal:  make([]byte, len(out)),
		LoopCount: 0,
		Config: image.Config{
			ColorModel: pal,
			Width:      opts.Resolution.Width,
			Height:     opts.Resolution.Height,
		},
	}
	delay := gifDelay(fps)
	for i := range out {
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalBackground
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &ResourceError{Op: "encode gif", Err: err}
	}
	if progress != nil {
		progress(100)
	}
	return &Result{Data: buf.Bytes(), MimeType: "image/gif", Extension: "gif"}, nil
}
