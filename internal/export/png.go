package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/ivlev/frameline/internal/canvas"
)

// PNGEncoder packs every frame as frame_NNNN.png into one zip archive.
type PNGEncoder struct {
	Fit     canvas.Fit
	Workers int
	// Now stamps archive entries; defaults to time.Now.
	Now func() time.Time
}

func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality >= 80:
		return png.BestCompression
	case quality >= 40:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

func (e *PNGEncoder) Encode(ctx context.Context, frames []Frame, fps int, opts Options, progress ProgressFunc) (*Result, error) {
	r := canvas.NewRenderer(opts.Resolution.Width, opts.Resolution.Height, e.Fit, opts.Quality)
	enc := &png.Encoder{CompressionLevel: pngLevel(opts.Quality)}

	encoded := make([][]byte, len(frames))
	err := renderFrames(ctx, frames, r, e.Workers, func(i int, rgba *image.RGBA) (bool, error) {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, rgba); err != nil {
			return false, &ResourceError{Op: fmt.Sprintf("encode frame %d", i), Err: err}
		}
		encoded[i] = buf.Bytes()
		return false, nil
	}, phase(progress, 0, 99))
	if err != nil {
		return nil, err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	stamp := now()

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for i, data := range encoded {
		// png is already deflated
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     fmt.Sprintf("frame_%04d.png", i),
			Method:   zip.Store,
			Modified: stamp,
		})
		if err != nil {
			return nil, &ResourceError{Op: "zip", Err: err}
		}
		if _, err := w.Write(data); err != nil {
			return nil, &ResourceError{Op: "zip", Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &ResourceError{Op: "zip", Err: err}
	}

	if progress != nil {
		progress(100)
	}
	return &Result{Data: out.Bytes(), MimeType: "application/zip", Extension: "zip"}, nil
}
