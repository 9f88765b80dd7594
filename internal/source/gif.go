package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"os"
)

// GifAsset is a GIF flattened into fully composited frames.
type GifAsset struct {
	Frames   []image.Image
	DelaysMs []int
	Width    int
	Height   int
}

// TotalDurationSeconds is the sum of all frame delays.
func (a *GifAsset) TotalDurationSeconds() float64 {
	total := 0
	for _, d := range a.DelaysMs {
		total += d
	}
	return float64(total) / 1000.0
}

// DecodeGIFFile reads and decodes a GIF from disk.
func DecodeGIFFile(path string) (*GifAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	asset, err := DecodeGIF(bytes.NewReader(data))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Source = path
		}
		return nil, err
	}
	return asset, nil
}

// DecodeGIF composites every sub-frame onto a logical-screen sized canvas.
//
// Before frame i is drawn the disposal method of frame i-1 is applied:
// restore-to-background clears the whole canvas, restore-to-previous puts back
// the canvas captured right before frame i-1 was drawn, anything else leaves
// the canvas alone. The first frame starts from a cleared canvas.
func DecodeGIF(r io.Reader) (*GifAsset, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, &DecodeError{Source: "gif", Err: err}
	}
	if len(g.Image) == 0 {
		return nil, &DecodeError{Source: "gif", Err: errors.New("no frames")}
	}

	width, height := g.Config.Width, g.Config.Height
	if width <= 0 || height <= 0 {
		return nil, &DecodeError{Source: "gif", Err: errors.New("missing logical screen size")}
	}
	screen := image.Rect(0, 0, width, height)

	canvas := image.NewRGBA(screen)
	var beforePrevious *image.RGBA
	var previousDisposal byte

	asset := &GifAsset{
		Frames:   make([]image.Image, 0, len(g.Image)),
		DelaysMs: make([]int, 0, len(g.Image)),
		Width:    width,
		Height:   height,
	}

	for i, patch := range g.Image {
		if patch == nil || patch.Bounds().Empty() || !patch.Bounds().In(screen) {
			return nil, &DecodeError{Source: "gif", Err: fmt.Errorf("frame %d: patch outside logical screen", i)}
		}

		if i > 0 {
			switch previousDisposal {
			case gif.DisposalBackground:
				clear(canvas.Pix)
			case gif.DisposalPrevious:
				if beforePrevious != nil {
					copy(canvas.Pix, beforePrevious.Pix)
				}
			}
		}

		snapshot := cloneRGBA(canvas)
		draw.Draw(canvas, patch.Bounds(), patch, patch.Bounds().Min, draw.Over)
		asset.Frames = append(asset.Frames, cloneRGBA(canvas))

		delay := 0
		if i < len(g.Delay) {
			// GIF delays are in hundredths of a second
			delay = g.Delay[i] * 10
		}
		asset.DelaysMs = append(asset.DelaysMs, delay)

		beforePrevious = snapshot
		previousDisposal = 0
		if i < len(g.Disposal) {
			previousDisposal = g.Disposal[i]
		}
	}

	return asset, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
