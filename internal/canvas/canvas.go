// Package canvas draws source stills onto fixed-size output frames.
package canvas

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/frameline/internal/system"
)

type Fit string

const (
	// FitStretch fills the whole canvas, ignoring aspect ratio.
	FitStretch Fit = "stretch"
	// FitContain letterboxes the image, centered.
	FitContain Fit = "contain"
	// FitCover fills the canvas and crops the overflow, centered.
	FitCover Fit = "cover"
)

func ParseFit(s string) (Fit, error) {
	switch Fit(s) {
	case FitStretch, FitContain, FitCover:
		return Fit(s), nil
	case "":
		return FitStretch, nil
	}
	return "", fmt.Errorf("unknown fit mode %q", s)
}

// ScalerFor picks the resampling kernel for a 1..100 quality setting.
func ScalerFor(quality int) draw.Interpolator {
	switch {
	case quality >= 75:
		return draw.CatmullRom
	case quality >= 40:
		return draw.ApproxBiLinear
	default:
		return draw.NearestNeighbor
	}
}

// Renderer holds the output geometry shared by every frame of an export.
type Renderer struct {
	Width, Height int
	Fit           Fit
	Scaler        draw.Interpolator
}

func NewRenderer(width, height int, fit Fit, quality int) *Renderer {
	return &Renderer{Width: width, Height: height, Fit: fit, Scaler: ScalerFor(quality)}
}

// Render returns a pooled canvas with src drawn onto it. Hand it back with
// Release once the pixels are consumed.
func (r *Renderer) Render(src image.Image) *image.RGBA {
	dst := system.GetImage(image.Rect(0, 0, r.Width, r.Height))
	r.RenderInto(dst, src)
	return dst
}

// RenderInto clears dst and draws src according to the fit mode.
func (r *Renderer) RenderInto(dst *image.RGBA, src image.Image) {
	clear(dst.Pix)

	sr := src.Bounds()
	if sr.Empty() {
		return
	}
	dr, sr := r.placement(dst.Bounds(), sr)
	r.Scaler.Scale(dst, dr, src, sr, draw.Over, nil)
}

func (r *Renderer) placement(canvas, src image.Rectangle) (image.Rectangle, image.Rectangle) {
	cw, ch := float64(canvas.Dx()), float64(canvas.Dy())
	sw, sh := float64(src.Dx()), float64(src.Dy())

	switch r.Fit {
	case FitContain:
		scale := min(cw/sw, ch/sh)
		w, h := int(sw*scale+0.5), int(sh*scale+0.5)
		x := canvas.Min.X + (canvas.Dx()-w)/2
		y := canvas.Min.Y + (canvas.Dy()-h)/2
		return image.Rect(x, y, x+w, y+h), src
	case FitCover:
		scale := max(cw/sw, ch/sh)
		w, h := int(cw/scale+0.5), int(ch/scale+0.5)
		x := src.Min.X + (src.Dx()-w)/2
		y := src.Min.Y + (src.Dy()-h)/2
		return canvas, image.Rect(x, y, x+w, y+h)
	default:
		return canvas, src
	}
}

func Release(img *image.RGBA) {
	system.PutImage(img)
}
