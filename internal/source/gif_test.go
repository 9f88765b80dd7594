package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clearPx = color.RGBA{}
	red     = color.RGBA{R: 255, A: 255}
	green   = color.RGBA{G: 255, A: 255}
	blue    = color.RGBA{B: 255, A: 255}
	testPal = color.Palette{color.RGBA{}, red, green, blue}
)

// patch builds a paletted sub-frame covering rect, filled with index fill
// except for transparent pixels listed in holes.
func patch(rect image.Rectangle, fill uint8, holes ...image.Point) *image.Paletted {
	p := image.NewPaletted(rect, testPal)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p.SetColorIndex(x, y, fill)
		}
	}
	for _, h := range holes {
		p.SetColorIndex(h.X, h.Y, 0)
	}
	return p
}

func encodeGIF(t *testing.T, frames []*image.Paletted, disposals []byte, delays []int) []byte {
	t.Helper()
	g := &gif.GIF{
		Image:    frames,
		Delay:    delays,
		Disposal: disposals,
		Config:   image.Config{ColorModel: testPal, Width: 3, Height: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func row(t *testing.T, img image.Image) []color.RGBA {
	t.Helper()
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok, "frame should be *image.RGBA")
	out := make([]color.RGBA, rgba.Bounds().Dx())
	for x := range out {
		out[x] = rgba.RGBAAt(x, 0)
	}
	return out
}

// Effective disposals seen by frames 1..3 are {0, 2, 3}: frame 1 starts clear,
// frame 2 follows a restore-to-background, frame 3 follows a restore-to-previous.
func TestDecodeGIFDisposalSequence(t *testing.T) {
	frames := []*image.Paletted{
		patch(image.Rect(0, 0, 3, 1), 1, image.Pt(1, 0), image.Pt(2, 0)),
		patch(image.Rect(1, 0, 2, 1), 2),
		patch(image.Rect(2, 0, 3, 1), 3),
	}
	data := encodeGIF(t, frames,
		[]byte{gif.DisposalBackground, gif.DisposalPrevious, gif.DisposalNone},
		[]int{10, 20, 30})

	asset, err := DecodeGIF(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, asset.Frames, 3)

	assert.Equal(t, []color.RGBA{red, clearPx, clearPx}, row(t, asset.Frames[0]))
	// cleared canvas plus frame 2's own patch
	assert.Equal(t, []color.RGBA{clearPx, green, clearPx}, row(t, asset.Frames[1]))
	// canvas captured right before frame 2 was drawn plus frame 3's patch
	assert.Equal(t, []color.RGBA{clearPx, clearPx, blue}, row(t, asset.Frames[2]))

	assert.Equal(t, []int{100, 200, 300}, asset.DelaysMs)
	assert.InDelta(t, 0.6, asset.TotalDurationSeconds(), 1e-9)
}

func TestDecodeGIFRestorePrevious(t *testing.T) {
	frames := []*image.Paletted{
		patch(image.Rect(0, 0, 3, 1), 1, image.Pt(1, 0), image.Pt(2, 0)),
		patch(image.Rect(1, 0, 2, 1), 2),
		patch(image.Rect(2, 0, 3, 1), 3),
	}
	data := encodeGIF(t, frames,
		[]byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		[]int{5, 5, 5})

	asset, err := DecodeGIF(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, asset.Frames, 3)

	assert.Equal(t, []color.RGBA{red, clearPx, clearPx}, row(t, asset.Frames[0]))
	assert.Equal(t, []color.RGBA{red, green, clearPx}, row(t, asset.Frames[1]))
	// green is gone, red from before frame 2 is back
	assert.Equal(t, []color.RGBA{red, clearPx, blue}, row(t, asset.Frames[2]))
}

func TestDecodeGIFAccumulates(t *testing.T) {
	frames := []*image.Paletted{
		patch(image.Rect(0, 0, 1, 1), 1),
		patch(image.Rect(1, 0, 2, 1), 2),
		patch(image.Rect(2, 0, 3, 1), 3),
	}
	data := encodeGIF(t, frames, nil, []int{1, 1, 1})

	asset, err := DecodeGIF(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{red, green, blue}, row(t, asset.Frames[2]))
	assert.Equal(t, 3, asset.Width)
	assert.Equal(t, 1, asset.Height)
}

func TestDecodeGIFFramesAreIndependentCopies(t *testing.T) {
	frames := []*image.Paletted{
		patch(image.Rect(0, 0, 1, 1), 1),
		patch(image.Rect(1, 0, 2, 1), 2),
	}
	data := encodeGIF(t, frames, nil, []int{1, 1})

	asset, err := DecodeGIF(bytes.NewReader(data))
	require.NoError(t, err)
	// drawing frame 2 must not leak into the stored frame 1
	assert.Equal(t, []color.RGBA{red, clearPx, clearPx}, row(t, asset.Frames[0]))
}

func TestDecodeGIFMalformed(t *testing.T) {
	_, err := DecodeGIF(bytes.NewReader([]byte("GIF89a-not-really")))
	require.Error(t, err)

	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}
