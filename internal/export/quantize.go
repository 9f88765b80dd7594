package export

import (
	"image"
	"image/color"
	"math"

	"github.com/soniakeys/quant/median"
)

// sampleBudget bounds how many pixels feed the palette across all frames.
const sampleBudget = 1 << 18

// paletteSize maps quality 1..100 onto 2..256 colours.
func paletteSize(quality int) int {
	n := int(math.Round(float64(quality) * 256 / 100))
	return max(2, min(256, n))
}

// buildPalette runs a median cut over a pixel sample of every frame, so all
// frames share one colour table. When any sampled pixel is mostly
// transparent, entry 0 is reserved for transparency.
func buildPalette(frames []*image.RGBA, size int) color.Palette {
	var total int
	for _, f := range frames {
		total += len(f.Pix) / 4
	}
	step := max(1, total/sampleBudget)

	var (
		samples     []uint8
		transparent bool
		n           int
	)
	for _, f := range frames {
		for i := 0; i+3 < len(f.Pix); i += 4 {
			n++
			if n%step != 0 {
				continue
			}
			if f.Pix[i+3] < 128 {
				transparent = true
				continue
			}
			samples = append(samples, f.Pix[i], f.Pix[i+1], f.Pix[i+2], 0xff)
		}
	}

	pal := make(color.Palette, 0, size)
	if transparent {
		pal = append(pal, color.RGBA{})
		size--
	}
	if len(samples) == 0 {
		return append(pal, color.RGBA{A: 0xff})
	}

	// the sample is laid out as a one-row image for the quantizer
	strip := &image.RGBA{
		Pix:    samples,
		Stride: len(samples),
		Rect:   image.Rect(0, 0, len(samples)/4, 1),
	}
	for _, c := range median.Quantizer(size).Palette(strip).ColorPalette() {
		if len(pal) == cap(pal) {
			break
		}
		pal = append(pal, c)
	}
	return pal
}
