package export

import (
	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/canvas"
)

type NativeOptions struct {
	Fit          canvas.Fit
	Workers      int
	VideoEncoder string
	Realtime     bool
}

// NewNativeRegistry wires the in-process backends for all four formats.
func NewNativeRegistry(o NativeOptions, log *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register(FormatGIF, &GIFEncoder{Fit: o.Fit, Workers: o.Workers})
	r.Register(FormatPNG, &PNGEncoder{Fit: o.Fit, Workers: o.Workers})

	v := &VideoEncoder{Fit: o.Fit, Encoder: o.VideoEncoder, Realtime: o.Realtime, Log: log}
	r.Register(FormatMP4, v)
	r.Register(FormatWebM, v)
	return r
}
