package boundary

import (
	"context"

	"github.com/ivlev/frameline/internal/export"
	"github.com/ivlev/frameline/internal/source"
)

// Backend adapts a Client to export.Encoder. The worker has no progress
// channel, so progress jumps from the upload share to 100.
type Backend struct {
	Client *Client
}

func (b *Backend) Encode(ctx context.Context, frames []export.Frame, fps int, opts export.Options, progress export.ProgressFunc) (*export.Result, error) {
	report := func(p float64) {
		if progress != nil {
			progress(p)
		}
	}

	data := &GenerateData{
		Format:              string(opts.Format),
		FPS:                 fps,
		Quality:             opts.Quality,
		Resolution:          opts.Resolution,
		IncludeAudio:        opts.IncludeAudio,
		UseEntireSoundtrack: opts.UseEntireSoundtrack,
		Frames:              make([]FramePayload, 0, len(frames)),
	}

	for i, f := range frames {
		img, err := f.Image.Load(ctx)
		if err != nil {
			return nil, &export.FrameLoadError{Index: i, Name: f.Image.Name(), Err: err}
		}
		uri, err := source.EncodeDataURI(img)
		if err != nil {
			return nil, &export.ResourceError{Op: "encode frame payload", Err: err}
		}
		data.Frames = append(data.Frames, FramePayload{Time: f.Time, Image: uri})
		report(50 * float64(i+1) / float64(len(frames)))
	}

	if opts.IncludeAudio && opts.Audio != nil && opts.Audio.Path != "" {
		uri, err := source.FileDataURI(opts.Audio.Path)
		if err != nil {
			return nil, &export.ResourceError{Op: "encode audio payload", Err: err}
		}
		data.AudioData = &uri
	}

	res, err := b.Client.Generate(ctx, data)
	if err != nil {
		return nil, err
	}
	report(100)
	return res, nil
}

// Register routes gif and png exports through c.
func Register(r *export.Registry, c *Client) {
	b := &Backend{Client: c}
	r.Register(export.FormatGIF, b)
	r.Register(export.FormatPNG, b)
}
