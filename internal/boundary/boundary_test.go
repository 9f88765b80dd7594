package boundary

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/export"
	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/timeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func payload(t *testing.T, format string, n int) *GenerateData {
	t.Helper()
	data := &GenerateData{
		Format:     format,
		FPS:        10,
		Quality:    80,
		Resolution: export.Resolution{Width: 3, Height: 2},
	}
	for i := 0; i < n; i++ {
		uri, err := source.EncodeDataURI(solid(color.RGBA{R: uint8(60 * i), G: 20, B: 200, A: 255}))
		require.NoError(t, err)
		data.Frames = append(data.Frames, FramePayload{Time: float64(i) / 10, Image: uri})
	}
	return data
}

func TestInitIsIdempotent(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()
	ctx := testContext(t)

	assert.Equal(t, StateUninitialized, c.State())
	require.NoError(t, c.Init(ctx))
	assert.Equal(t, StateReady, c.State())
	require.NoError(t, c.Init(ctx))
	assert.Equal(t, StateReady, c.State())
}

func TestConcurrentInitSharesAttempt(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()
	ctx := testContext(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Init(ctx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, StateReady, c.State())
}

func TestGenerateGIF(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()

	// no explicit Init: generate initializes lazily
	res, err := c.Generate(testContext(t), payload(t, "gif", 2))
	require.NoError(t, err)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, "image/gif", res.MimeType)
	assert.Equal(t, "gif", res.Extension)

	g, err := gif.DecodeAll(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
	assert.Equal(t, 10, g.Delay[0])
	assert.Equal(t, image.Rect(0, 0, 3, 2), g.Image[0].Bounds())
}

func TestGeneratePNGSequence(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()

	res, err := c.Generate(testContext(t), payload(t, "png", 3))
	require.NoError(t, err)
	assert.Equal(t, "application/zip", res.MimeType)
	assert.Equal(t, "zip", res.Extension)

	zr, err := zip.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"}, names)
}

func TestVideoIsUnsupported(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()

	for _, f := range []string{"mp4", "webm"} {
		_, err := c.Generate(testContext(t), payload(t, f, 1))
		var ue *export.EncoderUnavailableError
		require.ErrorAs(t, err, &ue, f)
		assert.Equal(t, export.Format(f), ue.Format)
		assert.Equal(t, "interpreted", ue.Backend)
	}
	// the worker survives refusals
	assert.Equal(t, StateReady, c.State())
}

func TestScriptEncodeErrorIsNotBoundaryError(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()

	data := payload(t, "gif", 1)
	data.Frames[0].Image = "data:image/png;base64,AAAA"
	_, err := c.Generate(testContext(t), data)
	require.Error(t, err)
	var be *BoundaryError
	assert.False(t, errors.As(err, &be), "encode failure must not be a BoundaryError: %v", err)
	assert.Equal(t, StateReady, c.State())
}

func TestBrokenScriptFailsInit(t *testing.T) {
	c := newClient("package main\n\nfunc Generate(", nil)
	defer c.Close()

	err := c.Init(testContext(t))
	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StateUninitialized, c.State())

	_, err = c.Generate(testContext(t), payload(t, "gif", 1))
	assert.ErrorAs(t, err, &be)
}

func TestWrongSignatureFailsInit(t *testing.T) {
	script := "package main\n\nfunc Supports(f string) bool { return true }\n\nfunc Generate(n int) int { return n }\n"
	c := newClient(script, nil)
	defer c.Close()

	err := c.Init(testContext(t))
	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Error(), "signature")
}

func TestWorkerEchoesRequestID(t *testing.T) {
	w := startWorker(encoderScript, zap.NewNop())
	defer w.stop()

	send := func(req Request) Response {
		b, err := json.Marshal(req)
		require.NoError(t, err)
		w.in <- b
		var resp Response
		require.NoError(t, json.Unmarshal(<-w.out, &resp))
		return resp
	}

	resp := send(Request{ID: "gen-first", Type: RequestGenerate, Data: payload(t, "gif", 1)})
	assert.Equal(t, "gen-first", resp.ID)
	assert.Equal(t, ResponseError, resp.Type)
	assert.Equal(t, CodeNotInitialized, resp.Code)

	resp = send(Request{ID: "abc", Type: RequestInit})
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, ResponseInitialized, resp.Type)

	resp = send(Request{ID: "again", Type: RequestInit})
	assert.Equal(t, ResponseInitialized, resp.Type)

	resp = send(Request{ID: "x", Type: "shutdown"})
	assert.Equal(t, CodeMalformed, resp.Code)
}

func TestConcurrentGenerateIsSerialized(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()
	ctx := testContext(t)

	var wg sync.WaitGroup
	results := make([]*export.Result, 3)
	errs := make([]error, 3)
	inputs := make([]*GenerateData, 3)
	for i := range inputs {
		inputs[i] = payload(t, "png", i+1)
	}
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Generate(ctx, inputs[i])
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		zr, err := zip.NewReader(bytes.NewReader(results[i].Data), int64(len(results[i].Data)))
		require.NoError(t, err)
		// each caller gets its own response back
		assert.Len(t, zr.File, i+1)
	}
}

func TestClosedClient(t *testing.T) {
	c := NewClient(nil)
	require.NoError(t, c.Init(testContext(t)))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Generate(testContext(t), payload(t, "gif", 1))
	// state stays ready, the call itself is refused
	var be *BoundaryError
	assert.ErrorAs(t, err, &be)
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestBackendThroughExporter(t *testing.T) {
	c := NewClient(nil)
	defer c.Close()

	reg := export.NewRegistry()
	Register(reg, c)
	ex := export.NewExporter(reg, nil)

	tl := timeline.Generate(0.4, 10)
	for i := 0; i < tl.Len(); i++ {
		tl.AssignImage(i, &source.Bitmap{Label: "b", Image: solid(color.RGBA{G: uint8(50 * i), A: 255})})
	}

	var last float64
	res, err := ex.Export(testContext(t), tl, export.Options{
		Format:     export.FormatPNG,
		Quality:    60,
		Resolution: export.Resolution{Width: 4, Height: 4},
	}, func(p float64) { last = p })
	require.NoError(t, err)
	assert.Equal(t, 100.0, last)

	zr, err := zip.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 4)
}
