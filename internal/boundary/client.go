package boundary

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/export"
)

//go:embed scripts/encoder.go.txt
var encoderScript string

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

var errClosed = errors.New("client closed")

// Client drives one worker. Init is lazy and shared, generate calls run one
// at a time and responses are matched by request id.
type Client struct {
	script string
	log    *zap.Logger

	mu       sync.Mutex
	state    State
	initDone chan struct{}
	initErr  error
	w        *worker
	pending  map[string]chan Response
	closed   bool
	dispatch chan struct{}

	gen chan struct{}
}

func NewClient(log *zap.Logger) *Client {
	return newClient(encoderScript, log)
}

func newClient(script string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		script:  script,
		log:     log,
		pending: make(map[string]chan Response),
		gen:     make(chan struct{}, 1),
	}
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default is the process-wide client. It logs through zap.L().
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = NewClient(zap.L().Named("boundary"))
	})
	return defaultClient
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// startLocked spawns the worker and its response dispatcher. c.mu is held.
func (c *Client) startLocked() {
	if c.w != nil {
		return
	}
	c.w = startWorker(c.script, c.log)
	c.dispatch = make(chan struct{})
	go c.route(c.w, c.dispatch)
}

func (c *Client) route(w *worker, done chan struct{}) {
	defer close(done)
	for b := range w.out {
		var resp Response
		if err := json.Unmarshal(b, &resp); err != nil {
			c.log.Warn("dropping undecodable response", zap.Error(err))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			c.log.Warn("dropping response with no waiter", zap.String("id", resp.ID), zap.String("type", string(resp.Type)))
			continue
		}
		ch <- resp
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return Response{}, &BoundaryError{Op: string(req.Type), Err: err}
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Response{}, &BoundaryError{Op: string(req.Type), Err: errClosed}
	}
	c.startLocked()
	w := c.w
	c.pending[req.ID] = ch
	c.mu.Unlock()

	select {
	case w.in <- b:
	case <-w.done:
		c.forget(req.ID)
		return Response{}, &BoundaryError{Op: string(req.Type), Err: errors.New("worker stopped")}
	case <-ctx.Done():
		c.forget(req.ID)
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-w.done:
		c.forget(req.ID)
		return Response{}, &BoundaryError{Op: string(req.Type), Err: errors.New("worker stopped")}
	case <-ctx.Done():
		c.forget(req.ID)
		return Response{}, ctx.Err()
	}
}

// Init loads the interpreted encoder. Concurrent callers wait on the same
// attempt; once ready it returns immediately.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateInitializing:
		done := c.initDone
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.initErr
	}
	c.state = StateInitializing
	c.initDone = make(chan struct{})
	c.mu.Unlock()

	resp, err := c.call(ctx, Request{ID: uuid.NewString(), Type: RequestInit})
	if err == nil && resp.Type != ResponseInitialized {
		err = &BoundaryError{Op: "init", Err: errors.New(resp.Error)}
	}
	var be *BoundaryError
	if err != nil && !errors.As(err, &be) {
		err = &BoundaryError{Op: "init", Err: err}
	}

	c.mu.Lock()
	if err != nil {
		c.state = StateUninitialized
	} else {
		c.state = StateReady
	}
	c.initErr = err
	close(c.initDone)
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("interpreted encoder init failed", zap.Error(err))
	}
	return err
}

// Generate runs one encode in the worker. It initializes first if needed.
func (c *Client) Generate(ctx context.Context, data *GenerateData) (*export.Result, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	select {
	case c.gen <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.gen }()

	id := uuid.NewString()
	c.log.Debug("generate", zap.String("id", id), zap.String("format", data.Format), zap.Int("frames", len(data.Frames)))

	resp, err := c.call(ctx, Request{ID: id, Type: RequestGenerate, Data: data})
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case ResponseComplete:
		if resp.Result == nil {
			return nil, &BoundaryError{Op: "generate", Err: errors.New("complete without result")}
		}
		return decodeResult(resp.Result)
	case ResponseError:
		switch resp.Code {
		case CodeUnsupported:
			return nil, &export.EncoderUnavailableError{
				Format:  export.Format(data.Format),
				Backend: "interpreted",
				Reason:  resp.Error,
			}
		case CodeEncode:
			return nil, fmt.Errorf("interpreted encoder: %s", resp.Error)
		}
		return nil, &BoundaryError{Op: "generate", Err: errors.New(resp.Error)}
	}
	return nil, &BoundaryError{Op: "generate", Err: fmt.Errorf("unexpected response %q", resp.Type)}
}

func decodeResult(p *ResultPayload) (*export.Result, error) {
	data := []byte(p.Data)
	if p.Encoding == "base64" {
		var err error
		data, err = base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, &BoundaryError{Op: "generate", Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return &export.Result{Data: data, MimeType: p.MimeType, Extension: p.Extension}, nil
}

// Close stops the worker. Calls after Close fail with a BoundaryError.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w, done := c.w, c.dispatch
	c.mu.Unlock()

	if w != nil {
		w.stop()
		<-done
	}
	return nil
}
