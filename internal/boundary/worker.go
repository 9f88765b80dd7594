package boundary

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// worker owns the interpreter. Nothing outside run touches its fields after
// start, all traffic goes through in and out.
type worker struct {
	in   chan []byte
	out  chan []byte
	quit chan struct{}
	done chan struct{}

	script string
	log    *zap.Logger

	supports func(format string) bool
	generate func(input string) (string, error)
}

func startWorker(script string, log *zap.Logger) *worker {
	w := &worker{
		in:     make(chan []byte),
		out:    make(chan []byte),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		script: script,
		log:    log,
	}
	go w.run()
	return w
}

func (w *worker) run() {
	defer close(w.done)
	defer close(w.out)

	for {
		var msg []byte
		select {
		case <-w.quit:
			return
		case msg = <-w.in:
		}

		resp := w.handle(msg)
		b, err := json.Marshal(resp)
		if err != nil {
			b, _ = json.Marshal(errorResponse(resp.ID, CodeEncode, err))
		}

		select {
		case <-w.quit:
			return
		case w.out <- b:
		}
	}
}

func (w *worker) handle(msg []byte) Response {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse("", CodeMalformed, fmt.Errorf("malformed request: %w", err))
	}

	switch req.Type {
	case RequestInit:
		if err := w.init(); err != nil {
			return errorResponse(req.ID, CodeInit, err)
		}
		return Response{ID: req.ID, Type: ResponseInitialized}

	case RequestGenerate:
		if w.generate == nil {
			return errorResponse(req.ID, CodeNotInitialized, errors.New("generate before init"))
		}
		if req.Data == nil {
			return errorResponse(req.ID, CodeMalformed, errors.New("generate without data"))
		}
		if !w.supports(req.Data.Format) {
			return errorResponse(req.ID, CodeUnsupported,
				fmt.Errorf("%s export is not supported by the interpreted encoder", req.Data.Format))
		}

		input, err := json.Marshal(req.Data)
		if err != nil {
			return errorResponse(req.ID, CodeMalformed, err)
		}
		output, err := w.safeGenerate(string(input))
		if err != nil {
			return errorResponse(req.ID, CodeEncode, err)
		}

		var res ResultPayload
		if err := json.Unmarshal([]byte(output), &res); err != nil {
			return errorResponse(req.ID, CodeEncode, fmt.Errorf("script returned bad result: %w", err))
		}
		return Response{ID: req.ID, Type: ResponseComplete, Result: &res}
	}

	return errorResponse(req.ID, CodeMalformed, fmt.Errorf("unknown request type %q", req.Type))
}

// init loads the script once. Repeated calls are no-ops.
func (w *worker) init() error {
	if w.generate != nil {
		return nil
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(w.script); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}

	gen, err := i.Eval("main.Generate")
	if err != nil {
		return fmt.Errorf("Generate function not found: %w", err)
	}
	genFunc, ok := gen.Interface().(func(string) (string, error))
	if !ok {
		return errors.New("Generate has incorrect signature (expected: func(string) (string, error))")
	}

	sup, err := i.Eval("main.Supports")
	if err != nil {
		return fmt.Errorf("Supports function not found: %w", err)
	}
	supFunc, ok := sup.Interface().(func(string) bool)
	if !ok {
		return errors.New("Supports has incorrect signature (expected: func(string) bool)")
	}

	w.generate, w.supports = genFunc, supFunc
	w.log.Debug("interpreted encoder loaded")
	return nil
}

func (w *worker) safeGenerate(input string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panic: %v", r)
		}
	}()
	return w.generate(input)
}

func (w *worker) stop() {
	close(w.quit)
	<-w.done
}
