// Package boundary hosts an alternate GIF/PNG encoder in an interpreted Go
// runtime running on its own goroutine. The host talks to it only through
// JSON envelopes passed over channels.
package boundary

import (
	"fmt"

	"github.com/ivlev/frameline/internal/export"
)

type RequestType string

const (
	RequestInit     RequestType = "init"
	RequestGenerate RequestType = "generate"
)

type ResponseType string

const (
	ResponseInitialized ResponseType = "initialized"
	ResponseComplete    ResponseType = "complete"
	ResponseError       ResponseType = "error"
)

// Error codes carried next to the human readable message.
const (
	CodeMalformed      = "malformed"
	CodeInit           = "init"
	CodeNotInitialized = "not_initialized"
	CodeUnsupported    = "unsupported"
	CodeEncode         = "encode"
)

// Request is one envelope sent to the worker. ID is echoed in the response.
type Request struct {
	ID   string        `json:"id"`
	Type RequestType   `json:"type"`
	Data *GenerateData `json:"data,omitempty"`
}

type FramePayload struct {
	Time  float64 `json:"time"`
	Image string  `json:"image"` // data URI
}

type GenerateData struct {
	Format              string            `json:"format"`
	Frames              []FramePayload    `json:"frames"`
	FPS                 int               `json:"fps"`
	Quality             int               `json:"quality"`
	Resolution          export.Resolution `json:"resolution"`
	IncludeAudio        bool              `json:"includeAudio"`
	UseEntireSoundtrack bool              `json:"useEntireSoundtrack"`
	AudioData           *string           `json:"audioData"`
}

// ResultPayload mirrors export.Result. Data is base64 when Encoding says so.
type ResultPayload struct {
	Data      string `json:"data"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Encoding  string `json:"encoding,omitempty"`
}

type Response struct {
	ID     string         `json:"id"`
	Type   ResponseType   `json:"type"`
	Result *ResultPayload `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Code   string         `json:"code,omitempty"`
}

func errorResponse(id, code string, err error) Response {
	return Response{ID: id, Type: ResponseError, Error: err.Error(), Code: code}
}

// BoundaryError is an initialization or messaging failure of the worker, as
// opposed to an encode failure reported by the script.
type BoundaryError struct {
	Op  string
	Err error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("encoder boundary %s: %v", e.Op, e.Err)
}

func (e *BoundaryError) Unwrap() error { return e.Err }
