package export

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyExport means no frame slot holds an image. It is raised before
	// any encoder is touched.
	ErrEmptyExport = errors.New("no frames to export")

	// ErrExportInProgress is returned by Close and by a second Export while an
	// export is running.
	ErrExportInProgress = errors.New("export in progress")
)

// EncoderUnavailableError means the requested format has no backend, or the
// backend refuses it.
type EncoderUnavailableError struct {
	Format  Format
	Backend string
	Reason  string
}

func (e *EncoderUnavailableError) Error() string {
	msg := fmt.Sprintf("format %q is not available", e.Format)
	if e.Backend != "" {
		msg += " in the " + e.Backend + " encoder"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg + "; choose one of gif, png, mp4, webm with the native encoder"
}

// ResourceError covers canvas, encoder process and capture failures.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// FrameLoadError aborts an export when any frame image cannot be loaded.
type FrameLoadError struct {
	Index int
	Name  string
	Err   error
}

func (e *FrameLoadError) Error() string {
	return fmt.Sprintf("load frame %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *FrameLoadError) Unwrap() error { return e.Err }
