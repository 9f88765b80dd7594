package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a reference to a still held by a frame slot. Loading is deferred
// until an export needs the pixels.
type Image interface {
	Name() string
	Load(ctx context.Context) (image.Image, error)
}

// DecodeError reports a malformed image or GIF source. No partial result is
// ever returned alongside it.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// File is a still image on disk.
type File struct {
	Path string
}

func (f *File) Name() string { return f.Path }

func (f *File) Load(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, &DecodeError{Source: f.Path, Err: err}
	}
	return img, nil
}

// Bitmap is an already decoded image, e.g. a composited GIF frame.
type Bitmap struct {
	Label string
	Image image.Image
}

func (b *Bitmap) Name() string { return b.Label }

func (b *Bitmap) Load(ctx context.Context) (image.Image, error) {
	if b.Image == nil {
		return nil, fmt.Errorf("bitmap %s is empty", b.Label)
	}
	return b.Image, nil
}

var stillExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// IsStill reports whether the path has an extension we can decode as a still.
func IsStill(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range stillExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func IsGIF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ListImages returns the stills found in dir, sorted by name. A file path is
// returned as a single-element list.
func ListImages(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && IsStill(entry.Name()) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
