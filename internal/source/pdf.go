package source

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDF exposes the pages of a document as lazily rendered stills.
type PDF struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func OpenPDF(path string, dpi int) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	return &PDF{doc: doc, path: path, dpi: dpi}, nil
}

func (p *PDF) PageCount() int {
	return p.doc.NumPage()
}

// Page returns a reference to page index. The page is rendered on Load.
func (p *PDF) Page(index int) Image {
	return &PDFPage{Path: p.path, Index: index, DPI: p.dpi}
}

func (p *PDF) Close() error {
	return p.doc.Close()
}

// PDFPage renders one page with its own document handle so several pages can
// be loaded in parallel.
type PDFPage struct {
	Path  string
	Index int
	DPI   int
}

func (p *PDFPage) Name() string {
	return fmt.Sprintf("%s#%d", p.Path, p.Index+1)
}

func (p *PDFPage) Load(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(p.Path)
	if err != nil {
		return nil, &DecodeError{Source: p.Path, Err: err}
	}
	defer doc.Close()

	img, err := doc.ImageDPI(p.Index, float64(p.DPI))
	if err != nil {
		return nil, &DecodeError{Source: p.Name(), Err: err}
	}
	return img, nil
}
