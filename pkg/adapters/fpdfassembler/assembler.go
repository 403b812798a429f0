// Package fpdfassembler provides a document assembler using go-pdf/fpdf.
package fpdfassembler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/user/mapshot/pkg/ports"
)

// Options configures document metadata.
type Options struct {
	Title    string
	Creator  string
	Compress bool
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{
		Title:    "Map capture",
		Creator:  "mapshot",
		Compress: true,
	}
}

// Assembler implements ports.DocumentAssembler with fpdf.
// An Assembler builds one document at a time and may be reused after End.
type Assembler struct {
	opts  Options
	pdf   *fpdf.Fpdf
	page  ports.PageGeometry
	pages int
}

// New creates a new Assembler with default options.
func New() *Assembler {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a new Assembler.
func NewWithOptions(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// Begin starts a new document with a fixed page size.
func (a *Assembler) Begin(page ports.PageGeometry) error {
	if page.Width <= 0 || page.Height <= 0 {
		return fmt.Errorf("invalid page size %gx%g mm", page.Width, page.Height)
	}

	// Size is given as-is; a landscape orientation would swap it again.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(a.opts.Compress)
	if a.opts.Title != "" {
		pdf.SetTitle(a.opts.Title, true)
	}
	if a.opts.Creator != "" {
		pdf.SetCreator(a.opts.Creator, true)
	}

	a.pdf = pdf
	a.page = page
	a.pages = 0
	return nil
}

// AddPage appends a page with a single image at the given placement.
func (a *Assembler) AddPage(data []byte, format ports.ImageFormat, placement ports.Placement) error {
	if a.pdf == nil {
		return errors.New("document not started")
	}

	imageType, err := imageType(format)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("page-%d", a.pages+1)
	opts := fpdf.ImageOptions{ImageType: imageType}

	a.pdf.AddPage()
	a.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	a.pdf.ImageOptions(name, placement.X, placement.Y, placement.Width, placement.Height, false, opts, 0, "")
	if err := a.pdf.Error(); err != nil {
		return fmt.Errorf("place image: %w", err)
	}

	a.pages++
	return nil
}

// End finalizes the document and returns its bytes.
func (a *Assembler) End() ([]byte, error) {
	if a.pdf == nil {
		return nil, errors.New("document not started")
	}
	defer func() { a.pdf = nil }()

	if a.pages == 0 {
		return nil, errors.New("document has no pages")
	}

	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages added since Begin.
func (a *Assembler) PageCount() int {
	return a.pages
}

var _ ports.DocumentAssembler = (*Assembler)(nil)

func imageType(format ports.ImageFormat) (string, error) {
	switch format {
	case ports.FormatPNG:
		return "PNG", nil
	case ports.FormatJPEG:
		return "JPG", nil
	default:
		return "", fmt.Errorf("unsupported image format for pdf: %s", format)
	}
}
