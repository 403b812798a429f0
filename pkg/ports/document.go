package ports

// DocumentAssembler builds a multi-page document from raster images.
// Pages are appended in call order and the document is finalized by End.
type DocumentAssembler interface {
	// Begin starts a new document whose pages all share the given geometry.
	Begin(page PageGeometry) error

	// AddPage appends a page holding a single image at the given placement.
	AddPage(data []byte, format ImageFormat, placement Placement) error

	// End finalizes the document and returns its bytes.
	End() ([]byte, error)

	// PageCount returns the number of pages added since Begin.
	PageCount() int
}

// PageGeometry describes a fixed page size in millimetres.
type PageGeometry struct {
	Width  float64 // Page width in mm
	Height float64 // Page height in mm
	Margin float64 // Uniform margin in mm
}

// ContentBox returns the area inside the margins.
func (g PageGeometry) ContentBox() Placement {
	return Placement{
		X:      g.Margin,
		Y:      g.Margin,
		Width:  g.Width - 2*g.Margin,
		Height: g.Height - 2*g.Margin,
	}
}

// Placement is a rectangle on a page in millimetres.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}
