package grade

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Pixmap is a rectangular 8-bit RGBA pixel buffer. It is the presentation
// surface of this package: Renderer evaluates frames into one, histview
// rasterizes the histogram overlay into one, and viewer uploads their bytes
// as textures.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel, row-major
}

// NewPixmap creates a pixmap with the given dimensions, cleared to
// transparent black.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Row returns the pixel bytes of row y. Striped evaluators write whole rows
// through this slice without per-pixel bounds checks.
func (p *Pixmap) Row(y int) []uint8 {
	i := y * p.width * 4
	return p.data[i : i+p.width*4]
}

// Resize reallocates the buffer when dimensions change and clears it.
// Resizing to the current dimensions just clears, preserving the allocation
// so a persistent render target never churns per frame.
func (p *Pixmap) Resize(width, height int) {
	if width == p.width && height == p.height {
		p.Clear(0, 0, 0, 0)
		return
	}
	p.width = width
	p.height = height
	p.data = make([]uint8, width*height*4)
}

// SetRGBA8 sets a single pixel. Out-of-bounds coordinates are ignored.
func (p *Pixmap) SetRGBA8(x, y int, r, g, b, a uint8) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = r
	p.data[i+1] = g
	p.data[i+2] = b
	p.data[i+3] = a
}

// RGBA8At returns the pixel at (x, y). Out-of-bounds coordinates read as
// transparent black.
func (p *Pixmap) RGBA8At(x, y int) (r, g, b, a uint8) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return 0, 0, 0, 0
	}
	i := (y*p.width + x) * 4
	return p.data[i], p.data[i+1], p.data[i+2], p.data[i+3]
}

// Clear fills the entire pixmap with one color.
func (p *Pixmap) Clear(r, g, b, a uint8) {
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// ToImage converts the pixmap to an image.RGBA.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	r, g, b, a := p.RGBA8At(x, y)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
