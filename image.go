package grade

import (
	"errors"
	"fmt"
)

// ErrImageSize is returned when a pixel buffer does not match its declared
// dimensions.
var ErrImageSize = errors.New("grade: pixel buffer length does not match dimensions")

// Image is a decoded linear-light frame: Width×Height pixels of interleaved
// RGBA float32 samples. The alpha slot is carried for stride alignment but
// ignored by the pipeline. Values are radiometric and not bounded to [0,1].
//
// An Image is replaced wholesale on each load and never mutated in place;
// Renderer and HistogramEngine may read it concurrently.
type Image struct {
	Width  int
	Height int

	// Pix holds Width*Height*4 float32 values, row-major, RGBA order.
	Pix []float32
}

// NewImage validates the buffer against the dimensions and wraps it without
// copying. The caller hands over ownership of pix.
func NewImage(width, height int, pix []float32) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grade: invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d needs %d floats, got %d",
			ErrImageSize, width, height, width*height*4, len(pix))
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// Pixels returns the number of pixel groups in the image.
func (im *Image) Pixels() int {
	return im.Width * im.Height
}

// RGB returns the linear RGB triple of the pixel at (x, y). No bounds check;
// callers iterate within Width/Height.
func (im *Image) RGB(x, y int) (r, g, b float32) {
	i := (y*im.Width + x) * 4
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}
