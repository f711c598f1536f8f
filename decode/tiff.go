package decode

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"golang.org/x/image/tiff"

	"github.com/gogpu/grade"
)

func init() {
	Register("tif", decodeTIFF)
	Register("tiff", decodeTIFF)
	Register("dng", decodeTIFF)
}

// decodeTIFF loads demosaiced TIFF, the interchange format raw converters
// emit. 16-bit samples are taken as linear light (the libraw convention for
// 16-bit output); 8-bit files are assumed sRGB-encoded and linearized
// through the EOTF.
func decodeTIFF(r io.Reader, targetWidth int) (*grade.Image, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("tiff: %w", err)
	}
	return convertImage(img, targetWidth)
}

// convertImage samples a decoded image into a linear RGBA float32 frame,
// decimating by a whole-pixel step when the source is wider than
// targetWidth. Alpha is forced to 1; the pipeline ignores it.
func convertImage(img image.Image, targetWidth int) (*grade.Image, error) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("decode: empty image %dx%d", srcW, srcH)
	}

	step := 1
	if targetWidth > 0 && srcW > targetWidth {
		step = (srcW + targetWidth - 1) / targetWidth
	}
	w := srcW / step
	h := srcH / step
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	pix := make([]float32, w*h*4)
	switch src := img.(type) {
	case *image.RGBA64:
		sample16(pix, src.RGBA64At, bounds, w, h, step)
	case *image.NRGBA64:
		sample16(pix, src.RGBA64At, bounds, w, h, step)
	case *image.Gray16:
		sample16(pix, src.RGBA64At, bounds, w, h, step)
	default:
		sampleSRGB(pix, img, bounds, w, h, step)
	}
	return grade.NewImage(w, h, pix)
}

// sample16 reads 16-bit samples as linear light.
func sample16(pix []float32, at func(x, y int) color.RGBA64, bounds image.Rectangle, w, h, step int) {
	i := 0
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*step
		for x := 0; x < w; x++ {
			c := at(bounds.Min.X+x*step, sy)
			pix[i+0] = float32(c.R) / 65535
			pix[i+1] = float32(c.G) / 65535
			pix[i+2] = float32(c.B) / 65535
			pix[i+3] = 1
			i += 4
		}
	}
}

// sampleSRGB linearizes 8-bit (and any other) sources through the sRGB
// EOTF.
func sampleSRGB(pix []float32, img image.Image, bounds image.Rectangle, w, h, step int) {
	i := 0
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*step
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x*step, sy).RGBA()
			pix[i+0] = srgbToLinear(float32(r) / 65535)
			pix[i+1] = srgbToLinear(float32(g) / 65535)
			pix[i+2] = srgbToLinear(float32(b) / 65535)
			pix[i+3] = 1
			i += 4
		}
	}
}

// srgbToLinear applies the sRGB EOTF to one encoded channel in [0, 1].
// The pow argument is computed in float64 so encoded white maps to exactly 1.
func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}
