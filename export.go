package grade

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/gogpu/grade/internal/parallel"
)

// DefaultJPEGQuality is the JPEG encoder quality used when
// WithJPEGQuality is not given.
const DefaultJPEGQuality = 90

// ErrExportFormat is returned by Export when the output path has an
// extension no encoder is registered for.
var ErrExportFormat = errors.New("grade: unsupported export format")

// ExportOption configures Export.
type ExportOption func(*exportOptions)

type exportOptions struct {
	jpegQuality int
	maxEdge     int
}

func defaultExportOptions() exportOptions {
	return exportOptions{jpegQuality: DefaultJPEGQuality}
}

// WithJPEGQuality sets the JPEG encoder quality (1..100).
// Values outside the range are ignored. The default is DefaultJPEGQuality.
func WithJPEGQuality(q int) ExportOption {
	return func(o *exportOptions) {
		if q >= 1 && q <= 100 {
			o.jpegQuality = q
		}
	}
}

// WithMaxEdge caps the longer edge of the exported image at n pixels.
// Larger results are downscaled with Lanczos3 resampling after grading.
// Zero or negative values are ignored (no limit).
func WithMaxEdge(n int) ExportOption {
	return func(o *exportOptions) {
		if n > 0 {
			o.maxEdge = n
		}
	}
}

// Export renders im through the full grading pipeline at native resolution
// and writes the result to path. The encoder is chosen by file extension:
// ".png" uses image/png, ".jpg" and ".jpeg" use image/jpeg. Any other
// extension returns ErrExportFormat.
//
// Export always renders on the CPU evaluator; the accelerator is
// preview-only.
func Export(im *Image, p Params, path string, opts ...ExportOption) error {
	if im == nil {
		return errors.New("grade: export: no image")
	}

	o := defaultExportOptions()
	for _, opt := range opts {
		opt(&o)
	}

	encode, err := encoderFor(path, o)
	if err != nil {
		return err
	}

	out := renderExportImage(im, p)

	if o.maxEdge > 0 {
		out = downscaleMaxEdge(out, o.maxEdge)
	}

	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("grade: export: %w", err)
	}
	if err := encode(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("grade: export encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("grade: export: %w", err)
	}
	return nil
}

// encoderFor maps a file extension to an encode function.
func encoderFor(path string, o exportOptions) (func(*os.File, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return func(f *os.File, img image.Image) error {
			return png.Encode(f, img)
		}, nil
	case ".jpg", ".jpeg":
		return func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: o.jpegQuality})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrExportFormat, filepath.Ext(path))
	}
}

// renderExportImage evaluates the pipeline over every source pixel in
// parallel row stripes and quantizes to 8-bit RGBA.
func renderExportImage(im *Image, p Params) image.Image {
	width, height := im.Width, im.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	pool := parallel.NewPool(0)
	defer pool.Close()

	pool.ForRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := im.Pix[y*width*4 : (y+1)*width*4]
			dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
			for x := 0; x < width; x++ {
				r, g, b := Transform(src[x*4], src[x*4+1], src[x*4+2], p)
				dst[x*4] = quantizeDisplay(r)
				dst[x*4+1] = quantizeDisplay(g)
				dst[x*4+2] = quantizeDisplay(b)
				dst[x*4+3] = 0xFF
			}
		}
	})

	return img
}

// downscaleMaxEdge resizes img so its longer edge is at most maxEdge,
// preserving aspect ratio. Images already within the limit pass through.
func downscaleMaxEdge(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	if w >= h {
		return resize.Resize(uint(maxEdge), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxEdge), img, resize.Lanczos3)
}
