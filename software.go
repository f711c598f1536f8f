package grade

import "github.com/gogpu/grade/internal/parallel"

// softwareEvaluator runs the per-pixel pipeline on the CPU, striping image
// rows across a worker pool. It is the fallback path when no GPU accelerator
// is registered or the accelerator declines a frame, and the full-resolution
// path for Export.
type softwareEvaluator struct {
	pool *parallel.Pool
}

func newSoftwareEvaluator(workers int) *softwareEvaluator {
	return &softwareEvaluator{pool: parallel.NewPool(workers)}
}

// renderFrame evaluates Transform for every pixel of im into dst, which must
// already be sized to the image. Output channels are clamped to [0,1] and
// quantized to 8 bits (truncating); alpha is opaque.
func (e *softwareEvaluator) renderFrame(im *Image, p Params, dst *Pixmap) {
	width := im.Width
	e.pool.ForRows(im.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := im.Pix[y*width*4 : (y+1)*width*4]
			row := dst.Row(y)
			for x := 0; x < width; x++ {
				r, g, b := Transform(src[x*4], src[x*4+1], src[x*4+2], p)
				row[x*4+0] = quantizeDisplay(r)
				row[x*4+1] = quantizeDisplay(g)
				row[x*4+2] = quantizeDisplay(b)
				row[x*4+3] = 0xFF
			}
		}
	})
}

func (e *softwareEvaluator) close() {
	e.pool.Close()
}

// quantizeDisplay maps a pipeline output channel to its display byte:
// clamp to [0,1], scale by 255, truncate.
func quantizeDisplay(c float32) uint8 {
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 0xFF
	}
	return uint8(c * 255)
}
