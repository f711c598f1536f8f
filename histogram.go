package grade

import "math"

// histStride is the sampling stride over the flat RGBA float buffer:
// 20 floats = every 5th pixel group, a fixed 20% spatial sample.
const histStride = 20

// Histogram holds 256-bucket counts of the pipeline output, quantized to
// 8 bits, for the red, green and blue channels plus a derived luminance
// curve. Histograms are recomputed wholesale, never updated incrementally.
type Histogram struct {
	R [256]uint32
	G [256]uint32
	B [256]uint32
	L [256]uint32

	// Samples is the number of pixels that were sampled. Each of R, G and
	// B sums to exactly this value.
	Samples uint32
}

// MaxRGB returns the largest bucket count across the R, G and B arrays.
// The luminance array is deliberately excluded: the view normalizes all four
// curves by this value.
func (h *Histogram) MaxRGB() uint32 {
	var m uint32
	for i := 0; i < 256; i++ {
		if h.R[i] > m {
			m = h.R[i]
		}
		if h.G[i] > m {
			m = h.G[i]
		}
		if h.B[i] > m {
			m = h.B[i]
		}
	}
	return m
}

// ComputeHistogram samples every 5th pixel of im, runs each sample through
// Transform with p, and buckets the 8-bit-quantized results. Returns nil for
// a nil image.
//
// The luminance bucket is intentionally cheap: it is the integer mean of the
// three already-quantized channel buckets, not a requantization of float
// luma. The resulting curve differs slightly from a true luma histogram;
// this mirrors the display path's statistical intent, not colorimetry.
func ComputeHistogram(im *Image, p Params) *Histogram {
	if im == nil {
		return nil
	}

	h := &Histogram{}
	pix := im.Pix
	for i := 0; i < len(pix); i += histStride {
		r, g, b := Transform(pix[i], pix[i+1], pix[i+2], p)

		br := quantize255(r)
		bg := quantize255(g)
		bb := quantize255(b)

		h.R[br]++
		h.G[bg]++
		h.B[bb]++
		h.L[(br+bg+bb)/3]++
		h.Samples++
	}
	return h
}

// quantize255 maps a pipeline output channel to a bucket index:
// clamp(floor(c*255), 0, 255).
func quantize255(c float32) int {
	v := int(math.Floor(float64(c) * 255))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
