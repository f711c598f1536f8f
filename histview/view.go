// Package histview rasterizes channel histograms into a pixmap overlay.
//
// The view draws the R, G and B distributions as filled columns in their
// channel colors using a lighten blend, so overlapping channels mix the way
// photographers expect (red over green reads yellow). The luma distribution
// is drawn last as a translucent white layer with normal source-over
// compositing. The output pixmap is premultiplied RGBA, ready for texture
// upload.
package histview

import (
	"github.com/gogpu/grade"
	"github.com/gogpu/grade/internal/blend"
)

// Default view dimensions, one column per histogram bucket.
const (
	DefaultWidth  = 256
	DefaultHeight = 100
)

// lumaWhite is the premultiplied channel/alpha value of the luma layer:
// white at roughly 45% opacity.
const lumaWhite = 115

// View rasterizes histograms into a persistent pixmap. The pixmap is
// allocated once and reused across draws, so a continuously-updating
// overlay never churns allocations.
//
// View is not safe for concurrent use; callers draw from one goroutine.
type View struct {
	pm *grade.Pixmap
}

// New creates a view with the given dimensions. Zero or negative dimensions
// fall back to the defaults.
func New(width, height int) *View {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &View{pm: grade.NewPixmap(width, height)}
}

// Pixmap returns the view's drawing surface. The same pixmap is returned by
// every Draw call.
func (v *View) Pixmap() *grade.Pixmap {
	return v.pm
}

// Draw rasterizes hist into the view's pixmap and returns it. A nil
// histogram, or one with no R/G/B mass, produces a fully transparent pixmap.
//
// Columns are normalized against the largest R/G/B bucket; the luma layer
// shares that normalization, so a luma bucket taller than the channel peak
// clips to the full view height.
func (v *View) Draw(hist *grade.Histogram) *grade.Pixmap {
	v.pm.Clear(0, 0, 0, 0)
	if hist == nil {
		return v.pm
	}
	max := hist.MaxRGB()
	if max == 0 {
		return v.pm
	}

	v.drawColumns(&hist.R, max, 255, 0, 0, 255, blend.Lighten)
	v.drawColumns(&hist.G, max, 0, 255, 0, 255, blend.Lighten)
	v.drawColumns(&hist.B, max, 0, 0, 255, 255, blend.Lighten)
	v.drawColumns(&hist.L, max, lumaWhite, lumaWhite, lumaWhite, lumaWhite, blend.SourceOver)
	return v.pm
}

// drawColumns fills one channel's columns from the baseline up, compositing
// each pixel with blendFn. Column x reads bucket x*255/(W-1) so any view
// width covers the full bucket range.
func (v *View) drawColumns(counts *[256]uint32, max uint32, sr, sg, sb, sa uint8, blendFn blend.Func) {
	w := v.pm.Width()
	h := v.pm.Height()
	for x := 0; x < w; x++ {
		bucket := 0
		if w > 1 {
			bucket = x * 255 / (w - 1)
		}
		colH := int(uint64(counts[bucket]) * uint64(h) / uint64(max))
		if colH > h {
			colH = h
		}
		for y := h - colH; y < h; y++ {
			dr, dg, db, da := v.pm.RGBA8At(x, y)
			r, g, b, a := blendFn(sr, sg, sb, sa, dr, dg, db, da)
			v.pm.SetRGBA8(x, y, r, g, b, a)
		}
	}
}
