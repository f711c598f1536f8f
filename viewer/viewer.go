// Package viewer connects the grading pipeline to a window's draw loop.
//
// A Viewer owns the three presentation-side pieces — the frame renderer, the
// debounced histogram engine, and the overlay view — and exposes one Present
// method meant to be called from a continuous draw callback:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    _ = v.Present(dc.AsTextureDrawer())
//	})
//
// Present uploads the rendered frame and the histogram overlay as GPU
// textures and draws them. SetImage and SetParams may be called from any
// goroutine; Present belongs to the single draw goroutine.
package viewer

import (
	"sync"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/histview"
)

type config struct {
	rendererOpts []grade.RendererOption
	engineOpts   []grade.EngineOption
	overlayW     int
	overlayH     int
}

// Option configures a Viewer.
type Option func(*config)

// WithRendererOptions forwards options to the embedded renderer.
func WithRendererOptions(opts ...grade.RendererOption) Option {
	return func(c *config) {
		c.rendererOpts = append(c.rendererOpts, opts...)
	}
}

// WithEngineOptions forwards options to the embedded histogram engine.
func WithEngineOptions(opts ...grade.EngineOption) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithOverlaySize sets the histogram overlay dimensions in pixels.
func WithOverlaySize(width, height int) Option {
	return func(c *config) {
		c.overlayW, c.overlayH = width, height
	}
}

// Viewer owns the preview presentation state.
//
// The renderer and engine are independently thread-safe; the Viewer's own
// mutex guards the histogram delivery handoff and the texture slots.
type Viewer struct {
	mu       sync.Mutex
	renderer *grade.Renderer
	engine   *grade.HistogramEngine
	view     *histview.View

	frame   texSlot
	overlay texSlot

	hist      *grade.Histogram
	histDirty bool
	closed    bool
}

// New creates a viewer wired to its own renderer and histogram engine.
func New(opts ...Option) *Viewer {
	c := config{
		overlayW: histview.DefaultWidth,
		overlayH: histview.DefaultHeight,
	}
	for _, opt := range opts {
		opt(&c)
	}

	v := &Viewer{
		renderer: grade.NewRenderer(c.rendererOpts...),
		view:     histview.New(c.overlayW, c.overlayH),
	}
	v.engine = grade.NewHistogramEngine(v.onHistogram, c.engineOpts...)
	return v
}

// onHistogram receives debounced deliveries from the engine, on a timer
// goroutine. The overlay is rasterized lazily on the next Present.
func (v *Viewer) onHistogram(h *grade.Histogram) {
	v.mu.Lock()
	if !v.closed {
		v.hist = h
		v.histDirty = true
	}
	v.mu.Unlock()
}

// SetImage hands a new frame to both evaluators. Passing nil clears the
// preview and the histogram.
func (v *Viewer) SetImage(im *grade.Image) {
	v.renderer.SetImage(im)
	v.engine.SetImage(im)
}

// SetParams hands a new parameter snapshot to both evaluators.
func (v *Viewer) SetParams(p grade.Params) {
	v.renderer.SetParams(p)
	v.engine.SetParams(p)
}

// Params returns the renderer's current parameter snapshot.
func (v *Viewer) Params() grade.Params {
	return v.renderer.Params()
}

// Renderer returns the embedded renderer, for state queries.
func (v *Viewer) Renderer() *grade.Renderer {
	return v.renderer
}

// Close stops the engine, closes the renderer and destroys the GPU
// textures. Close is idempotent.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	v.engine.Close()
	err := v.renderer.Close()
	v.frame.destroy()
	v.overlay.destroy()
	return err
}
