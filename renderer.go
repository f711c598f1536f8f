package grade

import (
	"errors"
	"sync"
)

// ErrRendererClosed is returned by Frame after Close.
var ErrRendererClosed = errors.New("grade: renderer is closed")

// RenderState describes what the Renderer will present on the next frame.
type RenderState int

const (
	// StateNoImage means no image is loaded; Frame serves a cleared
	// placeholder so a continuous presentation loop never has to skip a
	// tick.
	StateNoImage RenderState = iota

	// StateReady means an image is loaded and Frame evaluates the full
	// pipeline for every pixel.
	StateReady
)

// String returns the render state name.
func (s RenderState) String() string {
	switch s {
	case StateNoImage:
		return "NoImage"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Renderer presents the pipeline evaluated over every pixel of the current
// image, reflecting the latest parameters with minimal latency.
//
// Frame is designed to be called once per display tick by a continuous,
// unconditional presentation loop: it is total in both states and never
// stops producing frames once started. Evaluation happens on the registered
// GPU accelerator when available and falls back to the CPU worker pool
// otherwise. The output pixmap is persistent and resized only on image
// change; white-balance gains and every other parameter-derived value are
// recomputed from the snapshot on each frame, never cached across frames.
//
// SetImage and SetParams may be called from any goroutine; they serialize
// with in-flight frames. Frame itself is meant for a single presentation
// goroutine.
type Renderer struct {
	mu sync.Mutex

	img    *Image
	params Params
	state  RenderState

	target      *Pixmap // sized to the current image
	placeholder *Pixmap // served while no image is loaded

	soft *softwareEvaluator

	softwareOnly bool
	accelBroken  bool // capability failure observed; accelerator not retried
	closed       bool
}

// NewRenderer creates a renderer in StateNoImage with default parameters.
func NewRenderer(opts ...RendererOption) *Renderer {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		params:       DefaultParams(),
		state:        StateNoImage,
		placeholder:  NewPixmap(o.placeholderW, o.placeholderH),
		soft:         newSoftwareEvaluator(o.workers),
		softwareOnly: o.softwareOnly,
	}
}

// SetImage replaces the current image wholesale. The persistent render
// target is resized to the new dimensions and the image is uploaded to the
// accelerator's device storage. A nil image returns the renderer to
// StateNoImage and releases per-image device resources.
//
// An accelerator upload failure is treated as a one-time environment
// capability verdict: it is logged, the accelerator is not consulted again
// for this renderer, and frames keep flowing through the CPU path.
func (r *Renderer) SetImage(im *Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.img = im
	if im == nil {
		r.state = StateNoImage
		r.uploadLocked(nil)
		return
	}

	r.state = StateReady
	if r.target == nil {
		r.target = NewPixmap(im.Width, im.Height)
	} else {
		r.target.Resize(im.Width, im.Height)
	}
	r.uploadLocked(im)
}

// uploadLocked pushes the image to the registered accelerator, if this
// renderer still uses one.
func (r *Renderer) uploadLocked(im *Image) {
	if r.softwareOnly || r.accelBroken {
		return
	}
	a := Accelerator()
	if a == nil {
		return
	}
	if err := a.SetImage(im); err != nil {
		Logger().Warn("grade: accelerator image upload failed, using CPU path",
			"accelerator", a.Name(), "err", err)
		r.accelBroken = true
	}
}

// SetParams stores a new parameter snapshot for subsequent frames.
func (r *Renderer) SetParams(p Params) {
	r.mu.Lock()
	r.params = p
	r.mu.Unlock()
}

// Params returns the current parameter snapshot.
func (r *Renderer) Params() Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// State returns the current render state.
func (r *Renderer) State() RenderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Frame renders one frame and returns the persistent output pixmap.
//
// In StateNoImage the returned pixmap is the cleared placeholder: present
// it and keep ticking. In StateReady every pixel of the image is evaluated
// with the current parameter snapshot. The returned pixmap is owned by the
// Renderer and valid until the next Frame or SetImage call.
func (r *Renderer) Frame() (*Pixmap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRendererClosed
	}

	if r.state == StateNoImage {
		r.placeholder.Clear(0, 0, 0, 0)
		return r.placeholder, nil
	}

	if !r.softwareOnly && !r.accelBroken {
		if a := Accelerator(); a != nil {
			err := a.RenderFrame(r.params, r.target)
			if err == nil {
				return r.target, nil
			}
			if errors.Is(err, ErrFallbackToCPU) {
				Logger().Debug("grade: accelerator declined frame",
					"accelerator", a.Name())
			} else {
				Logger().Warn("grade: accelerator frame failed, using CPU path",
					"accelerator", a.Name(), "err", err)
				r.accelBroken = true
			}
		}
	}

	r.soft.renderFrame(r.img, r.params, r.target)
	return r.target, nil
}

// Close releases the renderer's resources: the CPU worker pool and any
// per-image device storage held by the accelerator. Frame returns
// ErrRendererClosed afterwards. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.img = nil
	r.state = StateNoImage

	if !r.softwareOnly && !r.accelBroken {
		if a := Accelerator(); a != nil {
			if err := a.SetImage(nil); err != nil {
				Logger().Warn("grade: accelerator release failed",
					"accelerator", a.Name(), "err", err)
			}
		}
	}
	r.soft.close()
	return nil
}
