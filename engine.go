package grade

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last image or parameter change
// and the histogram recomputation. Scrubbing a slider produces one
// computation per pause instead of one per event.
const DefaultDebounce = 50 * time.Millisecond

// HistogramEngine recomputes the sampled histogram whenever the image or the
// parameters change, debounced so rapid changes coalesce.
//
// Scheduling is last-write-wins, keyed by a generation counter: every
// trigger bumps the generation, and a scheduled computation commits its
// result only if it is still the latest generation both before and after
// computing. A superseded computation is discarded silently, so a stale
// result can never overwrite a fresher one.
//
// The notify callback runs on a timer goroutine; implementations that touch
// shared state must synchronize. A nil histogram means the cleared state (no
// image loaded).
type HistogramEngine struct {
	mu sync.Mutex

	img    *Image
	params Params

	gen   uint64
	timer *time.Timer

	notify   func(*Histogram)
	debounce time.Duration
	closed   bool
}

// NewHistogramEngine creates an engine with default parameters and no image.
// notify receives every committed histogram, including the nil clear.
func NewHistogramEngine(notify func(*Histogram), opts ...EngineOption) *HistogramEngine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &HistogramEngine{
		params:   DefaultParams(),
		notify:   notify,
		debounce: o.debounce,
	}
}

// SetImage replaces the source image and schedules a recomputation. A nil
// image cancels any pending computation and immediately notifies with a nil
// histogram: the display clears rather than going stale.
func (e *HistogramEngine) SetImage(im *Image) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.img = im
	if im == nil {
		e.invalidateLocked()
		notify := e.notify
		e.mu.Unlock()
		if notify != nil {
			notify(nil)
		}
		return
	}
	e.scheduleLocked()
	e.mu.Unlock()
}

// SetParams stores a new parameter snapshot and schedules a recomputation.
// With no image loaded this is a no-op: the histogram is already cleared.
func (e *HistogramEngine) SetParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.params = p
	if e.img == nil {
		return
	}
	e.scheduleLocked()
}

// invalidateLocked supersedes any scheduled computation without starting a
// new one.
func (e *HistogramEngine) invalidateLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// scheduleLocked replaces the pending computation with a fresh one at the
// next generation.
func (e *HistogramEngine) scheduleLocked() {
	e.invalidateLocked()
	gen := e.gen
	e.timer = time.AfterFunc(e.debounce, func() {
		e.run(gen)
	})
}

// run executes a scheduled computation, honoring the generation check on
// both sides of the (potentially slow) sampling pass.
func (e *HistogramEngine) run(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	img, p := e.img, e.params
	e.mu.Unlock()

	h := ComputeHistogram(img, p)

	e.mu.Lock()
	stale := e.closed || gen != e.gen
	notify := e.notify
	e.mu.Unlock()
	if stale || notify == nil {
		return
	}
	notify(h)
}

// Close cancels any pending computation and stops the engine. Subsequent
// setter calls are no-ops. Close is idempotent.
func (e *HistogramEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.invalidateLocked()
}
