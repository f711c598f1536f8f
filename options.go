package grade

import "time"

// RendererOption configures a Renderer during creation.
//
// Example:
//
//	// Default: GPU accelerator when registered, CPU fallback otherwise
//	r := grade.NewRenderer()
//
//	// Force CPU evaluation with four workers
//	r := grade.NewRenderer(grade.WithSoftwareOnly(), grade.WithWorkers(4))
type RendererOption func(*rendererOptions)

// rendererOptions holds optional configuration for Renderer creation.
type rendererOptions struct {
	workers      int
	softwareOnly bool
	placeholderW int
	placeholderH int
}

// defaultRendererOptions returns the default renderer options.
func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		workers:      0, // GOMAXPROCS
		placeholderW: 64,
		placeholderH: 64,
	}
}

// WithWorkers sets the CPU worker count for software evaluation.
// Zero or negative selects GOMAXPROCS.
func WithWorkers(n int) RendererOption {
	return func(o *rendererOptions) {
		o.workers = n
	}
}

// WithSoftwareOnly disables the GPU accelerator for this renderer, forcing
// every frame through the CPU path. Useful for tests and headless export
// tools.
func WithSoftwareOnly() RendererOption {
	return func(o *rendererOptions) {
		o.softwareOnly = true
	}
}

// WithPlaceholderSize sets the dimensions of the cleared placeholder frame
// served while no image is loaded.
func WithPlaceholderSize(width, height int) RendererOption {
	return func(o *rendererOptions) {
		if width > 0 && height > 0 {
			o.placeholderW = width
			o.placeholderH = height
		}
	}
}

// EngineOption configures a HistogramEngine during creation.
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for HistogramEngine creation.
type engineOptions struct {
	debounce time.Duration
}

// defaultEngineOptions returns the default engine options.
func defaultEngineOptions() engineOptions {
	return engineOptions{debounce: DefaultDebounce}
}

// WithDebounce sets the delay between the last image/parameter change and
// the histogram recomputation. Rapid changes within the window coalesce into
// one computation.
func WithDebounce(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}
