// Package grade is a non-destructive color-grading preview engine for
// linear-light RGB images, built on the GoGPU ecosystem.
//
// # Overview
//
// grade takes a decoded linear RGBA float buffer (typically a demosaiced RAW
// photograph) and applies a fixed sequence of photographic adjustments: white
// balance, exposure, contrast, shadow/highlight tone mapping, levels,
// saturation and a final gamma encode. The same pipeline is evaluated twice:
// per pixel on the GPU (or a parallel CPU fallback) for the full-resolution
// display frame, and over a sampled pixel subset on the CPU to build the
// channel/luminance histogram. Both evaluators share one set of formulas and
// constants so they cannot drift apart.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/grade"
//		"github.com/gogpu/grade/decode"
//		_ "github.com/gogpu/grade/gpu" // enable GPU acceleration
//	)
//
//	img, err := decode.Decode("shot.dng", decode.WithTargetWidth(1024))
//	if err != nil {
//		// decode failures are surfaced verbatim; keep the previous image
//	}
//
//	r := grade.NewRenderer()
//	defer r.Close()
//	r.SetImage(img)
//
//	p := grade.DefaultParams()
//	p.Exposure = 0.7
//	r.SetParams(p)
//
//	frame, _ := r.Frame() // call once per display tick
//	_ = frame.SavePNG("preview.png")
//
// # Architecture
//
//   - Public API: Params, Transform, Image, Histogram, Renderer,
//     HistogramEngine, Pixmap
//   - decode: the image-acquisition boundary (linear DNG/TIFF built in)
//   - histview: histogram overlay rasterization
//   - viewer: gogpu window presentation glue
//   - internal/gpu: wgpu/hal compute path for the per-pixel transform
//   - internal/parallel: worker pool for the CPU paths
//
// # Evaluation model
//
// Renderer runs a continuous, unconditional frame loop: Frame is total in both
// renderer states (no image loaded yields a cleared placeholder, never an
// error). HistogramEngine debounces parameter scrubbing with a cancellable
// 50 ms task; only the latest scheduled computation commits its result.
package grade

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
