//go:build !nogpu

// Package gpu registers the GPU accelerator for hardware-accelerated
// preview rendering.
//
// Import this package to evaluate the grading pipeline on the GPU: the
// accelerator keeps the source image device-resident and runs one compute
// dispatch per frame via wgpu/hal.
//
// If GPU initialization fails (no Vulkan available), rendering falls back
// to the CPU evaluator with identical output.
//
// Usage:
//
//	import _ "github.com/gogpu/grade/gpu" // enable GPU acceleration
package gpu

import (
	"github.com/gogpu/grade"
	gpuimpl "github.com/gogpu/grade/internal/gpu"
)

func init() {
	accel := &gpuimpl.PipelineAccelerator{}
	if err := grade.RegisterAccelerator(accel); err != nil {
		grade.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). This avoids creating a separate
// GPU instance and enables efficient device sharing.
//
// The provider should be a gpucontext.DeviceProvider that also implements
// gpucontext.HalProvider for direct HAL access.
//
// Call this before the first SetImage, typically right after the window
// context comes up.
func SetDeviceProvider(provider any) error {
	return grade.SetAcceleratorDeviceProvider(provider)
}
