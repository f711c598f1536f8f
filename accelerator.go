package grade

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the GPU accelerator cannot evaluate this frame.
// The caller should transparently fall back to CPU evaluation.
var ErrFallbackToCPU = errors.New("grade: falling back to CPU evaluation")

// GPUAccelerator is an optional GPU evaluation provider for the per-pixel
// pipeline.
//
// When registered via RegisterAccelerator, Renderer tries the accelerator
// first for every frame. If the accelerator returns ErrFallbackToCPU or any
// other error, the frame is evaluated on the CPU worker pool instead.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/grade/gpu" // enables GPU acceleration
type GPUAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-compute").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	// A failed Init is a one-time environment capability verdict: the
	// accelerator is not registered and is never retried.
	Init() error

	// Close releases GPU resources.
	Close()

	// SetImage uploads im verbatim into device-resident float storage,
	// replacing any previous upload and its dependent resources. A nil
	// image releases the per-image resources.
	SetImage(im *Image) error

	// RenderFrame evaluates Transform for every pixel of the uploaded
	// image with params p and writes 8-bit RGBA into dst, which is sized
	// to the image. Returns ErrFallbackToCPU if no image is uploaded or
	// the device path is unavailable.
	RenderFrame(p Params, dst *Pixmap) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share GPU resources with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the accelerator reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator registers a GPU accelerator for optional GPU
// evaluation.
//
// Only one accelerator can be registered. Subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration; if it fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via blank import in GPU backend packages:
//
//	func init() {
//	    grade.RegisterAccelerator(New())
//	}
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("grade: accelerator must not be nil")
	}
	propagateLogger(a, Logger())
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Accelerator returns the currently registered GPU accelerator, or nil if
// none.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// CloseAccelerator closes and unregisters the current accelerator. Call it
// during application shutdown, while the GPU device is still alive, so
// session resources (pipelines, persistent buffers) are released cleanly.
func CloseAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it does not support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
