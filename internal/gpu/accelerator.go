// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/grade"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// PipelineAccelerator evaluates the grading pipeline on the GPU with a
// single compute dispatch per frame. It implements grade.GPUAccelerator.
//
// The source image lives in a device-resident float buffer uploaded once
// per SetImage; each RenderFrame rewrites a 48-byte uniform and dispatches
// one workgroup per 8x8 pixel tile, then reads the packed RGBA8 output
// back through a staging buffer.
type PipelineAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *frameDispatcher

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// Interface compliance checks.
var _ grade.GPUAccelerator = (*PipelineAccelerator)(nil)
var _ grade.DeviceProviderAware = (*PipelineAccelerator)(nil)

// Name returns the accelerator identifier.
func (a *PipelineAccelerator) Name() string { return "grade-compute" }

// Init registers the accelerator. GPU device initialization is deferred
// until the first SetImage or until SetDeviceProvider is called, to avoid
// creating a standalone Vulkan device that may interfere with an external
// DX12/Metal device provided later.
func (a *PipelineAccelerator) Init() error {
	return nil
}

// Close releases all GPU resources held by the accelerator.
func (a *PipelineAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}

	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
			a.device = nil
		}
		if a.instance != nil {
			a.instance.Destroy()
			a.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		a.device = nil
		a.instance = nil
	}
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger sets the logger for the GPU accelerator and its internal
// packages. Called by grade.SetLogger to propagate logging configuration.
func (a *PipelineAccelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches the accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *PipelineAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("grade-compute: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("grade-compute: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("grade-compute: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Destroy own resources if we created them.
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	// Use provided resources.
	a.device = device
	a.queue = queue
	a.externalDevice = true

	// Build the compute pipeline on the provided device/queue.
	dispatcher := newFrameDispatcher(device, queue)
	if err := dispatcher.Init(); err != nil {
		slogger().Warn("grade-compute: pipeline init failed, compute unavailable", "error", err)
		// Still mark gpuReady -- device is valid, just compute isn't available.
		a.gpuReady = true
		return nil
	}
	a.dispatcher = dispatcher

	a.gpuReady = true
	slogger().Debug("grade-compute: switched to shared GPU device")
	return nil
}

// SetImage uploads im to the device, replacing any previous image.
// A nil image releases the device-side pixel buffers. The first non-nil
// upload triggers standalone device initialization when no external
// provider was set.
func (a *PipelineAccelerator) SetImage(im *grade.Image) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if im == nil {
		if a.dispatcher != nil {
			a.dispatcher.SetImage(nil)
		}
		return nil
	}

	if !a.gpuReady {
		if err := a.initGPU(); err != nil {
			return fmt.Errorf("grade-compute: init: %w", err)
		}
	}
	if a.dispatcher == nil {
		return fmt.Errorf("grade-compute: compute pipeline unavailable")
	}
	if err := a.dispatcher.SetImage(im); err != nil {
		return fmt.Errorf("grade-compute: upload image: %w", err)
	}
	return nil
}

// RenderFrame evaluates the pipeline for the uploaded image with the given
// parameters and writes packed RGBA8 pixels into dst. Returns
// grade.ErrFallbackToCPU when no image has been uploaded or the compute
// pipeline is unavailable.
func (a *PipelineAccelerator) RenderFrame(p grade.Params, dst *grade.Pixmap) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.gpuReady || a.dispatcher == nil || !a.dispatcher.HasImage() {
		return grade.ErrFallbackToCPU
	}
	return a.dispatcher.Render(p, dst)
}

// initGPU creates a standalone Vulkan device for compute-only use.
// This is the fallback path when no external device is provided via
// SetDeviceProvider (e.g., headless export or tests without a window).
func (a *PipelineAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		a.instance = nil
		return fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		a.instance = nil
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue

	dispatcher := newFrameDispatcher(a.device, a.queue)
	if err := dispatcher.Init(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.instance.Destroy()
		a.instance = nil
		a.queue = nil
		return fmt.Errorf("build pipeline: %w", err)
	}
	a.dispatcher = dispatcher

	a.gpuReady = true
	slogger().Info("grade-compute: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}
