// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// compute.go defines the GPU dispatch path for the grading pipeline: one
// compute pipeline compiled from the generated WGSL source, a device-resident
// float source image, and a per-frame uniform rewrite + dispatch + readback.

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/grade"
)

const (
	// frameFenceTimeout is the maximum time to wait for GPU work to complete.
	frameFenceTimeout = 5 * time.Second

	// frameUniformSize is the byte size of the FrameParams uniform:
	// nine f32 controls plus width, height and one pad word.
	frameUniformSize = 48
)

// frameDispatcher owns the compute pipeline and the device-side buffers for
// one image. The pipeline, layouts and uniform buffer live for the dispatcher
// session; the source, output and staging buffers are replaced on SetImage.
//
// Buffer bindings match the generated shader (grade.PipelineShaderWGSL):
//
//	@binding(0) uniform FrameParams
//	@binding(1) storage(read)       source pixels, RGBA f32 per pixel
//	@binding(2) storage(read_write) output, one packed RGBA8 word per pixel
type frameDispatcher struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	shaderModule   hal.ShaderModule
	bgLayout       hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.ComputePipeline

	// uniformBuf holds FrameParams, rewritten before every dispatch.
	uniformBuf hal.Buffer

	// Per-image buffers, replaced on SetImage.
	srcBuf     hal.Buffer
	dstBuf     hal.Buffer
	stagingBuf hal.Buffer
	width      int
	height     int

	initialized bool
}

// newFrameDispatcher creates a dispatcher attached to the given HAL device
// and queue. Init must be called before Render.
func newFrameDispatcher(device hal.Device, queue hal.Queue) *frameDispatcher {
	return &frameDispatcher{device: device, queue: queue}
}

// compileShader compiles WGSL source to a SPIR-V word slice.
// SPIR-V is little-endian 32-bit words.
func compileShader(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// Init compiles the pipeline shader and creates the compute pipeline and
// the session uniform buffer. Safe to call more than once; subsequent calls
// are no-ops when already initialized.
func (d *frameDispatcher) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	wgsl := grade.PipelineShaderWGSL()
	spirv, err := compileShader(wgsl)
	if err != nil {
		return fmt.Errorf("frame pipeline: %w", err)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "grade_frame",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("frame pipeline: create shader module: %w", err)
	}
	d.shaderModule = module

	bgLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "grade_frame_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		d.destroyPipelineLocked()
		return fmt.Errorf("frame pipeline: create bind group layout: %w", err)
	}
	d.bgLayout = bgLayout

	pipelineLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "grade_frame_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		d.destroyPipelineLocked()
		return fmt.Errorf("frame pipeline: create pipeline layout: %w", err)
	}
	d.pipelineLayout = pipelineLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "grade_frame",
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		d.destroyPipelineLocked()
		return fmt.Errorf("frame pipeline: create compute pipeline: %w", err)
	}
	d.pipeline = pipeline

	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_frame_params",
		Size:  frameUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.destroyPipelineLocked()
		return fmt.Errorf("frame pipeline: create uniform buffer: %w", err)
	}
	d.uniformBuf = uniformBuf

	d.initialized = true
	slogger().Debug("frame pipeline created", "shader_bytes", len(wgsl), "spirv_words", len(spirv))
	return nil
}

// destroyPipelineLocked releases pipeline-session resources in reverse
// creation order. Partial initialization leaves later fields nil, so every
// destroy is guarded.
func (d *frameDispatcher) destroyPipelineLocked() {
	if d.uniformBuf != nil {
		d.device.DestroyBuffer(d.uniformBuf)
		d.uniformBuf = nil
	}
	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipelineLayout != nil {
		d.device.DestroyPipelineLayout(d.pipelineLayout)
		d.pipelineLayout = nil
	}
	if d.bgLayout != nil {
		d.device.DestroyBindGroupLayout(d.bgLayout)
		d.bgLayout = nil
	}
	if d.shaderModule != nil {
		d.device.DestroyShaderModule(d.shaderModule)
		d.shaderModule = nil
	}
}

// releaseImageLocked destroys the per-image buffers, if any.
func (d *frameDispatcher) releaseImageLocked() {
	if d.srcBuf != nil {
		d.device.DestroyBuffer(d.srcBuf)
		d.srcBuf = nil
	}
	if d.dstBuf != nil {
		d.device.DestroyBuffer(d.dstBuf)
		d.dstBuf = nil
	}
	if d.stagingBuf != nil {
		d.device.DestroyBuffer(d.stagingBuf)
		d.stagingBuf = nil
	}
	d.width = 0
	d.height = 0
}

// Close releases all GPU resources held by the dispatcher.
func (d *frameDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.releaseImageLocked()
	d.destroyPipelineLocked()
	d.initialized = false
}

// HasImage reports whether an image is currently resident on the device.
func (d *frameDispatcher) HasImage() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.srcBuf != nil
}

// SetImage uploads im into a fresh set of device buffers, replacing any
// previous image. A nil image just releases the buffers.
func (d *frameDispatcher) SetImage(im *grade.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.releaseImageLocked()
	if im == nil {
		return nil
	}
	if !d.initialized {
		return fmt.Errorf("frame pipeline: dispatcher not initialized, call Init() first")
	}

	pixelCount := uint64(im.Width) * uint64(im.Height)
	srcSize := pixelCount * 16 // RGBA f32
	outSize := pixelCount * 4  // packed RGBA8 word

	srcBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_frame_src",
		Size:  srcSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create source buffer: %w", err)
	}
	dstBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_frame_dst",
		Size:  outSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		d.device.DestroyBuffer(srcBuf)
		return fmt.Errorf("create output buffer: %w", err)
	}
	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_frame_staging",
		Size:  outSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(srcBuf)
		d.device.DestroyBuffer(dstBuf)
		return fmt.Errorf("create staging buffer: %w", err)
	}

	d.queue.WriteBuffer(srcBuf, 0, floatBytes(im.Pix))

	d.srcBuf = srcBuf
	d.dstBuf = dstBuf
	d.stagingBuf = stagingBuf
	d.width = im.Width
	d.height = im.Height

	slogger().Debug("frame source uploaded",
		"size", fmt.Sprintf("%dx%d", im.Width, im.Height),
		"bytes", srcSize)
	return nil
}

// Render dispatches one frame for the resident image and reads the packed
// RGBA8 result back into dst. The target must match the image dimensions.
func (d *frameDispatcher) Render(p grade.Params, dst *grade.Pixmap) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized || d.srcBuf == nil {
		return grade.ErrFallbackToCPU
	}
	if dst == nil || dst.Width() != d.width || dst.Height() != d.height {
		return fmt.Errorf("frame dispatch: target does not match image %dx%d", d.width, d.height)
	}

	d.queue.WriteBuffer(d.uniformBuf, 0, frameParamsBytes(p, d.width, d.height))

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "grade_frame_bg",
		Layout: d.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: d.uniformBuf.NativeHandle()}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: d.srcBuf.NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: d.dstBuf.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("frame dispatch: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "grade_frame"})
	if err != nil {
		return fmt.Errorf("frame dispatch: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("grade_frame"); err != nil {
		return fmt.Errorf("frame dispatch: begin encoding: %w", err)
	}

	wg := uint32(grade.ShaderWorkgroupDim)
	w, h := uint32(d.width), uint32(d.height) //nolint:gosec // dimensions always fit uint32

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "grade_frame"})
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((w+wg-1)/wg, (h+wg-1)/wg, 1)
	pass.End()

	outSize := uint64(d.width) * uint64(d.height) * 4
	encoder.CopyBufferToBuffer(d.dstBuf, d.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: outSize},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("frame dispatch: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("frame dispatch: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("frame dispatch: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, frameFenceTimeout)
	if err != nil {
		return fmt.Errorf("frame dispatch: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("frame dispatch: GPU timeout after %v", frameFenceTimeout)
	}

	// The packed word layout (R in the low byte, little-endian) matches the
	// pixmap's RGBA byte order, so the staging contents are the frame.
	if err := d.queue.ReadBuffer(d.stagingBuf, 0, dst.Data()); err != nil {
		return fmt.Errorf("frame dispatch: readback: %w", err)
	}
	return nil
}

// frameParamsBytes serializes FrameParams in the layout the shader declares:
// nine f32 controls, then width, height and a pad word, little-endian.
func frameParamsBytes(p grade.Params, width, height int) []byte {
	buf := make([]byte, frameUniformSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], math.Float32bits(p.Exposure))
	le.PutUint32(buf[4:8], math.Float32bits(p.Contrast))
	le.PutUint32(buf[8:12], math.Float32bits(p.Temperature))
	le.PutUint32(buf[12:16], math.Float32bits(p.Tint))
	le.PutUint32(buf[16:20], math.Float32bits(p.Highlights))
	le.PutUint32(buf[20:24], math.Float32bits(p.Shadows))
	le.PutUint32(buf[24:28], math.Float32bits(p.Whites))
	le.PutUint32(buf[28:32], math.Float32bits(p.Blacks))
	le.PutUint32(buf[32:36], math.Float32bits(p.Saturation))
	le.PutUint32(buf[36:40], uint32(width))  //nolint:gosec // dimensions always fit uint32
	le.PutUint32(buf[40:44], uint32(height)) //nolint:gosec // dimensions always fit uint32
	// buf[44:48] stays zero (pad).
	return buf
}

// floatBytes serializes a float32 slice to little-endian bytes for upload.
func floatBytes(src []float32) []byte {
	buf := make([]byte, len(src)*4)
	for i, f := range src {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
