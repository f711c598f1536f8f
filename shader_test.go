package grade

import (
	"fmt"
	"strings"
	"testing"
)

func TestPipelineShaderWGSL_Deterministic(t *testing.T) {
	if PipelineShaderWGSL() != PipelineShaderWGSL() {
		t.Fatal("generated shader source differs between calls")
	}
}

func TestPipelineShaderWGSL_StampsConstants(t *testing.T) {
	src := PipelineShaderWGSL()

	// Every Go-side pipeline constant must land in the generated source,
	// so the two evaluators share one set of formulas.
	wants := []string{
		"let ratio = (params.temperature - 5500) / 5500;",
		"params.tint / 100",
		"let luma = 0.2126 * r + 0.7152 * g + 0.0722 * b;",
		"smooth_edge(0.0, 0.6, luma)",
		"smooth_edge(0.4, 1.0, luma)",
		"let black_point = params.blacks * 0.2;",
		"max(1.0 + params.whites * 0.2 - black_point, 0.001)",
		fmt.Sprintf("pow(c, %v)", float64(gammaPow)),
		fmt.Sprintf("@workgroup_size(%d, %d, 1)", ShaderWorkgroupDim, ShaderWorkgroupDim),
	}
	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestPipelineShaderWGSL_IdentityGates(t *testing.T) {
	src := PipelineShaderWGSL()

	// The gates mirror Transform: a zero control skips its stage entirely,
	// so defaults reduce to the pure gamma encode on the GPU too.
	gates := []string{
		"if (params.exposure != 0.0)",
		"if (params.contrast != 0.0)",
		"if (params.shadows != 0.0)",
		"if (params.highlights != 0.0)",
		"if (params.saturation != 0.0)",
	}
	for _, gate := range gates {
		if !strings.Contains(src, gate) {
			t.Errorf("shader source missing identity gate %q", gate)
		}
	}
}

func TestPipelineShaderWGSL_Bindings(t *testing.T) {
	src := PipelineShaderWGSL()

	wants := []string{
		"@group(0) @binding(0) var<uniform> params: FrameParams;",
		"@group(0) @binding(1) var<storage, read> src: array<f32>;",
		"@group(0) @binding(2) var<storage, read_write> dst: array<u32>;",
		"@compute",
		"fn main(@builtin(global_invocation_id) gid: vec3<u32>)",
	}
	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestPipelineShaderWGSL_UniformLayout(t *testing.T) {
	src := PipelineShaderWGSL()

	// Field order must match the Go-side uniform packing: nine f32
	// controls, then dimensions, then explicit padding.
	fields := []string{
		"exposure: f32",
		"contrast: f32",
		"temperature: f32",
		"tint: f32",
		"highlights: f32",
		"shadows: f32",
		"whites: f32",
		"blacks: f32",
		"saturation: f32",
		"width: u32",
		"height: u32",
		"_pad: u32",
	}
	pos := -1
	for _, f := range fields {
		i := strings.Index(src, f)
		if i < 0 {
			t.Fatalf("shader source missing uniform field %q", f)
		}
		if i < pos {
			t.Errorf("uniform field %q out of order", f)
		}
		pos = i
	}
}

func TestPipelineShaderWGSL_OutputPacking(t *testing.T) {
	src := PipelineShaderWGSL()

	// Little-endian RGBA8: red in the low byte, opaque alpha in the high.
	if !strings.Contains(src, "dst[pixel] = pr | (pg << 8u) | (pb << 16u) | (255u << 24u);") {
		t.Error("shader source missing packed RGBA8 store")
	}

	// Bounds guard against partial edge workgroups.
	if !strings.Contains(src, "if (gid.x >= params.width || gid.y >= params.height)") {
		t.Error("shader source missing dispatch bounds guard")
	}
}
