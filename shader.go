package grade

import "fmt"

// ShaderWorkgroupDim is the square workgroup edge of the generated compute
// shader. Dispatchers cover the image with ceil(width/dim) x ceil(height/dim)
// workgroups.
const ShaderWorkgroupDim = 8

// PipelineShaderWGSL returns the WGSL compute shader implementing Transform
// per pixel on the GPU.
//
// The source is generated from the same Go constants the CPU evaluator uses
// (luma weights, tone-mask edges, levels scale, gamma exponent), so the two
// evaluators share one set of formulas by construction instead of by
// discipline. The output is deterministic: identical constants yield an
// identical string.
//
// Bindings:
//
//	@binding(0) uniform FrameParams (nine controls + image dimensions)
//	@binding(1) read-only storage, the linear RGBA float pixels
//	@binding(2) read-write storage, one packed RGBA8 word per pixel
func PipelineShaderWGSL() string {
	return fmt.Sprintf(pipelineShaderTemplate,
		float64(ReferenceTemperature), // %[1]v
		float64(tintScale),            // %[2]v
		float64(lumaR),                // %[3]v
		float64(lumaG),                // %[4]v
		float64(lumaB),                // %[5]v
		float64(shadowEdge),           // %[6]v
		float64(highlightEdge),        // %[7]v
		float64(toneScale),            // %[8]v
		float64(levelsScale),          // %[9]v
		float64(minLevelsRange),       // %[10]v
		float64(gammaPow),             // %[11]v
		ShaderWorkgroupDim,            // %[12]d
	)
}

// pipelineShaderTemplate mirrors Transform stage by stage, including the
// identity gates, so default parameters reduce to the pure gamma encode on
// both evaluators.
const pipelineShaderTemplate = `// Generated by grade.PipelineShaderWGSL. Do not edit.

struct FrameParams {
    exposure: f32,
    contrast: f32,
    temperature: f32,
    tint: f32,
    highlights: f32,
    shadows: f32,
    whites: f32,
    blacks: f32,
    saturation: f32,
    width: u32,
    height: u32,
    _pad: u32,
}

@group(0) @binding(0) var<uniform> params: FrameParams;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;

fn smooth_edge(edge0: f32, edge1: f32, x: f32) -> f32 {
    let t = clamp((x - edge0) / (edge1 - edge0), 0.0, 1.0);
    return t * t * (3.0 - 2.0 * t);
}

fn gamma_encode(c: f32) -> f32 {
    if (c > 0.0) {
        return pow(c, %[11]v);
    }
    return 0.0;
}

fn quantize(c: f32) -> u32 {
    return u32(clamp(c, 0.0, 1.0) * 255.0);
}

@compute @workgroup_size(%[12]d, %[12]d, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x >= params.width || gid.y >= params.height) {
        return;
    }
    let pixel = gid.y * params.width + gid.x;
    let base = pixel * 4u;
    var r = src[base];
    var g = src[base + 1u];
    var b = src[base + 2u];

    // 1. White balance.
    let ratio = (params.temperature - %[1]v) / %[1]v;
    r = r * (1.0 + max(ratio, 0.0));
    g = g * (1.0 + params.tint / %[2]v);
    b = b * (1.0 - min(ratio, 0.0));

    // 2. Exposure.
    if (params.exposure != 0.0) {
        let m = exp2(params.exposure);
        r = r * m;
        g = g * m;
        b = b * m;
    }

    // 3. Contrast.
    if (params.contrast != 0.0) {
        let f = (1.0 + params.contrast) * (1.0 + params.contrast);
        r = (r - 0.5) * f + 0.5;
        g = (g - 0.5) * f + 0.5;
        b = (b - 0.5) * f + 0.5;
    }

    // 4. Tone mapping, masked by post-contrast luma.
    let luma = %[3]v * r + %[4]v * g + %[5]v * b;

    if (params.shadows != 0.0) {
        let mask = 1.0 - smooth_edge(0.0, %[6]v, luma);
        let lift = (exp2(params.shadows) - 1.0) * mask * %[8]v;
        r = r + r * lift;
        g = g + g * lift;
        b = b + b * lift;
    }

    if (params.highlights != 0.0) {
        let mask = smooth_edge(%[7]v, 1.0, luma);
        let gain = (exp2(params.highlights) - 1.0) * mask * %[8]v;
        r = r + r * gain;
        g = g + g * gain;
        b = b + b * gain;
    }

    // 5. Levels.
    let black_point = params.blacks * %[9]v;
    let rng = max(1.0 + params.whites * %[9]v - black_point, %[10]v);
    r = (r - black_point) / rng;
    g = (g - black_point) / rng;
    b = (b - black_point) / rng;

    // 6. Saturation around leveled luma.
    if (params.saturation != 0.0) {
        let l = %[3]v * r + %[4]v * g + %[5]v * b;
        let m = 1.0 + params.saturation;
        r = l + (r - l) * m;
        g = l + (g - l) * m;
        b = l + (b - l) * m;
    }

    // 7. Gamma encode and pack little-endian RGBA8.
    let pr = quantize(gamma_encode(r));
    let pg = quantize(gamma_encode(g));
    let pb = quantize(gamma_encode(b));
    dst[pixel] = pr | (pg << 8u) | (pb << 16u) | (255u << 24u);
}
`
