package grade

import "math"

// Pipeline constants shared by the CPU evaluator and the generated WGSL
// shader (shader.go stamps these into the compute source, so the two
// evaluators cannot drift). Untyped so they convert exactly in both worlds.
const (
	// Rec. 709 luma weights.
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722

	// Tone-mapping mask edges: shadows fade out by shadowEdge, highlights
	// fade in from highlightEdge to 1.
	shadowEdge    = 0.6
	highlightEdge = 0.4

	// Strength scale applied to the exp2-derived shadow lift and
	// highlight gain.
	toneScale = 0.5

	// Levels: black/white point travel per unit of Blacks/Whites, and the
	// floor that keeps the range division finite.
	levelsScale    = 0.2
	minLevelsRange = 0.001

	// Tint divisor mapping the [-50,50] control onto a green gain.
	tintScale = 100.0

	// Display gamma exponent.
	gammaPow = 1.0 / 2.2
)

// Transform applies the full grading pipeline to one linear RGB triple and
// returns the gamma-encoded result. It is pure and deterministic: no state,
// no allocation, bit-identical outputs for identical inputs.
//
// Stage order is fixed and load-bearing: white balance and exposure precede
// tone mapping because the tone masks depend on post-exposure luminance, and
// levels precede saturation because saturation pivots on leveled luminance.
// Intermediate values are never clamped to [0,1]; only the final gamma stage
// floors non-positive channels to zero. Out-of-range parameters produce
// finite (if extreme) output rather than errors.
//
// At DefaultParams every stage before the gamma encode is an exact identity,
// so Transform(c) == c^(1/2.2) for positive c and 0 otherwise.
func Transform(r, g, b float32, p Params) (float32, float32, float32) {
	// 1. White balance. Gains derive from the distance to the 5500 K
	// reference: warm temperatures gain red, cool ones gain blue, tint
	// gains green.
	ratio := (p.Temperature - ReferenceTemperature) / ReferenceTemperature
	gainR := float32(1)
	gainB := float32(1)
	if ratio > 0 {
		gainR += ratio
	} else {
		gainB -= ratio
	}
	gainG := 1 + p.Tint/tintScale

	r *= gainR
	g *= gainG
	b *= gainB

	// 2. Exposure, in stops.
	if p.Exposure != 0 {
		m := exp2f(p.Exposure)
		r *= m
		g *= m
		b *= m
	}

	// 3. Contrast around middle gray.
	if p.Contrast != 0 {
		f := (1 + p.Contrast) * (1 + p.Contrast)
		r = (r-0.5)*f + 0.5
		g = (g-0.5)*f + 0.5
		b = (b-0.5)*f + 0.5
	}

	// 4. Shadow lift and highlight gain, masked by post-contrast luma.
	luma := lumaR*r + lumaG*g + lumaB*b

	if p.Shadows != 0 {
		mask := 1 - smoothstepf(0, shadowEdge, luma)
		lift := (exp2f(p.Shadows) - 1) * mask * toneScale
		r += r * lift
		g += g * lift
		b += b * lift
	}

	if p.Highlights != 0 {
		mask := smoothstepf(highlightEdge, 1, luma)
		gain := (exp2f(p.Highlights) - 1) * mask * toneScale
		r += r * gain
		g += g * gain
		b += b * gain
	}

	// 5. Levels. The range floor guards the division when the white point
	// collapses onto the black point.
	blackPoint := p.Blacks * levelsScale
	rng := 1 + p.Whites*levelsScale - blackPoint
	if rng < minLevelsRange {
		rng = minLevelsRange
	}
	r = (r - blackPoint) / rng
	g = (g - blackPoint) / rng
	b = (b - blackPoint) / rng

	// 6. Saturation pivots on leveled luma.
	if p.Saturation != 0 {
		l := lumaR*r + lumaG*g + lumaB*b
		m := 1 + p.Saturation
		r = l + (r-l)*m
		g = l + (g-l)*m
		b = l + (b-l)*m
	}

	// 7. Gamma encode. Non-positive channels floor to zero so no negative
	// base ever reaches the fractional power.
	return gammaEncode(r), gammaEncode(g), gammaEncode(b)
}

func gammaEncode(c float32) float32 {
	if c > 0 {
		return powf(c, gammaPow)
	}
	return 0
}

// smoothstepf is the cubic Hermite ease between edge0 and edge1.
func smoothstepf(edge0, edge1, x float32) float32 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func exp2f(x float32) float32 {
	return float32(math.Exp2(float64(x)))
}

func powf(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}
