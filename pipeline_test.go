package grade

import (
	"math"
	"testing"
)

// f32Equal reports bitwise float32 equality, distinguishing 0 from -0 and
// catching one-ulp drift that a tolerance comparison would hide.
func f32Equal(a, b float32) bool {
	return math.Float32bits(a) == math.Float32bits(b)
}

func TestTransform_IdentityAtDefaults(t *testing.T) {
	// With default parameters every stage before the gamma encode must be
	// an exact identity, so the pipeline collapses to c^(1/2.2).
	inputs := []float32{-0.25, 0, 1e-6, 0.18, 0.5, 0.999, 1, 1.5}
	p := DefaultParams()

	for _, c := range inputs {
		r, g, b := Transform(c, c, c, p)
		want := gammaEncode(c)
		if !f32Equal(r, want) || !f32Equal(g, want) || !f32Equal(b, want) {
			t.Errorf("Transform(%v) = (%v, %v, %v), want all %v", c, r, g, b, want)
		}
	}

	// Spot-check the gamma curve itself.
	if r, _, _ := Transform(0.5, 0.5, 0.5, p); math.Abs(float64(r)-0.72974005) > 1e-6 {
		t.Errorf("Transform(0.5) = %v, want ~0.72974005", r)
	}
	if r, _, _ := Transform(1.5, 1.5, 1.5, p); r <= 1 {
		t.Errorf("Transform(1.5) = %v, want > 1 (no output clamp)", r)
	}
	if r, _, _ := Transform(-0.25, -0.25, -0.25, p); r != 0 {
		t.Errorf("Transform(-0.25) = %v, want 0 (gamma floor)", r)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	p := Params{
		Exposure: 0.7, Contrast: 0.2, Temperature: 7200, Tint: -12,
		Highlights: -0.4, Shadows: 0.6, Whites: 0.1, Blacks: -0.05,
		Saturation: 0.25,
	}
	r1, g1, b1 := Transform(0.31, 0.42, 0.53, p)
	r2, g2, b2 := Transform(0.31, 0.42, 0.53, p)
	if !f32Equal(r1, r2) || !f32Equal(g1, g2) || !f32Equal(b1, b2) {
		t.Errorf("repeat evaluation differs: (%v,%v,%v) vs (%v,%v,%v)", r1, g1, b1, r2, g2, b2)
	}
}

func TestTransform_ExposureStops(t *testing.T) {
	// One stop on middle gray doubles it exactly: 0.5 * 2^1 = 1, and the
	// remaining stages pass 1.0 through unchanged.
	p := DefaultParams()
	p.Exposure = 1
	r, g, b := Transform(0.5, 0.5, 0.5, p)
	if !f32Equal(r, 1) || !f32Equal(g, 1) || !f32Equal(b, 1) {
		t.Errorf("Transform(0.5, exposure=1) = (%v, %v, %v), want (1, 1, 1)", r, g, b)
	}
}

func TestTransform_ExposureMonotonic(t *testing.T) {
	prev := float32(-1)
	for _, e := range []float32{-3, -2, -1, 0, 1, 2, 3} {
		p := DefaultParams()
		p.Exposure = e
		r, _, _ := Transform(0.3, 0.3, 0.3, p)
		if r <= prev {
			t.Errorf("exposure %v: output %v not greater than %v at previous stop", e, r, prev)
		}
		prev = r
	}
}

func TestTransform_BlackStaysBlack(t *testing.T) {
	// Zero input survives gains, exposure, tone lifts and saturation: all
	// of them scale the channel, and scaling zero is zero.
	tests := []struct {
		name string
		p    func(Params) Params
	}{
		{"defaults", func(p Params) Params { return p }},
		{"exposure", func(p Params) Params { p.Exposure = 3; return p }},
		{"shadow lift", func(p Params) Params { p.Shadows = 1; return p }},
		{"highlight gain", func(p Params) Params { p.Highlights = 1; return p }},
		{"saturation", func(p Params) Params { p.Saturation = 1; return p }},
		{"warm temperature", func(p Params) Params { p.Temperature = 9000; return p }},
		{"raised blacks", func(p Params) Params { p.Blacks = 1; return p }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := Transform(0, 0, 0, tt.p(DefaultParams()))
			if r != 0 || g != 0 || b != 0 {
				t.Errorf("Transform(0,0,0) = (%v, %v, %v), want (0, 0, 0)", r, g, b)
			}
		})
	}
}

func TestTransform_NegativeContrastLiftsBlack(t *testing.T) {
	// Flattening contrast pulls zero toward middle gray before the gamma
	// encode, so pure black comes out above zero.
	p := DefaultParams()
	p.Contrast = -0.3
	f := (1 + p.Contrast) * (1 + p.Contrast)
	want := gammaEncode((0-0.5)*f + 0.5)

	r, g, b := Transform(0, 0, 0, p)
	if !f32Equal(r, want) || !f32Equal(g, want) || !f32Equal(b, want) {
		t.Errorf("Transform(0, contrast=-0.3) = (%v, %v, %v), want all %v", r, g, b, want)
	}
	if r <= 0 {
		t.Errorf("negative contrast should lift black above zero, got %v", r)
	}
}

func TestTransform_TemperatureGains(t *testing.T) {
	// Warm temperatures gain red only; cool ones gain blue only. The
	// untouched channels keep identical values.
	warm := DefaultParams()
	warm.Temperature = 8000
	r, g, b := Transform(0.5, 0.5, 0.5, warm)
	if r <= b {
		t.Errorf("temperature 8000: red %v not above blue %v", r, b)
	}
	if !f32Equal(g, b) {
		t.Errorf("temperature 8000: green %v and blue %v should match exactly", g, b)
	}

	cool := DefaultParams()
	cool.Temperature = 3000
	r, g, b = Transform(0.5, 0.5, 0.5, cool)
	if b <= r {
		t.Errorf("temperature 3000: blue %v not above red %v", b, r)
	}
	if !f32Equal(g, r) {
		t.Errorf("temperature 3000: green %v and red %v should match exactly", g, r)
	}

	// The gain follows the ratio formula exactly.
	ratio := (warm.Temperature - ReferenceTemperature) / ReferenceTemperature
	wantR := gammaEncode(0.5 * (1 + ratio))
	r, _, _ = Transform(0.5, 0.5, 0.5, warm)
	if !f32Equal(r, wantR) {
		t.Errorf("temperature 8000: red = %v, want %v", r, wantR)
	}
}

func TestTransform_TintGainsGreen(t *testing.T) {
	p := DefaultParams()
	p.Tint = 20
	r, g, b := Transform(0.5, 0.5, 0.5, p)
	if g <= r {
		t.Errorf("tint 20: green %v not above red %v", g, r)
	}
	if !f32Equal(r, b) {
		t.Errorf("tint 20: red %v and blue %v should match exactly", r, b)
	}

	wantG := gammaEncode(0.5 * (1 + p.Tint/tintScale))
	if !f32Equal(g, wantG) {
		t.Errorf("tint 20: green = %v, want %v", g, wantG)
	}
}

func TestTransform_ContrastPivot(t *testing.T) {
	p := DefaultParams()
	p.Contrast = 0.4

	// Middle gray is the fixed point.
	mid, _, _ := Transform(0.5, 0.5, 0.5, p)
	midDefault, _, _ := Transform(0.5, 0.5, 0.5, DefaultParams())
	if !f32Equal(mid, midDefault) {
		t.Errorf("contrast should not move middle gray: %v vs %v", mid, midDefault)
	}

	// Above the pivot brightens, below darkens.
	hi, _, _ := Transform(0.7, 0.7, 0.7, p)
	hiDefault, _, _ := Transform(0.7, 0.7, 0.7, DefaultParams())
	if hi <= hiDefault {
		t.Errorf("contrast 0.4 on 0.7: %v not above default %v", hi, hiDefault)
	}
	lo, _, _ := Transform(0.3, 0.3, 0.3, p)
	loDefault, _, _ := Transform(0.3, 0.3, 0.3, DefaultParams())
	if lo >= loDefault {
		t.Errorf("contrast 0.4 on 0.3: %v not below default %v", lo, loDefault)
	}
}

func TestTransform_ShadowMaskRange(t *testing.T) {
	// The shadow lift acts on dark pixels and leaves pixels past the mask
	// edge untouched, exactly.
	p := DefaultParams()
	p.Shadows = 1

	dark, _, _ := Transform(0.1, 0.1, 0.1, p)
	darkDefault, _, _ := Transform(0.1, 0.1, 0.1, DefaultParams())
	if dark <= darkDefault {
		t.Errorf("shadows 1 on 0.1: %v not above default %v", dark, darkDefault)
	}

	bright, _, _ := Transform(0.9, 0.9, 0.9, p)
	brightDefault, _, _ := Transform(0.9, 0.9, 0.9, DefaultParams())
	if !f32Equal(bright, brightDefault) {
		t.Errorf("shadows 1 on 0.9: %v should equal default %v (mask is zero)", bright, brightDefault)
	}
}

func TestTransform_HighlightMaskRange(t *testing.T) {
	p := DefaultParams()
	p.Highlights = 1

	bright, _, _ := Transform(0.9, 0.9, 0.9, p)
	brightDefault, _, _ := Transform(0.9, 0.9, 0.9, DefaultParams())
	if bright <= brightDefault {
		t.Errorf("highlights 1 on 0.9: %v not above default %v", bright, brightDefault)
	}

	dark, _, _ := Transform(0.2, 0.2, 0.2, p)
	darkDefault, _, _ := Transform(0.2, 0.2, 0.2, DefaultParams())
	if !f32Equal(dark, darkDefault) {
		t.Errorf("highlights 1 on 0.2: %v should equal default %v (mask is zero)", dark, darkDefault)
	}
}

func TestTransform_LevelsRemap(t *testing.T) {
	// Raising the black point pushes dark values under it to zero after
	// the gamma floor; lowering the white point brightens everything else.
	p := DefaultParams()
	p.Blacks = 1 // black point 0.2
	r, _, _ := Transform(0.1, 0.1, 0.1, p)
	if r != 0 {
		t.Errorf("blacks 1 on 0.1: got %v, want 0 (below black point)", r)
	}

	p = DefaultParams()
	p.Whites = -1 // white point 0.8
	r, _, _ = Transform(0.8, 0.8, 0.8, p)
	if !f32Equal(r, 1) {
		t.Errorf("whites -1 on 0.8: got %v, want exactly 1", r)
	}
}

func TestTransform_DegenerateRangeStaysFinite(t *testing.T) {
	// Far outside the control range the white point can collapse onto the
	// black point; the range floor keeps the division finite.
	p := DefaultParams()
	p.Whites = -5
	r, g, b := Transform(0.5, 0.5, 0.5, p)
	for _, c := range []float32{r, g, b} {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			t.Fatalf("degenerate levels range produced non-finite output: (%v, %v, %v)", r, g, b)
		}
	}
}

func TestTransform_SaturationCollapseToGray(t *testing.T) {
	// Saturation -1 replaces every channel with the luma pivot, so any
	// input collapses to equal channels.
	p := DefaultParams()
	p.Saturation = -1
	r, g, b := Transform(0.8, 0.3, 0.1, p)
	if !f32Equal(r, g) || !f32Equal(g, b) {
		t.Errorf("saturation -1: channels differ: (%v, %v, %v)", r, g, b)
	}
}

func TestTransform_SaturationSpread(t *testing.T) {
	// Positive saturation pushes channels away from luma: the strongest
	// channel grows, the weakest shrinks (pre-gamma, hence monotone after).
	p := DefaultParams()
	p.Saturation = 0.5
	r, _, b := Transform(0.8, 0.3, 0.1, p)
	r0, _, b0 := Transform(0.8, 0.3, 0.1, DefaultParams())
	if r <= r0 {
		t.Errorf("saturation 0.5: red %v not above neutral %v", r, r0)
	}
	if b >= b0 {
		t.Errorf("saturation 0.5: blue %v not below neutral %v", b, b0)
	}
}
