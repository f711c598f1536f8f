package grade

// Parameter ranges. Transform accepts any finite values and stays finite
// outside these bounds; the ranges describe the practical control surface
// (sliders, preset validation) rather than hard limits.
const (
	MinExposure, MaxExposure       = -3.0, 3.0
	MinContrast, MaxContrast       = -0.5, 0.5
	MinTemperature, MaxTemperature = 2000.0, 10000.0
	MinTint, MaxTint               = -50.0, 50.0
	MinHighlights, MaxHighlights   = -1.0, 1.0
	MinShadows, MaxShadows         = -1.0, 1.0
	MinWhites, MaxWhites           = -1.0, 1.0
	MinBlacks, MaxBlacks           = -1.0, 1.0
	MinSaturation, MaxSaturation   = -1.0, 1.0

	// ReferenceTemperature is the neutral white-balance point in Kelvin.
	ReferenceTemperature = 5500.0
)

// Params holds the nine scalar controls that parameterize every pipeline
// evaluation. The zero value is not neutral (Temperature 0 is a strong cool
// shift); use DefaultParams for the identity grade.
//
// Params is plain data: copy it freely. A Renderer and a HistogramEngine fed
// the same Params value produce consistent results by construction.
type Params struct {
	// Exposure in stops; each stop doubles or halves the light.
	Exposure float32 `json:"exposure"`

	// Contrast steepens (positive) or flattens (negative) the curve
	// around middle gray.
	Contrast float32 `json:"contrast"`

	// Temperature in Kelvin. Values above ReferenceTemperature warm the
	// image (red gain), values below cool it (blue gain).
	Temperature float32 `json:"temperature"`

	// Tint shifts green-magenta balance.
	Tint float32 `json:"tint"`

	// Highlights compresses or lifts the bright end, masked by luminance.
	Highlights float32 `json:"highlights"`

	// Shadows lifts or deepens the dark end, masked by luminance.
	Shadows float32 `json:"shadows"`

	// Whites moves the white point of the levels remap.
	Whites float32 `json:"whites"`

	// Blacks moves the black point of the levels remap.
	Blacks float32 `json:"blacks"`

	// Saturation scales chroma around per-pixel luminance.
	Saturation float32 `json:"saturation"`
}

// DefaultParams returns the identity grade: Temperature at the 5500 K
// reference and every other control at zero. With these values the pipeline
// reduces to the pure gamma encode.
func DefaultParams() Params {
	return Params{Temperature: ReferenceTemperature}
}

// Clamp returns a copy of p with every field folded into its declared range.
// Intended for UI and preset loading; Transform itself never requires it.
func (p Params) Clamp() Params {
	p.Exposure = clampf(p.Exposure, MinExposure, MaxExposure)
	p.Contrast = clampf(p.Contrast, MinContrast, MaxContrast)
	p.Temperature = clampf(p.Temperature, MinTemperature, MaxTemperature)
	p.Tint = clampf(p.Tint, MinTint, MaxTint)
	p.Highlights = clampf(p.Highlights, MinHighlights, MaxHighlights)
	p.Shadows = clampf(p.Shadows, MinShadows, MaxShadows)
	p.Whites = clampf(p.Whites, MinWhites, MaxWhites)
	p.Blacks = clampf(p.Blacks, MinBlacks, MaxBlacks)
	p.Saturation = clampf(p.Saturation, MinSaturation, MaxSaturation)
	return p
}

func clampf(v float32, lo, hi float64) float32 {
	if v < float32(lo) {
		return float32(lo)
	}
	if v > float32(hi) {
		return float32(hi)
	}
	return v
}
