package blend

// Mode selects a compositing operation.
type Mode uint8

const (
	// ModeClear clears the destination to transparent black.
	ModeClear Mode = iota
	// ModeSource replaces the destination with the source.
	ModeSource
	// ModeSourceOver composites source over destination (the default).
	ModeSourceOver
	// ModePlus adds source and destination, clamped to 255.
	ModePlus
	// ModeDarken keeps the darker channel value.
	ModeDarken
	// ModeLighten keeps the lighter channel value.
	ModeLighten
)

// Func is the signature for blend operations. All values are premultiplied
// alpha, 0-255: sr..sa is the source color, dr..da the destination.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// GetFunc returns the blend function for the given mode.
// Unknown modes fall back to source-over.
func GetFunc(mode Mode) Func {
	switch mode {
	case ModeClear:
		return blendClear
	case ModeSource:
		return blendSource
	case ModeSourceOver:
		return SourceOver
	case ModePlus:
		return blendPlus
	case ModeDarken:
		return blendDarken
	case ModeLighten:
		return Lighten
	default:
		return SourceOver
	}
}

func blendClear(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return 0, 0, 0, 0
}

func blendSource(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

// SourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func SourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addClamp(sr, mulDiv255(dr, invSa)),
		addClamp(sg, mulDiv255(dg, invSa)),
		addClamp(sb, mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}

// blendPlus adds source and destination colors.
// Formula: min(S + D, 255)
func blendPlus(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return addClamp(sr, dr), addClamp(sg, dg), addClamp(sb, db), addClamp(sa, da)
}

// blendDarken selects the darker of source and destination per channel.
// Formula: B(Cs, Cb) = min(Cs, Cb)
func blendDarken(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separableBlend(sr, sg, sb, sa, dr, dg, db, da, minByte)
}

// Lighten selects the lighter of source and destination per channel.
// Formula: B(Cs, Cb) = max(Cs, Cb)
func Lighten(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separableBlend(sr, sg, sb, sa, dr, dg, db, da, maxByte)
}

// separableBlend applies a per-channel blend function under the standard
// separable formula:
//
//	Result = (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Sc, Dc)
//
// where B operates on unmultiplied channel values. Inputs and output are
// premultiplied.
func separableBlend(sr, sg, sb, sa, dr, dg, db, da byte, blendChan func(s, d byte) byte) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	// Unpremultiply so B sees straight channel values.
	sur := byte((uint16(sr) * 255) / uint16(sa))
	sug := byte((uint16(sg) * 255) / uint16(sa))
	sub := byte((uint16(sb) * 255) / uint16(sa))
	dur := byte((uint16(dr) * 255) / uint16(da))
	dug := byte((uint16(dg) * 255) / uint16(da))
	dub := byte((uint16(db) * 255) / uint16(da))

	invSa := 255 - sa
	invDa := 255 - da
	saDa := mulDiv255(sa, da)

	outA := addClamp(sa, mulDiv255(da, invSa))
	outR := addClamp(addClamp(mulDiv255(dr, invSa), mulDiv255(sr, invDa)), mulDiv255(saDa, blendChan(sur, dur)))
	outG := addClamp(addClamp(mulDiv255(dg, invSa), mulDiv255(sg, invDa)), mulDiv255(saDa, blendChan(sug, dug)))
	outB := addClamp(addClamp(mulDiv255(db, invSa), mulDiv255(sb, invDa)), mulDiv255(saDa, blendChan(sub, dub)))
	return outR, outG, outB, outA
}
