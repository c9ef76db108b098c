// Package blend implements the Porter-Duff operators droste composites
// layers with.
//
// All blend operations work with premultiplied alpha values in the range 0-255.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

// BlendMode represents a Porter-Duff compositing operation.
type BlendMode uint8

const (
	BlendSource     BlendMode = iota // Result: S (replace with source)
	BlendSourceOver                  // Result: S + D*(1-Sa) [default]
)

// String returns a string representation of the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendSource:
		return "Source"
	case BlendSourceOver:
		return "SourceOver"
	default:
		return "Unknown"
	}
}

// BlendFunc is the signature for blend operations.
// All values are premultiplied alpha, 0-255.
// Parameters:
//   - sr, sg, sb, sa: source color (red, green, blue, alpha)
//   - dr, dg, db, da: destination color (red, green, blue, alpha)
//
// Returns: resulting color (r, g, b, a) after blending.
type BlendFunc func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// GetBlendFunc returns the blend function for the given mode.
// Returns blendSourceOver for unknown modes.
func GetBlendFunc(mode BlendMode) BlendFunc {
	switch mode {
	case BlendSource:
		return blendSource
	case BlendSourceOver:
		return blendSourceOver
	default:
		return blendSourceOver
	}
}

// Span blends the pixels of src onto dst in place. Both slices hold packed
// premultiplied RGBA8 pixels; only the shorter length is processed.
func Span(dst, src []byte, mode BlendMode) {
	n := min(len(dst), len(src)) &^ 3
	switch mode {
	case BlendSource:
		copy(dst[:n], src[:n])
		return
	case BlendSourceOver:
		spanSourceOver(dst[:n], src[:n])
		return
	}

	fn := GetBlendFunc(mode)
	for i := 0; i < n; i += 4 {
		dst[i], dst[i+1], dst[i+2], dst[i+3] = fn(
			src[i], src[i+1], src[i+2], src[i+3],
			dst[i], dst[i+1], dst[i+2], dst[i+3])
	}
}

// spanSourceOver is the source-over loop with the two common alpha cases
// short-circuited: transparent source pixels leave dst untouched and opaque
// ones replace it.
func spanSourceOver(dst, src []byte) {
	for i := 0; i < len(src); i += 4 {
		switch sa := src[i+3]; sa {
		case 0:
			continue
		case 255:
			copy(dst[i:i+4], src[i:i+4])
		default:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = blendSourceOver(
				src[i], src[i+1], src[i+2], sa,
				dst[i], dst[i+1], dst[i+2], dst[i+3])
		}
	}
}

// blendSource replaces destination with source.
func blendSource(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

// blendSourceOver composites source over destination (default blend mode).
// Formula: S + D * (1 - Sa)
func blendSourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := inv255(sa)
	return addClamp(sr, mulDiv255(dr, invSa)),
		addClamp(sg, mulDiv255(dg, invSa)),
		addClamp(sb, mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}
