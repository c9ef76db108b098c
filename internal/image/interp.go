// Package image provides pixel sampling and image file I/O for droste.
package image

import "math"

// InterpolationMode defines how source pixels are resampled.
type InterpolationMode uint8

const (
	// InterpNearest selects the closest pixel (no interpolation).
	// Fast but produces blocky results when scaling.
	InterpNearest InterpolationMode = iota

	// InterpBilinear performs linear interpolation between 4 neighboring pixels.
	InterpBilinear

	// InterpBicubic performs Catmull-Rom interpolation over a 4x4 pixel
	// neighborhood. Highest quality, used by default.
	InterpBicubic
)

// String returns a string representation of the interpolation mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpNearest:
		return "Nearest"
	case InterpBilinear:
		return "Bilinear"
	case InterpBicubic:
		return "Bicubic"
	default:
		return "Unknown"
	}
}

// View is a read-only window onto premultiplied RGBA8 pixels, 4 bytes per
// pixel, rows packed without padding.
type View struct {
	Pix    []byte
	Width  int
	Height int
}

// rgba returns the pixel at (x, y), which must be in bounds.
func (v View) rgba(x, y int) (r, g, b, a byte) {
	i := (y*v.Width + x) * 4
	return v.Pix[i], v.Pix[i+1], v.Pix[i+2], v.Pix[i+3]
}

// Contains reports whether the continuous coordinate (x, y) lies inside
// the pixel area [0,Width)×[0,Height).
func (v View) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < float64(v.Width) && y < float64(v.Height)
}

// Sample samples the view at continuous pixel coordinates (x, y), where
// pixel (i, j) covers [i,i+1)×[j,j+1) and has its center at (i+0.5, j+0.5).
// Coordinates outside the view yield transparent black. Neighbors that a
// filter reaches past the edge are clamped to the edge.
func Sample(v View, x, y float64, mode InterpolationMode) (r, g, b, a byte) {
	if !v.Contains(x, y) {
		return 0, 0, 0, 0
	}
	switch mode {
	case InterpNearest:
		return SampleNearest(v, x, y)
	case InterpBilinear:
		return SampleBilinear(v, x, y)
	case InterpBicubic:
		return SampleBicubic(v, x, y)
	default:
		return 0, 0, 0, 0
	}
}

// SampleNearest returns the pixel containing (x, y).
func SampleNearest(v View, x, y float64) (r, g, b, a byte) {
	px := clamp(int(math.Floor(x)), 0, v.Width-1)
	py := clamp(int(math.Floor(y)), 0, v.Height-1)
	return v.rgba(px, py)
}

// SampleBilinear interpolates between the 4 pixel centers around (x, y).
func SampleBilinear(v View, x, y float64) (r, g, b, a byte) {
	fx := x - 0.5
	fy := y - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clamp(x0+1, 0, v.Width-1)
	y1 := clamp(y0+1, 0, v.Height-1)
	x0 = clamp(x0, 0, v.Width-1)
	y0 = clamp(y0, 0, v.Height-1)

	r00, g00, b00, a00 := v.rgba(x0, y0)
	r10, g10, b10, a10 := v.rgba(x1, y0)
	r01, g01, b01, a01 := v.rgba(x0, y1)
	r11, g11, b11, a11 := v.rgba(x1, y1)

	return premulClamp(
		lerp2D(float64(r00), float64(r10), float64(r01), float64(r11), tx, ty),
		lerp2D(float64(g00), float64(g10), float64(g01), float64(g11), tx, ty),
		lerp2D(float64(b00), float64(b10), float64(b01), float64(b11), tx, ty),
		lerp2D(float64(a00), float64(a10), float64(a01), float64(a11), tx, ty),
	)
}

// SampleBicubic performs Catmull-Rom interpolation over the 4x4 pixel
// neighborhood around (x, y).
func SampleBicubic(v View, x, y float64) (r, g, b, a byte) {
	fx := x - 0.5
	fy := y - 0.5

	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))
	tx := fx - float64(ix)
	ty := fy - float64(iy)

	wx := cubicWeights(tx)
	wy := cubicWeights(ty)

	var sr, sg, sb, sa float64
	for dy := range 4 {
		py := clamp(iy+dy-1, 0, v.Height-1)
		for dx := range 4 {
			px := clamp(ix+dx-1, 0, v.Width-1)
			w := wx[dx] * wy[dy]
			pr, pg, pb, pa := v.rgba(px, py)
			sr += float64(pr) * w
			sg += float64(pg) * w
			sb += float64(pb) * w
			sa += float64(pa) * w
		}
	}
	return premulClamp(sr, sg, sb, sa)
}

// premulClamp rounds interpolated channels into bytes, keeping the color
// channels at or below alpha so the result stays valid premultiplied data.
// Cubic overshoot would otherwise break that invariant near hard edges.
func premulClamp(r, g, b, a float64) (byte, byte, byte, byte) {
	ab := round255(a)
	return min(round255(r), ab), min(round255(g), ab), min(round255(b), ab), ab
}

func round255(v float64) byte {
	return byte(clampFloat(v, 0, 255) + 0.5)
}

// clamp clamps an integer value to [minVal, maxVal].
//
//nolint:unparam // minVal is always 0 currently, but function is general-purpose
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// clampFloat clamps a float64 value to [minVal, maxVal].
func clampFloat(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// lerp2D performs bilinear interpolation on a 2x2 grid.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	v0 := lerp(v00, v10, tx)
	v1 := lerp(v01, v11, tx)
	return lerp(v0, v1, ty)
}

// cubicWeight computes the Catmull-Rom cubic weight for distance t.
func cubicWeight(t float64) float64 {
	// Catmull-Rom spline (Mitchell-Netravali with B=0, C=0.5):
	// |t| < 1: (1.5|t|³ - 2.5|t|² + 1)
	// 1 ≤ |t| < 2: (-0.5|t|³ + 2.5|t|² - 4|t| + 2)
	// |t| ≥ 2: 0
	absT := math.Abs(t)
	if absT < 1 {
		return 1.5*absT*absT*absT - 2.5*absT*absT + 1.0
	}
	if absT < 2 {
		return -0.5*absT*absT*absT + 2.5*absT*absT - 4.0*absT + 2.0
	}
	return 0
}

// cubicWeights returns the weights of the 4 taps at offsets -1..2 from the
// pixel left of (or above) the sample position, t being the fractional part.
func cubicWeights(t float64) [4]float64 {
	return [4]float64{
		cubicWeight(t + 1),
		cubicWeight(t),
		cubicWeight(t - 1),
		cubicWeight(t - 2),
	}
}
