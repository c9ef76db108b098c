package droste

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// minSpiralRadius replaces a start radius that is numerically zero so
	// the growth rate logarithm stays finite.
	minSpiralRadius = 1e-4

	// minSpiralAngle is the angular span below which the path is treated
	// as purely radial.
	minSpiralAngle = 1e-4

	// maxSpiralGrowth bounds |b| in r = a·e^(bθ) to keep e^(bθ) finite.
	maxSpiralGrowth = 10.0
)

// SpiralPath returns n points along the logarithmic spiral r = a·e^(bθ)
// around center that leads from start to end.
//
// The angular difference is unwrapped to the shorter way around, in
// (-π, π]. The growth rate b = ln(r_end/r_start)/Δθ is clamped to [-10, 10];
// when it is not clamped the first and last points are start and end. When
// the angular span is negligible the radius is interpolated geometrically
// instead.
//
// n <= 0 yields nil and n == 1 yields only start. The result depends only
// on the arguments.
func SpiralPath(start, end, center Point, n int) []Point {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Point{start}
	}

	r1, theta1 := start.Polar(center)
	r2, theta2 := end.Polar(center)
	if r1 < minSpiralRadius {
		r1 = minSpiralRadius
	}

	for theta2-theta1 > math.Pi {
		theta2 -= 2 * math.Pi
	}
	for theta1-theta2 >= math.Pi {
		theta2 += 2 * math.Pi
	}
	dTheta := theta2 - theta1

	ts := floats.Span(make([]float64, n), 0, 1)
	points := make([]Point, n)

	if math.Abs(dTheta) < minSpiralAngle {
		ratio := r2 / r1
		for i, t := range ts {
			points[i] = FromPolar(center, r1*math.Pow(ratio, t), theta1+dTheta*t)
		}
		return points
	}

	b := math.Log(r2/r1) / dTheta
	b = math.Max(math.Min(b, maxSpiralGrowth), -maxSpiralGrowth)
	a := r1 / math.Exp(b*theta1)

	for i, t := range ts {
		theta := theta1 + dTheta*t
		points[i] = FromPolar(center, a*math.Exp(b*theta), theta)
	}
	return points
}
