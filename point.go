package droste

import "math"

// Point is a position in image space. Points are unbounded: intermediate
// corners may lie far outside the canvas or at negative coordinates.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Cross returns the 2D cross product (scalar).
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Polar returns the radius and angle of p measured around center.
// The angle is in (-π, π], with y growing downwards as in image space.
func (p Point) Polar(center Point) (r, theta float64) {
	d := p.Sub(center)
	return d.Length(), math.Atan2(d.Y, d.X)
}

// FromPolar returns the point at radius r and angle theta around center.
func FromPolar(center Point, r, theta float64) Point {
	return Point{
		X: center.X + r*math.Cos(theta),
		Y: center.Y + r*math.Sin(theta),
	}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
