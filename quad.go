package droste

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

// Quad is an ordered set of four corners: top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// Corner indices into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// cornerPadding is the inset applied by DefaultCorners.
const cornerPadding = 20.0

// pickPadding keeps picked corners this far inside the image edges.
const pickPadding = 10.0

// RectQuad returns the canonical base rectangle of a w×h image:
// (0,0), (w,0), (w,h), (0,h).
func RectQuad(w, h int) Quad {
	fw, fh := float64(w), float64(h)
	return Quad{{0, 0}, {fw, 0}, {fw, fh}, {0, fh}}
}

// QuadFromPoints builds a Quad from exactly four points, keeping their order.
func QuadFromPoints(pts []Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, errors.Wrapf(ErrInvalidQuad, "got %d points", len(pts))
	}
	return Quad{pts[0], pts[1], pts[2], pts[3]}, nil
}

// DefaultCorners returns a centered destination quad for a w×h image,
// used before any corner has been picked.
func DefaultCorners(w, h int) Quad {
	size := math.Min(float64(w), float64(h)) * 0.3
	cx, cy := float64(w)/2, float64(h)/2
	inner := size - cornerPadding
	return Quad{
		{cx - inner, cy - inner},
		{cx + inner, cy - inner},
		{cx + inner, cy + inner},
		{cx - inner, cy + inner},
	}
}

// SortCorners orders four points clockwise (in image space, y down)
// starting from the top-left, by their angle around the centroid.
// Points clicked in arbitrary order become a valid Quad this way.
func SortCorners(pts []Point) (Quad, error) {
	q, err := QuadFromPoints(pts)
	if err != nil {
		return Quad{}, err
	}
	c := q.Centroid()
	sorted := q
	sort.SliceStable(sorted[:], func(i, j int) bool {
		_, ai := sorted[i].Polar(c)
		_, aj := sorted[j].Polar(c)
		return ai < aj
	})
	return sorted, nil
}

// Points returns the corners as a slice.
func (q Quad) Points() []Point {
	return []Point{q[0], q[1], q[2], q[3]}
}

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() Point {
	var c Point
	for _, p := range q {
		c = c.Add(p)
	}
	return c.Mul(0.25)
}

// MinDistance returns the smallest pairwise Euclidean distance between
// the corners.
func (q Quad) MinDistance() float64 {
	minDist := math.Inf(1)
	for i := range q {
		for j := i + 1; j < len(q); j++ {
			minDist = math.Min(minDist, q[i].Distance(q[j]))
		}
	}
	return minDist
}

// maxDistance returns the largest pairwise distance between the corners.
func (q Quad) maxDistance() float64 {
	maxDist := 0.0
	for i := range q {
		for j := i + 1; j < len(q); j++ {
			maxDist = math.Max(maxDist, q[i].Distance(q[j]))
		}
	}
	return maxDist
}

// Degenerate reports whether two corners coincide or three corners are
// collinear. tol is relative to the size of the quad: a triangle whose
// doubled area is below tol·size² counts as collinear.
func (q Quad) Degenerate(tol float64) bool {
	size := q.maxDistance()
	if size == 0 || !q.isFinite() {
		return true
	}
	if q.MinDistance() <= tol*size {
		return true
	}
	limit := tol * size * size
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				area := q[j].Sub(q[i]).Cross(q[k].Sub(q[i]))
				if math.Abs(area) <= limit {
					return true
				}
			}
		}
	}
	return false
}

func (q Quad) isFinite() bool {
	for _, p := range q {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}

// Transform applies h to every corner.
func (q Quad) Transform(h Homography) Quad {
	var out Quad
	for i, p := range q {
		out[i] = h.Apply(p)
	}
	return out
}

// EqualWithin reports whether every corner of q is within tol of the
// matching corner of other, per coordinate.
func (q Quad) EqualWithin(other Quad, tol float64) bool {
	for i := range q {
		if !scalar.EqualWithinAbs(q[i].X, other[i].X, tol) ||
			!scalar.EqualWithinAbs(q[i].Y, other[i].Y, tol) {
			return false
		}
	}
	return true
}

// clampPoint clamps p into the image with pickPadding on every side. Images
// too small for the padding clamp to their center line.
func clampPoint(p Point, w, h int) Point {
	return Point{
		X: clampPadded(p.X, float64(w)),
		Y: clampPadded(p.Y, float64(h)),
	}
}

func clampPadded(v, size float64) float64 {
	pad := math.Min(pickPadding, size/2)
	return math.Max(pad, math.Min(v, size-pad))
}
