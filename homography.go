package droste

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Homography is a planar projective mapping with the bottom-right entry of
// its 3x3 matrix normalized to 1:
//
//	| A  B  C |
//	| D  E  F |
//	| G  H  1 |
//
// This represents the transformation:
//
//	x' = (A*x + B*y + C) / (G*x + H*y + 1)
//	y' = (D*x + E*y + F) / (G*x + H*y + 1)
type Homography struct {
	A, B, C float64
	D, E, F float64
	G, H    float64
}

const (
	// minDenominator bounds |G*x + H*y + 1| away from zero in Apply.
	minDenominator = 1e-12

	// degenerateTol is the relative tolerance used to reject collinear or
	// coincident corners before solving.
	degenerateTol = 1e-9

	// maxNormalCondition is the largest condition number of the normal
	// matrix AᵀA accepted by Solve.
	maxNormalCondition = 1e12
)

// IdentityHomography returns the mapping that leaves every point unchanged.
func IdentityHomography() Homography {
	return Homography{A: 1, E: 1}
}

// HomographyFromCoeffs builds a Homography from coefficients in
// A, B, C, D, E, F, G, H order.
func HomographyFromCoeffs(c [8]float64) Homography {
	return Homography{
		A: c[0], B: c[1], C: c[2],
		D: c[3], E: c[4], F: c[5],
		G: c[6], H: c[7],
	}
}

// HomographyFromMatrix normalizes a 3x3 matrix so that its bottom-right
// entry is 1. Returns false if that entry is zero or the result is not
// finite.
func HomographyFromMatrix(m mat.Matrix) (Homography, bool) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return Homography{}, false
	}
	w := m.At(2, 2)
	if math.Abs(w) < minDenominator {
		return Homography{}, false
	}
	h := Homography{
		A: m.At(0, 0) / w, B: m.At(0, 1) / w, C: m.At(0, 2) / w,
		D: m.At(1, 0) / w, E: m.At(1, 1) / w, F: m.At(1, 2) / w,
		G: m.At(2, 0) / w, H: m.At(2, 1) / w,
	}
	for _, v := range h.Coeffs() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, false
		}
	}
	return h, true
}

// Coeffs returns the eight coefficients in A..H order.
func (h Homography) Coeffs() [8]float64 {
	return [8]float64{h.A, h.B, h.C, h.D, h.E, h.F, h.G, h.H}
}

// Matrix returns the 3x3 matrix form of h.
func (h Homography) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		h.A, h.B, h.C,
		h.D, h.E, h.F,
		h.G, h.H, 1,
	})
}

// Apply maps p through h. A vanishing denominator is clamped to
// ±minDenominator, keeping the result finite for points on the line at
// infinity.
func (h Homography) Apply(p Point) Point {
	den := h.G*p.X + h.H*p.Y + 1
	if math.Abs(den) < minDenominator {
		den = math.Copysign(minDenominator, den)
	}
	return Point{
		X: (h.A*p.X + h.B*p.Y + h.C) / den,
		Y: (h.D*p.X + h.E*p.Y + h.F) / den,
	}
}

// Multiply returns the composition h∘other: other is applied first.
func (h Homography) Multiply(other Homography) Homography {
	var m mat.Dense
	m.Mul(h.Matrix(), other.Matrix())
	out, ok := HomographyFromMatrix(&m)
	if !ok {
		// The product sends the origin to infinity; keep the unnormalized
		// entries scaled by the largest magnitude instead.
		return fromUnnormalized(&m)
	}
	return out
}

// Invert returns the inverse mapping.
// Returns false if the matrix is singular.
func (h Homography) Invert() (Homography, bool) {
	var inv mat.Dense
	if err := inv.Inverse(h.Matrix()); err != nil {
		return Homography{}, false
	}
	return HomographyFromMatrix(&inv)
}

// IsIdentity reports whether every coefficient is within tol of identity.
func (h Homography) IsIdentity(tol float64) bool {
	id := IdentityHomography().Coeffs()
	for i, v := range h.Coeffs() {
		if math.Abs(v-id[i]) > tol {
			return false
		}
	}
	return true
}

// IsAffine reports whether the projective terms G and H are within tol of 0.
func (h Homography) IsAffine(tol float64) bool {
	return math.Abs(h.G) <= tol && math.Abs(h.H) <= tol
}

func fromUnnormalized(m *mat.Dense) Homography {
	scale := mat.Norm(m, math.Inf(1))
	if scale == 0 {
		return Homography{}
	}
	return Homography{
		A: m.At(0, 0) / scale, B: m.At(0, 1) / scale, C: m.At(0, 2) / scale,
		D: m.At(1, 0) / scale, E: m.At(1, 1) / scale, F: m.At(1, 2) / scale,
		G: m.At(2, 0) / scale, H: m.At(2, 1) / scale,
	}
}

// Solve computes the homography that maps each corner of src onto the
// matching corner of dst.
//
// The eight coefficients are the least-squares solution of the 8x8 system
// built from the four correspondences, solved through the normal equations
// (AᵀA)⁻¹Aᵀb. Both quads are first normalized (centroid at the origin, mean
// radius √2) so the system stays well conditioned for large images.
//
// Returns ErrDegenerateCorrespondence if either quad has coincident or
// collinear corners, or if the normal matrix is singular.
func Solve(src, dst Quad) (Homography, error) {
	if src.Degenerate(degenerateTol) {
		return Homography{}, errors.Wrapf(ErrDegenerateCorrespondence, "source corners %v", src)
	}
	if dst.Degenerate(degenerateTol) {
		return Homography{}, errors.Wrapf(ErrDegenerateCorrespondence, "destination corners %v", dst)
	}

	srcNorm, srcT := normalizeQuad(src)
	dstNorm, dstT := normalizeQuad(dst)

	hn, err := solveNormalEquations(srcNorm, dstNorm)
	if err != nil {
		return Homography{}, err
	}

	// H = T_dst⁻¹ · Hn · T_src
	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return Homography{}, errors.Wrap(ErrDegenerateCorrespondence, "destination normalization")
	}
	var m mat.Dense
	m.Product(&dstInv, hn.Matrix(), srcT)

	h, ok := HomographyFromMatrix(&m)
	if !ok {
		return Homography{}, errors.Wrap(ErrDegenerateCorrespondence, "mapping sends the origin to infinity")
	}
	return h, nil
}

// solveNormalEquations solves the 8x8 correspondence system for quads that
// are already normalized.
func solveNormalEquations(src, dst Quad) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range 4 {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		r := 2 * i
		a.SetRow(r, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(r+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(r, u)
		b.SetVec(r+1, v)
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	if cond := mat.Cond(&ata, 1); cond > maxNormalCondition || math.IsNaN(cond) {
		return Homography{}, errors.Wrapf(ErrDegenerateCorrespondence, "normal matrix condition %.3g", cond)
	}
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return Homography{}, errors.Wrapf(ErrDegenerateCorrespondence, "invert normal matrix: %v", err)
	}

	var coeffs mat.VecDense
	coeffs.MulVec(&inv, &atb)

	var c [8]float64
	for i := range c {
		c[i] = coeffs.AtVec(i)
	}
	return HomographyFromCoeffs(c), nil
}

// normalizeQuad translates q so its centroid is at the origin and scales it
// so the mean distance from the origin is √2. It returns the normalized quad
// and the 3x3 similarity that produced it.
func normalizeQuad(q Quad) (Quad, *mat.Dense) {
	c := q.Centroid()
	mean := 0.0
	for _, p := range q {
		mean += p.Distance(c)
	}
	mean /= 4

	s := math.Sqrt2 / mean
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	})

	var out Quad
	for i, p := range q {
		out[i] = p.Sub(c).Mul(s)
	}
	return out, t
}
