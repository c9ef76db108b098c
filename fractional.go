package droste

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// minEigenvectorDet is the smallest |det V| accepted for the unit-norm
// eigenvector matrix V. Below it the matrix is treated as defective.
const minEigenvectorDet = 1e-10

// eigenPowers holds the eigendecomposition of a homography matrix, from
// which any real power can be taken.
type eigenPowers struct {
	values  [3]complex128
	vectors [3][3]complex128 // vectors[row][col], one eigenvector per column
}

// newEigenPowers factorizes h. It fails with ErrUnstableDecomposition when
// the factorization does not converge or h is not diagonalizable.
func newEigenPowers(h Homography) (*eigenPowers, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(h.Matrix(), mat.EigenRight); !ok {
		return nil, errors.Wrap(ErrUnstableDecomposition, "eigendecomposition did not converge")
	}

	values := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	ep := &eigenPowers{}
	for i := range 3 {
		ep.values[i] = values[i]
		for j := range 3 {
			ep.vectors[i][j] = vecs.At(i, j)
		}
	}

	if d := cmplx.Abs(det3(ep.vectors)); d < minEigenvectorDet || math.IsNaN(d) {
		return nil, errors.Wrapf(ErrUnstableDecomposition, "eigenvectors are dependent (|det| = %.3g)", d)
	}
	return ep, nil
}

// at returns h^t: every eigenvalue is raised to t on its principal branch,
// the eigenpairs are ordered by the magnitude of the powered values, and the
// matrix is rebuilt as V·D·V⁻¹. The real part is normalized so the
// bottom-right entry is 1.
func (ep *eigenPowers) at(t float64) (Homography, error) {
	var powered [3]complex128
	for i, v := range ep.values {
		powered[i] = principalPow(v, t)
	}

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool {
		return cmplx.Abs(powered[order[i]]) < cmplx.Abs(powered[order[j]])
	})

	var v [3][3]complex128
	var d [3]complex128
	for col, src := range order {
		d[col] = powered[src]
		for row := range 3 {
			v[row][col] = ep.vectors[row][src]
		}
	}

	vinv, ok := inverse3(v)
	if !ok {
		return Homography{}, errors.Wrap(ErrUnstableDecomposition, "eigenvector matrix is singular")
	}

	m := mat.NewDense(3, 3, nil)
	for i := range 3 {
		for j := range 3 {
			var sum complex128
			for k := range 3 {
				sum += v[i][k] * d[k] * vinv[k][j]
			}
			m.Set(i, j, real(sum))
		}
	}

	out, ok := HomographyFromMatrix(m)
	if !ok {
		return Homography{}, errors.Wrapf(ErrUnstableDecomposition, "power %.3g has no normalized form", t)
	}
	return out, nil
}

// principalPow returns z^t using the polar form with the angle taken in
// (-π, π]. 0^0 is 1.
func principalPow(z complex128, t float64) complex128 {
	r := cmplx.Abs(z)
	if t == 0 {
		return 1
	}
	if r == 0 {
		return 0
	}
	theta := cmplx.Phase(z)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return cmplx.Rect(math.Pow(r, t), theta*t)
}

// FractionalPower returns h raised to the real power t, so that t=0 gives
// the identity, t=1 gives h, and intermediate values deform continuously
// between them. Returns ErrUnstableDecomposition when h is not
// diagonalizable.
func FractionalPower(h Homography, t float64) (Homography, error) {
	ep, err := newEigenPowers(h)
	if err != nil {
		return Homography{}, err
	}
	return ep.at(t)
}

// Animate returns the n+1 homographies h^(k/n) for k = 0..n: index 0 is the
// identity and index n is h itself. A non-positive n uses
// DefaultFrameCount.
func Animate(h Homography, n int) ([]Homography, error) {
	if n <= 0 {
		n = DefaultFrameCount
	}
	ep, err := newEigenPowers(h)
	if err != nil {
		return nil, err
	}

	out := make([]Homography, n+1)
	for k := range out {
		hk, err := ep.at(float64(k) / float64(n))
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d of %d", k, n)
		}
		out[k] = hk
	}
	return out, nil
}

// det3 returns the determinant of a complex 3x3 matrix.
func det3(m [3][3]complex128) complex128 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// inverse3 inverts a complex 3x3 matrix through its adjugate.
func inverse3(m [3][3]complex128) ([3][3]complex128, bool) {
	det := det3(m)
	if cmplx.Abs(det) < minEigenvectorDet {
		return [3][3]complex128{}, false
	}

	var inv [3][3]complex128
	for i := range 3 {
		for j := range 3 {
			// Cofactor of m[j][i], transposed into inv[i][j].
			r0, r1 := others(j)
			c0, c1 := others(i)
			minor := m[r0][c0]*m[r1][c1] - m[r0][c1]*m[r1][c0]
			if (i+j)%2 == 1 {
				minor = -minor
			}
			inv[i][j] = minor / det
		}
	}
	return inv, true
}

// others returns the two indices in {0,1,2} other than i, ascending.
func others(i int) (int, int) {
	switch i {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}
