package droste

import "github.com/pkg/errors"

// Engine errors. Callers match them with errors.Is; the engine wraps them
// with context about the failing operation.
var (
	// ErrDegenerateCorrespondence is returned when corner points are
	// coincident or collinear and no homography can be solved.
	ErrDegenerateCorrespondence = errors.New("droste: degenerate corner correspondence")

	// ErrUnstableDecomposition is returned when a homography cannot be
	// raised to a fractional power (defective or numerically unstable
	// eigendecomposition). Callers fall back to spiral interpolation.
	ErrUnstableDecomposition = errors.New("droste: unstable eigendecomposition")

	// ErrInsufficientCorners is returned by operations that need all four
	// destination corners when fewer are known.
	ErrInsufficientCorners = errors.New("droste: fewer than four destination corners")

	// ErrInvalidDimensions is returned when a raster size is non-positive.
	ErrInvalidDimensions = errors.New("droste: invalid dimensions")

	// ErrInvalidQuad is returned when a quad is built from a point list
	// that does not hold exactly four points.
	ErrInvalidQuad = errors.New("droste: quad needs exactly four points")

	// ErrNoImage is returned by Session operations before an image is set.
	ErrNoImage = errors.New("droste: no image loaded")
)
