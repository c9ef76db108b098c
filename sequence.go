package droste

import (
	"log/slog"

	"github.com/pkg/errors"
)

// StopReason tells why corner sequence generation ended.
type StopReason uint8

const (
	// StopConverged means the contracting quad shrank below the minimum
	// distance threshold.
	StopConverged StopReason = iota

	// StopIterationCap means MaxIterations steps were taken before the
	// contracting quad converged. The sequences are simply truncated.
	StopIterationCap

	// StopInsufficientCorners means fewer than four destination corners
	// were known, so no sequence was generated.
	StopInsufficientCorners
)

// String returns a string representation of the stop reason.
func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "Converged"
	case StopIterationCap:
		return "IterationCap"
	case StopInsufficientCorners:
		return "InsufficientCorners"
	default:
		return "Unknown"
	}
}

// SequenceConfig bounds corner sequence generation.
type SequenceConfig struct {
	// MaxIterations caps the number of quads in each sequence.
	MaxIterations int

	// MinDistance stops generation once the smallest pairwise corner
	// distance of the contracting quad falls below it.
	MinDistance float64
}

// DefaultSequenceConfig returns the default bounds: 20 iterations and a
// one pixel convergence threshold.
func DefaultSequenceConfig() SequenceConfig {
	return SequenceConfig{MaxIterations: 20, MinDistance: 1.0}
}

// SequenceResult holds the two corner sequences produced by repeatedly
// applying a homography and its inverse to a base quad.
//
// Contracting[i] is the base quad after i+1 forward applications and
// Expanding[i] after i+1 inverse applications. Both have the same length
// unless the expanding quads overflowed, in which case Expanding is shorter.
type SequenceResult struct {
	Contracting []Quad
	Expanding   []Quad
	Reason      StopReason
}

// Len returns the number of contracting recursion levels.
func (r SequenceResult) Len() int {
	return len(r.Contracting)
}

// Last returns the innermost contracting quad.
// Returns false if the sequence is empty.
func (r SequenceResult) Last() (Quad, bool) {
	if len(r.Contracting) == 0 {
		return Quad{}, false
	}
	return r.Contracting[len(r.Contracting)-1], true
}

// GenerateSequences builds the contracting sequence (repeated forward
// mapping) and the expanding sequence (repeated inverse mapping) of base.
//
// Before each step the contracting quad's minimum pairwise corner distance
// is checked; generation stops once it is below cfg.MinDistance, so the
// last contracting quad is the first one that fell under the threshold.
// At most cfg.MaxIterations steps are taken.
func GenerateSequences(base Quad, forward, inverse Homography, cfg SequenceConfig) SequenceResult {
	res := SequenceResult{
		Contracting: make([]Quad, 0, max(cfg.MaxIterations, 0)),
		Expanding:   make([]Quad, 0, max(cfg.MaxIterations, 0)),
		Reason:      StopIterationCap,
	}

	contracting, expanding := base, base
	expandingOK := true
	log := Logger()
	for i := 0; i < cfg.MaxIterations; i++ {
		minDist := contracting.MinDistance()
		if minDist < cfg.MinDistance {
			log.Debug("droste: corner sequence converged",
				slog.Int("iterations", i), slog.Float64("min_distance", minDist))
			res.Reason = StopConverged
			return res
		}

		contracting = contracting.Transform(forward)
		res.Contracting = append(res.Contracting, contracting)
		if expandingOK {
			// Past the line at infinity the coordinates can overflow; the
			// expanding direction ends at its last finite quad.
			if next := expanding.Transform(inverse); next.isFinite() {
				expanding = next
				res.Expanding = append(res.Expanding, expanding)
			} else {
				expandingOK = false
				log.Debug("droste: expanding sequence left finite range", slog.Int("iteration", i+1))
			}
		}

		log.Debug("droste: corner sequence step",
			slog.Int("iteration", i+1),
			slog.Float64("min_distance", minDist),
			slog.Any("contracting", contracting),
			slog.Any("expanding", expanding))
	}

	log.Debug("droste: corner sequence hit iteration cap", slog.Int("iterations", cfg.MaxIterations))
	return res
}

// CornerSequences solves the forward and inverse mappings between base and
// dest and generates both corner sequences.
//
// Fewer than four destination points is not an error: two empty sequences
// are returned with StopInsufficientCorners. Options other than the
// sequence bounds are ignored.
func CornerSequences(base Quad, dest []Point, opts ...Option) (SequenceResult, error) {
	o := applyOptions(opts)
	if len(dest) < 4 {
		return SequenceResult{Reason: StopInsufficientCorners}, nil
	}

	dq, err := o.destQuad(dest)
	if err != nil {
		return SequenceResult{}, err
	}

	forward, err := Solve(base, dq)
	if err != nil {
		return SequenceResult{}, errors.Wrap(err, "solve forward mapping")
	}
	inverse, err := Solve(dq, base)
	if err != nil {
		return SequenceResult{}, errors.Wrap(err, "solve inverse mapping")
	}
	Logger().Debug("droste: solved corner mappings",
		slog.Any("forward", forward.Coeffs()),
		slog.Any("inverse", inverse.Coeffs()))

	return GenerateSequences(base, forward, inverse, o.sequence), nil
}
