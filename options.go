package droste

import (
	intImage "github.com/gogpu/droste/internal/image"
	"github.com/gogpu/droste/internal/parallel"
)

// InterpolationMode defines how warped rasters are resampled.
type InterpolationMode = intImage.InterpolationMode

// Interpolation modes.
const (
	// InterpNearest selects the closest source pixel.
	InterpNearest = intImage.InterpNearest

	// InterpBilinear interpolates between 4 neighboring pixels.
	InterpBilinear = intImage.InterpBilinear

	// InterpBicubic uses Catmull-Rom over a 4x4 neighborhood (default).
	InterpBicubic = intImage.InterpBicubic
)

// DefaultFrameCount is the number of animation frames used when none, or
// an invalid count, is given.
const DefaultFrameCount = 15

// Option configures engine operations.
//
// Example:
//
//	res, err := droste.CornerSequences(base, corners,
//	    droste.WithMaxIterations(30),
//	    droste.WithMinDistance(0.5))
type Option func(*options)

// options holds the configuration shared by engine operations.
type options struct {
	sequence    SequenceConfig
	interp      InterpolationMode
	workers     int
	animator    AnimatorKind
	frameCount  int
	stackOrder  StackOrder
	sortCorners bool
}

// defaultOptions returns the defaults of the original editor: 20
// iterations, a 1px threshold, bicubic resampling and 15 frames.
func defaultOptions() options {
	return options{
		sequence:   DefaultSequenceConfig(),
		interp:     InterpBicubic,
		workers:    0, // GOMAXPROCS
		animator:   AnimatorAuto,
		frameCount: DefaultFrameCount,
		stackOrder: StackTowardViewer,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithMaxIterations caps the length of the corner sequences.
// Negative values are treated as 0.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.sequence.MaxIterations = max(n, 0)
	}
}

// WithMinDistance sets the convergence threshold of the contracting
// sequence, in pixels.
func WithMinDistance(d float64) Option {
	return func(o *options) {
		o.sequence.MinDistance = d
	}
}

// WithInterpolation selects the resampling filter used by warps.
func WithInterpolation(mode InterpolationMode) Option {
	return func(o *options) {
		o.interp = mode
	}
}

// WithWorkers sets the number of goroutines used for warps, layers and
// frames. Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithAnimator selects how animation frames are interpolated.
func WithAnimator(kind AnimatorKind) Option {
	return func(o *options) {
		o.animator = kind
	}
}

// WithFrameCount sets the number of animation frames. Non-positive values
// fall back to DefaultFrameCount.
func WithFrameCount(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultFrameCount
		}
		o.frameCount = n
	}
}

// WithStackOrder sets the compositing order used by a Session.
func WithStackOrder(order StackOrder) Option {
	return func(o *options) {
		o.stackOrder = order
	}
}

// WithSortCorners makes destination corners be reordered clockwise from
// the top-left before solving, so they may be given in any order.
func WithSortCorners(sort bool) Option {
	return func(o *options) {
		o.sortCorners = sort
	}
}

// destQuad turns caller supplied destination points into a Quad.
func (o options) destQuad(pts []Point) (Quad, error) {
	if o.sortCorners {
		return SortCorners(pts)
	}
	return QuadFromPoints(pts)
}

// newPool starts a worker pool sized by the workers option.
// The caller must Close it.
func (o options) newPool() *parallel.WorkerPool {
	return parallel.NewWorkerPool(o.workers)
}
