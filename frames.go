package droste

import (
	"context"
	"image"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/droste/internal/blend"
)

// Direction selects the playback direction of an animation.
type Direction uint8

const (
	// ZoomIn plays from the composite toward its nested copy.
	ZoomIn Direction = iota

	// ZoomOut plays the ZoomIn frames in reverse.
	ZoomOut
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case ZoomIn:
		return "ZoomIn"
	case ZoomOut:
		return "ZoomOut"
	default:
		return "Unknown"
	}
}

// AnimatorKind selects how intermediate transforms are interpolated.
type AnimatorKind uint8

const (
	// AnimatorAuto uses AnimatorFractional and falls back to
	// AnimatorSpiral when the homography cannot be decomposed.
	AnimatorAuto AnimatorKind = iota

	// AnimatorFractional interpolates the whole transform through
	// fractional matrix powers.
	AnimatorFractional

	// AnimatorSpiral moves each corner along a logarithmic spiral around
	// the recursion's vanishing point.
	AnimatorSpiral
)

// String returns a string representation of the animator kind.
func (k AnimatorKind) String() string {
	switch k {
	case AnimatorAuto:
		return "Auto"
	case AnimatorFractional:
		return "Fractional"
	case AnimatorSpiral:
		return "Spiral"
	default:
		return "Unknown"
	}
}

// Frame is one animation frame and its position in the sequence.
type Frame struct {
	Index  int
	Raster *Raster
}

// Frames is an ordered animation. Index 0 is the most original state.
type Frames []Frame

// Reversed returns the frames in reverse order with renumbered indices.
// The rasters are shared, not copied or regenerated.
func (f Frames) Reversed() Frames {
	out := make(Frames, len(f))
	for i, fr := range f {
		j := len(f) - 1 - i
		out[j] = Frame{Index: j, Raster: fr.Raster}
	}
	return out
}

// Rasters returns the frame rasters in order.
func (f Frames) Rasters() []*Raster {
	out := make([]*Raster, len(f))
	for i, fr := range f {
		out[i] = fr.Raster
	}
	return out
}

// Images returns the frame rasters as image.Image values for encoders.
func (f Frames) Images() []image.Image {
	out := make([]image.Image, len(f))
	for i, fr := range f {
		out[i] = fr.Raster
	}
	return out
}

// ParseFrameCount parses a user supplied frame count. Anything that is not
// a positive integer yields DefaultFrameCount.
func ParseFrameCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultFrameCount
	}
	return n
}

// framePlan describes one frame: warp the composite through background,
// then paint the warp through foreground over it. A nil foreground means
// the frame is the composite itself.
type framePlan struct {
	background Homography
	foreground *Homography
}

// BuildFrames renders an animation of the recursion collapsing into dest.
//
// composite is the recursive composite of the base image and dest the
// destination quad it was built from. The frame count, animator and worker
// count come from opts. Frames are rendered concurrently; ctx cancels
// rendering. ZoomOut returns the ZoomIn frames reversed.
func BuildFrames(ctx context.Context, composite *Raster, dest Quad, dir Direction, opts ...Option) (Frames, error) {
	if composite == nil {
		return nil, errors.Wrap(ErrInvalidDimensions, "frame source is nil")
	}
	o := applyOptions(opts)
	rect := RectQuad(composite.Size())

	forward, err := Solve(rect, dest)
	if err != nil {
		return nil, errors.Wrap(err, "solve forward mapping")
	}
	inverse, err := Solve(dest, rect)
	if err != nil {
		return nil, errors.Wrap(err, "solve inverse mapping")
	}

	plans, err := planFrames(rect, dest, forward, inverse, o)
	if err != nil {
		return nil, err
	}

	frames, err := renderFrames(ctx, composite, plans, o)
	if err != nil {
		return nil, err
	}
	if dir == ZoomOut {
		return frames.Reversed(), nil
	}
	return frames, nil
}

// planFrames picks the animator and returns one plan per frame.
func planFrames(rect, dest Quad, forward, inverse Homography, o options) ([]framePlan, error) {
	switch o.animator {
	case AnimatorFractional:
		return fractionalPlans(forward, inverse, o.frameCount)
	case AnimatorSpiral:
		return spiralPlans(rect, dest, forward, inverse, o)
	}

	plans, err := fractionalPlans(forward, inverse, o.frameCount)
	if errors.Is(err, ErrUnstableDecomposition) {
		Logger().Warn("droste: fractional animation unavailable, using spiral paths",
			slog.String("reason", err.Error()))
		return spiralPlans(rect, dest, forward, inverse, o)
	}
	return plans, err
}

// fractionalPlans pairs forward^(k/n) with inverse^((n-k)/n): the second
// is the composite moved one recursion level in, at the same zoom, and
// fills the detail the forward zoom magnifies away. Frame 0 is the
// composite itself.
func fractionalPlans(forward, inverse Homography, n int) ([]framePlan, error) {
	fwd, err := newEigenPowers(forward)
	if err != nil {
		return nil, errors.Wrap(err, "forward mapping")
	}
	rev, err := newEigenPowers(inverse)
	if err != nil {
		return nil, errors.Wrap(err, "inverse mapping")
	}

	plans := make([]framePlan, n)
	plans[0] = framePlan{background: IdentityHomography()}
	for k := 1; k < n; k++ {
		bg, err := fwd.at(float64(k) / float64(n))
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", k)
		}
		fg, err := rev.at(float64(n-k) / float64(n))
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", k)
		}
		plans[k] = framePlan{background: bg, foreground: &fg}
	}
	return plans, nil
}

// spiralPlans moves every corner along a logarithmic spiral around the
// recursion's vanishing point: the background quad travels from the base
// rectangle to dest, the foreground quad from dest back to the rectangle.
func spiralPlans(rect, dest Quad, forward, inverse Homography, o options) ([]framePlan, error) {
	n := o.frameCount
	center := dest.Centroid()
	if last, ok := GenerateSequences(rect, forward, inverse, o.sequence).Last(); ok {
		center = last.Centroid()
	}

	var bgPaths, fgPaths [4][]Point
	for i := range 4 {
		bgPaths[i] = SpiralPath(rect[i], dest[i], center, n+1)
		fgPaths[i] = SpiralPath(dest[i], rect[i], center, n+1)
	}

	plans := make([]framePlan, n)
	for k := range n {
		var bgQuad, fgQuad Quad
		for i := range 4 {
			bgQuad[i] = bgPaths[i][k]
			fgQuad[i] = fgPaths[i][k]
		}
		bg, err := Solve(rect, bgQuad)
		if err != nil {
			return nil, errors.Wrapf(err, "spiral frame %d background", k)
		}
		fg, err := Solve(fgQuad, rect)
		if err != nil {
			return nil, errors.Wrapf(err, "spiral frame %d foreground", k)
		}
		plans[k] = framePlan{background: bg, foreground: &fg}
	}
	return plans, nil
}

// renderFrames renders every plan concurrently.
func renderFrames(ctx context.Context, composite *Raster, plans []framePlan, o options) (Frames, error) {
	w, h := composite.Size()
	frames := make(Frames, len(plans))

	limit := o.workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for k, plan := range plans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frames[k] = Frame{Index: k, Raster: renderFrame(composite, plan, w, h, o.interp)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "render frames")
	}
	return frames, nil
}

func renderFrame(composite *Raster, plan framePlan, w, h int, mode InterpolationMode) *Raster {
	if plan.foreground == nil && plan.background.IsIdentity(0) {
		return composite.Clone()
	}
	frame := warp(composite, plan.background, w, h, mode)
	if plan.foreground != nil {
		top := warp(composite, *plan.foreground, w, h, mode)
		blend.Span(frame.data, top.data, blend.BlendSourceOver)
	}
	return frame
}
