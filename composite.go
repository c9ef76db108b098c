package droste

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gogpu/droste/internal/blend"
)

// StackOrder selects the painting direction of the recursive composite.
type StackOrder uint8

const (
	// StackTowardViewer paints the most zoomed-in copies first and the
	// innermost nested copies last, so the recursion comes toward the
	// viewer and the nested copies sit on top of the original.
	StackTowardViewer StackOrder = iota

	// StackAwayFromViewer paints the innermost nested copies first, so the
	// original and the zoomed-in copies cover them.
	StackAwayFromViewer
)

// String returns a string representation of the stack order.
func (s StackOrder) String() string {
	switch s {
	case StackTowardViewer:
		return "TowardViewer"
	case StackAwayFromViewer:
		return "AwayFromViewer"
	default:
		return "Unknown"
	}
}

// Flip returns the opposite stack order.
func (s StackOrder) Flip() StackOrder {
	if s == StackTowardViewer {
		return StackAwayFromViewer
	}
	return StackTowardViewer
}

// Layers holds the warped copies of a base raster in their fixed layer
// order: expanding copies from the farthest recursion level inward, then the
// original, then contracting copies from the first level to the deepest.
//
// Layers are immutable once built. Composite may be called any number of
// times, in either order, without re-warping.
type Layers struct {
	width   int
	height  int
	layers  []*Raster
	origin  int // index of the original image
	workers int
}

// BuildLayers warps base once for every quad of seq. Each layer uses the
// homography from the base rectangle to its quad, so the coefficients map
// output pixels onto the source image. Warps run concurrently.
func BuildLayers(base *Raster, seq SequenceResult, opts ...Option) (*Layers, error) {
	if base == nil {
		return nil, errors.Wrap(ErrInvalidDimensions, "layer base is nil")
	}
	o := applyOptions(opts)
	w, h := base.Size()
	rect := RectQuad(w, h)

	n := len(seq.Expanding) + 1 + len(seq.Contracting)
	mappings := make([]Homography, n)
	origin := len(seq.Expanding)

	for i := range seq.Expanding {
		// Farthest expanding level first.
		q := seq.Expanding[len(seq.Expanding)-1-i]
		m, err := Solve(rect, q)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding layer %d", len(seq.Expanding)-i)
		}
		mappings[i] = m
	}
	for i, q := range seq.Contracting {
		m, err := Solve(rect, q)
		if err != nil {
			return nil, errors.Wrapf(err, "contracting layer %d", i+1)
		}
		mappings[origin+1+i] = m
	}

	layers := make([]*Raster, n)
	layers[origin] = base

	pool := o.newPool()
	defer pool.Close()
	pool.ForEach(n, func(i int) {
		if i == origin {
			return
		}
		layers[i] = warp(base, mappings[i], w, h, o.interp)
	})

	Logger().Debug("droste: built layers",
		slog.Int("expanding", len(seq.Expanding)),
		slog.Int("contracting", len(seq.Contracting)))

	return &Layers{width: w, height: h, layers: layers, origin: origin, workers: o.workers}, nil
}

// Len returns the number of layers, the original included.
func (l *Layers) Len() int {
	return len(l.layers)
}

// Layer returns layer i in layer order. The raster must not be modified.
func (l *Layers) Layer(i int) *Raster {
	return l.layers[i]
}

// OriginIndex returns the position of the unwarped original in layer order.
func (l *Layers) OriginIndex() int {
	return l.origin
}

// PaintOrder returns the layer indices in the order they are painted for
// the given stack order: layer order for StackAwayFromViewer, reversed for
// StackTowardViewer.
func (l *Layers) PaintOrder(order StackOrder) []int {
	idx := make([]int, len(l.layers))
	for i := range idx {
		if order == StackAwayFromViewer {
			idx[i] = i
		} else {
			idx[i] = len(l.layers) - 1 - i
		}
	}
	return idx
}

// Composite paints the layers with source-over onto a new transparent
// raster in the painting order selected by order.
func (l *Layers) Composite(order StackOrder) *Raster {
	return l.paint(l.PaintOrder(order))
}

// paint composites the layers in the given order, band by band. Within a
// band every layer is applied in order, so each pixel sees the same
// sequence of blends as a serial paint.
func (l *Layers) paint(order []int) *Raster {
	acc := newRaster(l.width, l.height)
	stride := l.width * 4

	pool := applyOptions([]Option{WithWorkers(l.workers)}).newPool()
	defer pool.Close()
	pool.Bands(l.height, func(start, end int) {
		lo, hi := start*stride, end*stride
		for k, i := range order {
			mode := blend.BlendSourceOver
			if k == 0 {
				mode = blend.BlendSource
			}
			blend.Span(acc.data[lo:hi], l.layers[i].data[lo:hi], mode)
		}
	})
	return acc
}

// Composite renders the recursive composite of base for the given corner
// sequences in one step. It is BuildLayers followed by Layers.Composite.
func Composite(base *Raster, seq SequenceResult, order StackOrder, opts ...Option) (*Raster, error) {
	layers, err := BuildLayers(base, seq, opts...)
	if err != nil {
		return nil, err
	}
	return layers.Composite(order), nil
}
