package droste

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Session is the editor state the engine works on: the current image, the
// destination corners picked so far, the stack order and the results
// derived from them.
//
// Derived results are cached and dropped whenever an input they depend on
// changes. The engine functions themselves keep no state; Session only
// decides what to recompute.
//
// Thread safety: Session is safe for concurrent use. Rasters and frames it
// returns are shared with its caches and must not be modified.
type Session struct {
	mu sync.Mutex

	opts    []Option
	o       options
	image   *Raster
	corners []Point
	next    int // corner replaced by the next AddCorner once four are set
	order   StackOrder

	seq       *SequenceResult
	layers    *Layers
	composite *Raster
	frames    Frames
}

// NewSession creates a session for img. img may be nil and set later with
// SetImage.
func NewSession(img *Raster, opts ...Option) *Session {
	o := applyOptions(opts)
	return &Session{
		opts:  opts,
		o:     o,
		image: img,
		order: o.stackOrder,
	}
}

// SetImage replaces the image and clears the corners and every cache.
func (s *Session) SetImage(img *Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.corners = nil
	s.next = 0
	s.invalidate()
}

// Image returns the current image, or nil.
func (s *Session) Image() *Raster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// AddCorner records a picked corner, clamped ten pixels inside the image
// bounds. The first four calls fill the corners in order; later calls
// replace them cyclically starting from the first. It returns the index
// that was set.
func (s *Session) AddCorner(p Point) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return 0, ErrNoImage
	}
	p = clampPoint(p, s.image.width, s.image.height)

	idx := s.next
	if len(s.corners) < 4 {
		idx = len(s.corners)
		s.corners = append(s.corners, p)
	} else {
		s.corners[idx] = p
	}
	s.next = (idx + 1) % 4
	s.invalidate()
	return idx, nil
}

// SetCorners replaces all corners. At most four points are accepted.
func (s *Session) SetCorners(pts []Point) error {
	if len(pts) > 4 {
		return errors.Wrapf(ErrInvalidQuad, "got %d points", len(pts))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.corners = append([]Point(nil), pts...)
	s.next = len(pts) % 4
	s.invalidate()
	return nil
}

// Corners returns a copy of the corners set so far.
func (s *Session) Corners() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Point(nil), s.corners...)
}

// StackOrder returns the current stack order.
func (s *Session) StackOrder() StackOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// FlipStack toggles the stack order. The warped layers stay cached; only
// the composite and the frames built from it are dropped.
func (s *Session) FlipStack() StackOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order.Flip()
	s.composite = nil
	s.frames = nil
	return s.order
}

// Sequences returns the corner sequences for the current corners.
// With fewer than four corners both sequences are empty.
func (s *Session) Sequences() (SequenceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequences()
}

func (s *Session) sequences() (SequenceResult, error) {
	if s.image == nil {
		return SequenceResult{}, ErrNoImage
	}
	if s.seq != nil {
		return *s.seq, nil
	}
	res, err := CornerSequences(RectQuad(s.image.Size()), s.corners, s.opts...)
	if err != nil {
		return SequenceResult{}, err
	}
	s.seq = &res
	return res, nil
}

// Composite returns the recursive composite for the current corners and
// stack order. With fewer than four corners it is a copy of the image.
// Degenerate corners are reported as ErrDegenerateCorrespondence.
func (s *Session) Composite() (*Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositeLocked()
}

func (s *Session) compositeLocked() (*Raster, error) {
	if s.image == nil {
		return nil, ErrNoImage
	}
	if s.composite != nil {
		return s.composite, nil
	}
	if len(s.corners) < 4 {
		s.composite = s.image.Clone()
		return s.composite, nil
	}

	if s.layers == nil {
		seq, err := s.sequences()
		if err != nil {
			return nil, err
		}
		layers, err := BuildLayers(s.image, seq, s.opts...)
		if err != nil {
			return nil, err
		}
		s.layers = layers
	}
	s.composite = s.layers.Composite(s.order)
	return s.composite, nil
}

// Frames returns the zoom animation of the current composite. ZoomOut is
// the ZoomIn sequence reversed; switching direction does not re-render.
// Fewer than four corners yields ErrInsufficientCorners.
func (s *Session) Frames(ctx context.Context, dir Direction) (Frames, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return nil, ErrNoImage
	}
	if len(s.corners) < 4 {
		return nil, errors.Wrapf(ErrInsufficientCorners, "%d corners set", len(s.corners))
	}

	if s.frames == nil {
		composite, err := s.compositeLocked()
		if err != nil {
			return nil, err
		}
		dest, err := s.o.destQuad(s.corners)
		if err != nil {
			return nil, err
		}
		frames, err := BuildFrames(ctx, composite, dest, ZoomIn, s.opts...)
		if err != nil {
			return nil, err
		}
		s.frames = frames
	}

	if dir == ZoomOut {
		return s.frames.Reversed(), nil
	}
	return s.frames, nil
}

// invalidate drops every derived result.
func (s *Session) invalidate() {
	s.seq = nil
	s.layers = nil
	s.composite = nil
	s.frames = nil
}
