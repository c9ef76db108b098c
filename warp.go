package droste

import (
	"github.com/pkg/errors"

	intImage "github.com/gogpu/droste/internal/image"
)

// Warp resamples src through h into a new width×height raster.
//
// h maps destination pixel coordinates to source coordinates: each output
// pixel center (x+0.5, y+0.5) is sent through h and the source is sampled
// there with the configured filter (bicubic by default). Output pixels that
// map outside the source are transparent black. Rows are processed in
// parallel; the result does not depend on the number of workers.
func Warp(src *Raster, h Homography, width, height int, opts ...Option) (*Raster, error) {
	if src == nil {
		return nil, errors.Wrap(ErrInvalidDimensions, "warp source is nil")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "warp output %dx%d", width, height)
	}
	o := applyOptions(opts)

	dst := newRaster(width, height)
	pool := o.newPool()
	defer pool.Close()

	view := src.view()
	pool.Bands(height, func(start, end int) {
		warpRows(dst, view, h, o.interp, start, end)
	})
	return dst, nil
}

// warp is the single-goroutine form of Warp used where the caller already
// parallelizes across layers or frames.
func warp(src *Raster, h Homography, width, height int, mode InterpolationMode) *Raster {
	dst := newRaster(width, height)
	warpRows(dst, src.view(), h, mode, 0, height)
	return dst
}

// warpRows fills rows [start, end) of dst.
func warpRows(dst *Raster, src intImage.View, h Homography, mode InterpolationMode, start, end int) {
	for y := start; y < end; y++ {
		row := dst.row(y)
		fy := float64(y) + 0.5
		for x := range dst.width {
			p := h.Apply(Point{X: float64(x) + 0.5, Y: fy})
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = intImage.Sample(src, p.X, p.Y, mode)
		}
	}
}
