// Package droste renders recursive "Droste effect" composites of an image.
//
// # Overview
//
// The user marks four destination corners inside an image. The projective
// transform (homography) taking the image rectangle onto those corners is
// applied again and again: to the corners, producing ever smaller nested
// quads, and in reverse, producing ever larger ones. Each quad gets a warped
// copy of the image and the copies are stacked into a single composite.
// The composite can then be animated as a zoom that lands seamlessly on the
// first nested copy.
//
// # Quick Start
//
//	import "github.com/gogpu/droste"
//
//	base, _ := droste.RasterFromImage(img)
//	s := droste.NewSession(base)
//	_ = s.SetCorners([]droste.Point{{X: 120, Y: 80}, {X: 380, Y: 95}, {X: 360, Y: 300}, {X: 110, Y: 280}})
//
//	composite, err := s.Composite()
//	frames, err := s.Frames(ctx, droste.ZoomIn)
//
// # Building Blocks
//
// The Session only caches; every stage is also available directly:
//   - Solve: homography between two quads
//   - CornerSequences, GenerateSequences: contracting and expanding quads
//   - BuildLayers, Composite: warped copies and their source-over stack
//   - FractionalPower, Animate, SpiralPath: interpolation for animations
//   - BuildFrames: concurrent frame rendering
//
// # Coordinate System
//
// Pixel coordinates with the origin at the top-left corner, X increasing
// right and Y increasing down. Pixel centers sit at half-integer
// coordinates. Corners are ordered TopLeft, TopRight, BottomRight,
// BottomLeft.
//
// A Homography used for warping maps destination pixels back to source
// coordinates, so Solve(rect, dest) used as a warp pulls the region inside
// dest up to fill the whole frame.
//
// # Pixels
//
// Rasters hold premultiplied RGBA8. Everything outside a warped source is
// transparent, and layers are combined with exact integer source-over.
package droste

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
