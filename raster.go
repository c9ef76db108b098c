package droste

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"

	intImage "github.com/gogpu/droste/internal/image"
)

// Raster is a width×height buffer of premultiplied RGBA8 samples,
// 4 bytes per pixel, rows packed without padding.
//
// Engine stages never modify a Raster they receive; each stage allocates a
// new one. Only composite accumulators are written in place.
type Raster struct {
	width  int
	height int
	data   []uint8
}

// NewRaster creates a transparent raster with the given dimensions.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}
	return newRaster(width, height), nil
}

func newRaster(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// RasterFromImage converts img into a new Raster. The raster origin is the
// top-left corner of img's bounds.
func RasterFromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", b.Dx(), b.Dy())
	}
	rgba := intImage.ToRGBA(img)
	return &Raster{width: b.Dx(), height: b.Dy(), data: rgba.Pix}, nil
}

// Width returns the width of the raster.
func (r *Raster) Width() int {
	return r.width
}

// Height returns the height of the raster.
func (r *Raster) Height() int {
	return r.height
}

// Size returns the raster dimensions.
func (r *Raster) Size() (width, height int) {
	return r.width, r.height
}

// Pix returns the raw premultiplied pixel data.
func (r *Raster) Pix() []uint8 {
	return r.data
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	data := make([]uint8, len(r.data))
	copy(data, r.data)
	return &Raster{width: r.width, height: r.height, data: data}
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(other *Raster) bool {
	return r.width == other.width && r.height == other.height &&
		bytes.Equal(r.data, other.data)
}

// RGBAAt returns the premultiplied color at (x, y).
// Out of bounds coordinates return transparent black.
func (r *Raster) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return color.RGBA{}
	}
	i := (y*r.width + x) * 4
	return color.RGBA{R: r.data[i], G: r.data[i+1], B: r.data[i+2], A: r.data[i+3]}
}

// SetRGBA sets the premultiplied color at (x, y).
// Out of bounds coordinates are ignored.
func (r *Raster) SetRGBA(x, y int, c color.RGBA) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	i := (y*r.width + x) * 4
	r.data[i+0] = c.R
	r.data[i+1] = c.G
	r.data[i+2] = c.B
	r.data[i+3] = c.A
}

// Fill sets every pixel to c.
func (r *Raster) Fill(c color.RGBA) {
	for i := 0; i < len(r.data); i += 4 {
		r.data[i+0] = c.R
		r.data[i+1] = c.G
		r.data[i+2] = c.B
		r.data[i+3] = c.A
	}
}

// row returns the pixel bytes of row y.
func (r *Raster) row(y int) []uint8 {
	stride := r.width * 4
	return r.data[y*stride : (y+1)*stride]
}

// view exposes the pixels to the internal samplers.
func (r *Raster) view() intImage.View {
	return intImage.View{Pix: r.data, Width: r.width, Height: r.height}
}

// ToImage returns a copy of the raster as an *image.RGBA.
func (r *Raster) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	copy(img.Pix, r.data)
	return img
}

// At implements the image.Image interface.
func (r *Raster) At(x, y int) color.Color {
	return r.RGBAAt(x, y)
}

// Set implements the draw.Image interface.
func (r *Raster) Set(x, y int, c color.Color) {
	r.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

// Bounds implements the image.Image interface.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// ColorModel implements the image.Image interface.
func (r *Raster) ColorModel() color.Model {
	return color.RGBAModel
}
