package image

import (
	"image"
	"image/color"
	"image/color/palette"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// Background is the color transparent pixels are flattened onto before
// palettizing.
var Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Palettize flattens img over Background and dithers it onto the Plan 9
// palette with Floyd-Steinberg error diffusion.
func Palettize(img image.Image) *image.Paletted {
	b := img.Bounds()
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.NewUniform(Background), image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	dst := image.NewPaletted(b, palette.Plan9)
	stddraw.FloydSteinberg.Draw(dst, b, flat, b.Min)
	return dst
}
