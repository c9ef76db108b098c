package image

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	// Extra decoders registered with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")

	// ErrNoFrames is returned when an animation has no frames to encode.
	ErrNoFrames = errors.New("image: no frames")
)

// Load decodes the image file at path. PNG, JPEG, GIF (first frame), BMP,
// TIFF and WebP are recognized from the file content.
func Load(path string) (image.Image, string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", errors.Wrap(err, "image: read file")
	}
	return LoadBytes(data)
}

// LoadBytes decodes an image held in memory.
func LoadBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "image: decode")
	}
	return img, format, nil
}

// ToRGBA converts any image to a premultiplied *image.RGBA whose bounds
// start at the origin. An *image.RGBA already at the origin is copied.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Downscale shrinks img so that neither side exceeds maxSize, preserving
// the aspect ratio, with a Catmull-Rom filter. Images that already fit, or
// a non-positive maxSize, are only converted with ToRGBA.
func Downscale(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return ToRGBA(img)
	}

	if w > h {
		h = max(1, int(float64(h)*float64(maxSize)/float64(w)+0.5))
		w = maxSize
	} else {
		w = max(1, int(float64(w)*float64(maxSize)/float64(h)+0.5))
		h = maxSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SavePNG writes img as a PNG file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "image: create file")
	}

	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// EncodePNG encodes img as PNG to w.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(err, "image: encode PNG")
	}
	return nil
}

// EncodeJPEG encodes img as JPEG to w with the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	quality = clamp(quality, 1, 100)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return errors.Wrap(err, "image: encode JPEG")
	}
	return nil
}

// PNGSequence writes every frame as dir/<prefix>NNNN.png and returns the
// written paths in frame order.
func PNGSequence(dir, prefix string, frames []image.Image) ([]string, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := os.MkdirAll(filepath.Clean(dir), 0o750); err != nil {
		return nil, errors.Wrap(err, "image: create frame directory")
	}

	paths := make([]string, 0, len(frames))
	for i, frame := range frames {
		path := filepath.Join(dir, frameName(prefix, i))
		if err := SavePNG(path, frame); err != nil {
			return paths, errors.Wrapf(err, "image: frame %d", i)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func frameName(prefix string, i int) string {
	return fmt.Sprintf("%s%04d.png", prefix, i)
}

// EncodeGIF writes frames as a looping animated GIF. delay is the per-frame
// delay in hundredths of a second. Frames are flattened over background
// and dithered onto the Plan 9 palette.
func EncodeGIF(w io.Writer, frames []image.Image, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, Palettize(frame))
		anim.Delay = append(anim.Delay, delay)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return errors.Wrap(err, "image: encode GIF")
	}
	return nil
}

// SaveGIF writes frames as an animated GIF file.
func SaveGIF(path string, frames []image.Image, delay int) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "image: create file")
	}

	if err := EncodeGIF(f, frames, delay); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
