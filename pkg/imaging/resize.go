// Package imaging re-encodes screenshots into smaller JPEG derivatives.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // screenshots arrive as PNG
	"os"

	"golang.org/x/image/draw"
)

// Options for a derivative. A zero Width keeps the source size.
type Options struct {
	Width   int
	Quality int
}

// Size is an image's pixel dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resize decodes src, scales it down to opts.Width keeping the aspect ratio
// (never enlarging) and writes a JPEG to dst. It returns the output size.
func Resize(src, dst string, opts Options) (Size, error) {
	in, err := os.Open(src)
	if err != nil {
		return Size{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	img, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return Size{}, fmt.Errorf("failed to decode %s: %w", src, err)
	}

	out := Scale(img, opts.Width)

	f, err := os.Create(dst)
	if err != nil {
		return Size{}, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return Size{}, fmt.Errorf("failed to encode %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return Size{}, fmt.Errorf("failed to write %s: %w", dst, err)
	}

	b := out.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}, nil
}

// Scale fits img into width pixels, preserving the aspect ratio. Images that
// are already narrow enough, or a non-positive width, only get flattened
// onto white so transparent regions do not turn black in JPEG.
func Scale(img image.Image, width int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if width > 0 && w > width {
		h = max(1, h*width/w)
		w = width
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
