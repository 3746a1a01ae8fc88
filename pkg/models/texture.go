package models

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"math/bits"
	"os"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// ErrEmptyImage is returned when a texture source has no pixels.
var ErrEmptyImage = errors.New("models: empty image")

// DefaultMaxTextureSize bounds imported textures on each axis.
const DefaultMaxTextureSize = 256

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ceilPow2 returns the smallest power of two >= n, capped at limit.
func ceilPow2(n, limit int) int {
	if n <= 1 {
		return 1
	}
	p := 1 << bits.Len(uint(n-1))
	return min(p, limit)
}

// TextureFromImage converts img to a texture whose dimensions are powers of
// two no larger than maxSize, so it can be sampled with wrap-around.
// Images that already fit are converted pixel for pixel; others are
// resampled with Catmull-Rom filtering.
func TextureFromImage[C color.Pixel[C]](img image.Image, maxSize int) (surface.Image[C], error) {
	b := img.Bounds()
	if b.Empty() {
		return surface.Image[C]{}, ErrEmptyImage
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxTextureSize
	}
	limit := 1 << (bits.Len(uint(maxSize)) - 1)
	w, h := ceilPow2(b.Dx(), limit), ceilPow2(b.Dy(), limit)

	src := img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	tex := surface.New[C](w, h)
	sb := src.Bounds()
	for y := range h {
		row := tex.Row(y)
		for x := range w {
			r, g, bl, _ := src.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			row[x] = color.From[C](color.RGB8(uint8(r>>8), uint8(g>>8), uint8(bl>>8)))
		}
	}
	return tex, nil
}

// DecodeTexture decodes a PNG, JPEG, BMP or WebP stream into a texture.
func DecodeTexture[C color.Pixel[C]](r io.Reader, maxSize int) (surface.Image[C], error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return surface.Image[C]{}, fmt.Errorf("decode texture: %w", err)
	}
	return TextureFromImage[C](img, maxSize)
}

// LoadTexture reads a texture file from disk.
func LoadTexture[C color.Pixel[C]](path string, maxSize int) (surface.Image[C], error) {
	f, err := os.Open(path)
	if err != nil {
		return surface.Image[C]{}, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	tex, err := DecodeTexture[C](f, maxSize)
	if err != nil {
		return surface.Image[C]{}, fmt.Errorf("%s: %w", path, err)
	}
	return tex, nil
}

// NewCheckerTexture returns a size x size checkerboard with cells of
// cell pixels, alternating a and b.
func NewCheckerTexture[C color.Pixel[C]](size, cell int, a, b color.RGBf) surface.Image[C] {
	tex := surface.New[C](size, size)
	ca, cb := color.From[C](a), color.From[C](b)
	cell = max(cell, 1)
	for y := range size {
		row := tex.Row(y)
		for x := range size {
			if (x/cell+y/cell)%2 == 0 {
				row[x] = ca
			} else {
				row[x] = cb
			}
		}
	}
	return tex
}
