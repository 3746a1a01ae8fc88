// Package lcd connects rendered surfaces to TinyGo display drivers and
// draws text overlays with tinyfont.
package lcd

import (
	imgcolor "image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// Font is the overlay font, 8 points with a 10 pixel line height.
var Font = &proggy.TinySZ8pt7b

const lineHeight = 10

// Canvas exposes a surface as a drivers.Displayer so driver-level drawing
// code, such as tinyfont, can write into it.
type Canvas[C color.Pixel[C]] struct {
	img surface.Image[C]
}

// NewCanvas wraps img. Writes go straight to its pixels.
func NewCanvas[C color.Pixel[C]](img surface.Image[C]) *Canvas[C] {
	return &Canvas[C]{img: img}
}

func (c *Canvas[C]) Size() (x, y int16) {
	return int16(min(c.img.Width(), 1<<15-1)), int16(min(c.img.Height(), 1<<15-1))
}

// SetPixel writes an opaque pixel; fully transparent pixels are skipped.
func (c *Canvas[C]) SetPixel(x, y int16, rgba imgcolor.RGBA) {
	if rgba.A == 0 {
		return
	}
	c.img.Set(int(x), int(y), color.From[C](color.RGB8(rgba.R, rgba.G, rgba.B)))
}

// Display is a no-op; the surface is the display memory.
func (c *Canvas[C]) Display() error { return nil }

// Present copies img to the top-left corner of d, clipped to the display
// size, and flushes it.
func Present[C color.Pixel[C]](d drivers.Displayer, img surface.Image[C]) error {
	dw, dh := d.Size()
	w, h := min(img.Width(), int(dw)), min(img.Height(), int(dh))
	for y := range h {
		row := img.Row(y)
		for x := range w {
			d.SetPixel(int16(x), int16(y), toRGBA(row[x]))
		}
	}
	return d.Display()
}

// Label writes lines of text into img, starting at the top left.
func Label[C color.Pixel[C]](img surface.Image[C], lines []string, fg color.RGBf) {
	canvas := NewCanvas(img)
	c := toRGBA(color.From[C](fg))
	for i, l := range lines {
		tinyfont.WriteLine(canvas, Font, 2, int16(lineHeight*(i+1)-2), l, c)
	}
}

func toRGBA[C color.Pixel[C]](p C) imgcolor.RGBA {
	c := color.From[color.RGBA32](p.RGBf())
	return imgcolor.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
