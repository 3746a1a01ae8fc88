package surface

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/taigrr/tinyraster/pkg/color"
)

// ToRGBA converts the image into a standard library RGBA image.
func ToRGBA[C color.Pixel[C]](im Image[C]) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.width, im.height))
	for y := range im.height {
		row := im.Row(y)
		o := y * out.Stride
		for x, p := range row {
			c := color.From[color.RGBA32](p.RGBf())
			out.Pix[o+x*4+0] = c.R
			out.Pix[o+x*4+1] = c.G
			out.Pix[o+x*4+2] = c.B
			out.Pix[o+x*4+3] = 255
		}
	}
	return out
}

// SavePNG writes the image to path as a PNG file.
func SavePNG[C color.Pixel[C]](path string, im Image[C]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, ToRGBA(im)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
