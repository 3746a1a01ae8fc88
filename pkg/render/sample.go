package render

import (
	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// wrapping maps an integer texel coordinate into [0, size).
type wrapping interface {
	index(i, size int) int
}

// wrapPow2 repeats the texture; size must be a power of two.
type wrapPow2 struct{}

func (wrapPow2) index(i, size int) int { return i & (size - 1) }

// wrapClamp repeats the edge texels.
type wrapClamp struct{}

func (wrapClamp) index(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// sampler reads a texture at normalised coordinates. v = 0 is the first
// row.
type sampler[C color.Pixel[C]] interface {
	sample(tex *surface.Image[C], u, v float32) color.RGBf
}

type nearest[C color.Pixel[C], W wrapping] struct{}

func (nearest[C, W]) sample(tex *surface.Image[C], u, v float32) color.RGBf {
	var w W
	x := w.index(floorInt(u*float32(tex.Width())), tex.Width())
	y := w.index(floorInt(v*float32(tex.Height())), tex.Height())
	return tex.Pix()[y*tex.Stride()+x].RGBf()
}

type bilinear[C color.Pixel[C], W wrapping] struct{}

func (bilinear[C, W]) sample(tex *surface.Image[C], u, v float32) color.RGBf {
	var w W
	width, height := tex.Width(), tex.Height()
	fx, fy := u*float32(width), v*float32(height)
	ix, iy := floorInt(fx), floorInt(fy)
	ax, ay := fx-float32(ix), fy-float32(iy)

	x0, x1 := w.index(ix, width), w.index(ix+1, width)
	r0 := tex.Pix()[w.index(iy, height)*tex.Stride():]
	r1 := tex.Pix()[w.index(iy+1, height)*tex.Stride():]
	return color.Bilinear(r0[x0].RGBf(), r0[x1].RGBf(), r1[x0].RGBf(), r1[x1].RGBf(), ax, ay)
}

// floorInt is floor for the texel range; it saturates far outside it.
func floorInt(f float32) int {
	const limit = 1 << 30
	switch {
	case f >= limit:
		return limit
	case f <= -limit:
		return -limit
	case f != f:
		return 0
	}
	i := int(f)
	if f < float32(i) {
		i--
	}
	return i
}
