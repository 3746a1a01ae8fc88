package render

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// SubpixelBits is the fractional precision of snapped vertex positions.
const SubpixelBits = 8

const (
	subpixelOne  = 1 << SubpixelBits
	subpixelHalf = subpixelOne / 2

	// guardBand bounds screen coordinates, in pixels, before snapping so
	// that edge function products fit in 64 bits.
	guardBand = 1 << 20
)

// rasterResult reports what happened to one triangle.
type rasterResult uint8

const (
	rasterDrawn rasterResult = iota
	rasterDegenerate
)

// rasterFunc is one specialised fill routine.
type rasterFunc[C color.Pixel[C], D Depth] func(rs *rasterState[C, D], v *[3]rasterVertex) rasterResult

// rasterState is what a fill routine reads besides the triangle.
type rasterState[C color.Pixel[C], D Depth] struct {
	img  surface.Image[C]
	zbuf surface.Image[D]
	// clip is the writable pixel rectangle: image bounds intersected with
	// the viewport, in image coordinates.
	clip image.Rectangle
	depth depthMap
	tex   *surface.Image[C]
	shade shadeState
}

// snap converts a pixel coordinate to fixed point, rounding to nearest.
// The pipeline clips to guardNDC first, so the clamp only binds for
// triangles handed to fill directly.
func snap(v float32) int64 {
	switch {
	case v != v:
		return 0
	case v > guardBand:
		v = guardBand
	case v < -guardBand:
		v = -guardBand
	}
	return int64(math32.Round(v * subpixelOne))
}

// edge evaluates the edge function of a->b at p. It is positive when p is
// on the interior side of an edge of a positively oriented triangle.
func edge(ax, ay, bx, by, px, py int64) int64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fillBias implements the top-left rule: pixel centres exactly on a top
// or left edge are inside, centres on any other edge are not. Screen y
// grows downward, so a left edge runs upward and a top edge runs right.
func fillBias(dx, dy int64) int64 {
	if dy < 0 || (dy == 0 && dx > 0) {
		return 0
	}
	return -1
}

// firstCenter returns the first pixel whose centre is at or after s.
func firstCenter(s int64) int64 { return (s - subpixelHalf + subpixelOne - 1) >> SubpixelBits }

// lastCenter returns the last pixel whose centre is at or before s.
func lastCenter(s int64) int64 { return (s - subpixelHalf) >> SubpixelBits }

// fill rasterizes one screen-space triangle. Pixels whose centres are
// inside by the top-left rule are shaded in row order; each is written
// only if the depth policy accepts it.
func fill[C color.Pixel[C], D Depth, P projection, Z depthTest[D], S shading, T texturing[C]](rs *rasterState[C, D], tri *[3]rasterVertex) rasterResult {
	var (
		proj P
		zt   Z
		sh   S
		tx   T
	)

	v := *tri
	x0, y0 := snap(v[0].x), snap(v[0].y)
	x1, y1 := snap(v[1].x), snap(v[1].y)
	x2, y2 := snap(v[2].x), snap(v[2].y)

	area := edge(x0, y0, x1, y1, x2, y2)
	switch {
	case area == 0:
		return rasterDegenerate
	case area < 0:
		v[1], v[2] = v[2], v[1]
		x1, y1, x2, y2 = x2, y2, x1, y1
		area = -area
	}

	minX := max(firstCenter(min(x0, x1, x2)), int64(rs.clip.Min.X))
	maxX := min(lastCenter(max(x0, x1, x2)), int64(rs.clip.Max.X-1))
	minY := max(firstCenter(min(y0, y1, y2)), int64(rs.clip.Min.Y))
	maxY := min(lastCenter(max(y0, y1, y2)), int64(rs.clip.Max.Y-1))
	if minX > maxX || minY > maxY {
		return rasterDrawn
	}

	// e12 weighs v0, e20 weighs v1, e01 weighs v2.
	px := minX<<SubpixelBits + subpixelHalf
	py := minY<<SubpixelBits + subpixelHalf
	row12 := edge(x1, y1, x2, y2, px, py)
	row20 := edge(x2, y2, x0, y0, px, py)
	row01 := edge(x0, y0, x1, y1, px, py)
	bias12 := fillBias(x2-x1, y2-y1)
	bias20 := fillBias(x0-x2, y0-y2)
	bias01 := fillBias(x1-x0, y1-y0)
	stepX12, stepY12 := -(y2-y1)<<SubpixelBits, (x2-x1)<<SubpixelBits
	stepX20, stepY20 := -(y0-y2)<<SubpixelBits, (x0-x2)<<SubpixelBits
	stepX01, stepY01 := -(y1-y0)<<SubpixelBits, (x1-x0)<<SubpixelBits

	inv := 1 / float32(area)
	zpix := rs.zbuf.Pix()
	zstride := rs.zbuf.Stride()

	for y := int(minY); y <= int(maxY); y++ {
		row := rs.img.Row(y)
		zrow := y * zstride
		e12, e20, e01 := row12, row20, row01
		entered := false
		for x := int(minX); x <= int(maxX); x++ {
			if (e12+bias12)|(e20+bias20)|(e01+bias01) >= 0 {
				entered = true
				w0, w1, w2, q := proj.weights(float32(e12)*inv, float32(e20)*inv, float32(e01)*inv, &v)
				if zt.test(zpix, zrow+x, q, &rs.depth) {
					row[x] = tx.apply(rs.tex, w0, w1, w2, &v, sh.shade(&rs.shade, w0, w1, w2, &v))
				}
			} else if entered {
				// Rows of a triangle are convex.
				break
			}
			e12 += stepX12
			e20 += stepX20
			e01 += stepX01
		}
		row12 += stepY12
		row20 += stepY20
		row01 += stepY01
	}
	return rasterDrawn
}
