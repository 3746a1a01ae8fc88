package render

import (
	"fmt"
	"image"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// DrawPixel draws a model-space point as a single pixel. When a depth
// surface is bound the point is depth tested and written like a triangle
// pixel, which needs ShaderZBuffer loaded.
func (r *Renderer[C, D]) DrawPixel(p math3d.Vec3, c C) error {
	return r.DrawDot(p, 0, c)
}

// DrawDot draws a model-space point as a disc of the given pixel radius at
// a single depth.
func (r *Renderer[C, D]) DrawDot(p math3d.Vec3, radius int, c C) error {
	if err := r.begin(); err != nil {
		return err
	}
	if r.depth && r.loaded&ShaderZBuffer == 0 {
		return fmt.Errorf("%w: %v", ErrShaderNotLoaded, ShaderZBuffer)
	}
	cp := r.toClip(p)
	if nearDistance(cp) < 0 {
		return nil
	}
	rv := r.project(&ClipVertex{Pos: cp})
	cx, cy := floorInt(rv.x), floorInt(rv.y)
	radius = max(radius, 0)
	area := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(r.rs.clip)
	if area.Empty() {
		return nil
	}
	r.stats.Points++

	var zt zBuffer[D]
	zpix, zstride := r.zbuf.Pix(), r.zbuf.Stride()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := r.img.Row(y)
		for x := area.Min.X; x < area.Max.X; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if r.depth && !zt.test(zpix, y*zstride+x, rv.q, &r.rs.depth) {
				continue
			}
			row[x] = c
		}
	}
	return nil
}
