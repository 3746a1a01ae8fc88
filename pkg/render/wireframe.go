package render

import (
	"image"

	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
)

// Wireframe entry points draw edges as one pixel wide lines in a single
// colour. With depthTest set and a depth surface bound, pixels behind the
// stored depth are skipped; lines never write depth. Face culling follows
// the culling mode.

// DrawWireframeMesh draws the edges of every face of a segment.
func (r *Renderer[C, D]) DrawWireframeMesh(m *models.Mesh[C], c C, depthTest bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	box := NewAABB(m.BoundsMin, m.BoundsMax)
	if !box.Empty() && !r.frustum.IntersectAABB(box.Transform(r.model)) {
		r.stats.SegmentsRejected++
		return nil
	}
	r.stats.Segments++
	var pos [4]math3d.Vec3
	for fi := range m.Faces {
		f := &m.Faces[fi]
		sides := int(f.Sides)
		if sides != 3 && sides != 4 {
			continue
		}
		valid := true
		for k := range sides {
			if int(f.V[k]) >= len(m.Vertices) {
				valid = false
				break
			}
			pos[k] = m.Vertices[f.V[k]]
		}
		if valid {
			r.drawWirePolygon(pos[:sides], c, depthTest)
		}
	}
	return nil
}

// DrawWireframeTriangle draws the three edges of a model-space triangle.
func (r *Renderer[C, D]) DrawWireframeTriangle(pos [3]math3d.Vec3, c C, depthTest bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	r.drawWirePolygon(pos[:], c, depthTest)
	return nil
}

// DrawWireframeQuad draws the four outer edges of a model-space quad.
func (r *Renderer[C, D]) DrawWireframeQuad(pos [4]math3d.Vec3, c C, depthTest bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	r.drawWirePolygon(pos[:], c, depthTest)
	return nil
}

// DrawWireframeLine draws a model-space segment.
func (r *Renderer[C, D]) DrawWireframeLine(a, b math3d.Vec3, c C, depthTest bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	r.drawLine(r.toClip(a), r.toClip(b), c, depthTest && r.depth)
	return nil
}

func (r *Renderer[C, D]) toClip(p math3d.Vec3) math3d.Vec4 {
	return r.proj.m.MulVec4(math3d.V4FromV3(r.modelView.MulVec3(p), 1))
}

func (r *Renderer[C, D]) drawWirePolygon(pos []math3d.Vec3, c C, depthTest bool) {
	var (
		eye  [4]math3d.Vec3
		clip [4]math3d.Vec4
	)
	for k, p := range pos {
		eye[k] = r.modelView.MulVec3(p)
		clip[k] = r.proj.m.MulVec4(math3d.V4FromV3(eye[k], 1))
	}
	if r.cull != CullNone {
		fn := eye[1].Sub(eye[0]).Cross(eye[2].Sub(eye[0]))
		if r.culled(r.facing(eye[0], fn)) {
			r.stats.Culled++
			return
		}
	}
	for k := range pos {
		r.drawLine(clip[k], clip[(k+1)%len(pos)], c, depthTest && r.depth)
	}
}

// drawLine clips a clip-space segment to the near plane and the writable
// rectangle and draws it with Bresenham's algorithm. The depth key is
// affine in screen space, so it is interpolated linearly along the line.
func (r *Renderer[C, D]) drawLine(a, b math3d.Vec4, c C, depthTest bool) {
	a, b, ok := clipSegmentNear(a, b)
	if !ok {
		return
	}
	pa, pb := r.project(&ClipVertex{Pos: a}), r.project(&ClipVertex{Pos: b})

	rect := r.rs.clip
	if rect.Empty() {
		return
	}
	t0, t1, ok := clipLineRect(pa.x, pa.y, pb.x, pb.y, rect)
	if !ok {
		return
	}
	dxf, dyf, dqf := pb.x-pa.x, pb.y-pa.y, pb.q-pa.q
	x0, y0, q0 := pa.x+dxf*t0, pa.y+dyf*t0, pa.q+dqf*t0
	x1, y1, q1 := pa.x+dxf*t1, pa.y+dyf*t1, pa.q+dqf*t1
	r.stats.Lines++

	ix, iy := floorInt(x0), floorInt(y0)
	ex, ey := floorInt(x1), floorInt(y1)
	dx, dy := abs(ex-ix), -abs(ey-iy)
	sx, sy := 1, 1
	if ix > ex {
		sx = -1
	}
	if iy > ey {
		sy = -1
	}
	dq := (q1 - q0) / float32(max(dx, -dy, 1))
	q := q0
	zpix, zstride := r.zbuf.Pix(), r.zbuf.Stride()
	for e := dx + dy; ; {
		if (image.Point{X: ix, Y: iy}).In(rect) {
			if !depthTest || r.rs.depth.lineVisible(float32(zpix[iy*zstride+ix]), r.rs.depth.value(q)) {
				r.img.Row(iy)[ix] = c
			}
		}
		if ix == ex && iy == ey {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ix += sx
		}
		if e2 <= dx {
			e += dx
			iy += sy
		}
		q += dq
	}
}

// clipLineRect clips the segment p0 + t*(p1-p0), t in [0, 1], against rect
// widened by one pixel (Liang-Barsky). Pixels outside rect are still
// rejected when plotting.
func clipLineRect(x0, y0, x1, y1 float32, rect image.Rectangle) (t0, t1 float32, ok bool) {
	minX, minY := float32(rect.Min.X-1), float32(rect.Min.Y-1)
	maxX, maxY := float32(rect.Max.X+1), float32(rect.Max.Y+1)
	dx, dy := x1-x0, y1-y0
	t0, t1 = 0, 1
	for _, e := range [4][2]float32{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, false
			}
			t1 = min(t1, t)
		}
	}
	return t0, t1, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
