package render

import (
	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

// ClipVertex is a clip-space vertex with the attributes the clipper
// interpolates.
type ClipVertex struct {
	Pos    math3d.Vec4
	Normal math3d.Vec3
	Color  color.RGBf
	UV     math3d.Vec2
}

// Lerp interpolates every attribute.
func (a ClipVertex) Lerp(b ClipVertex, t float32) ClipVertex {
	return ClipVertex{
		Pos:    a.Pos.Lerp(b.Pos, t),
		Normal: a.Normal.Lerp(b.Normal, t),
		Color:  a.Color.Lerp(b.Color, t),
		UV:     a.UV.Lerp(b.UV, t),
	}
}

// NearSide classifies a clip-space position against the near plane.
type NearSide int8

const (
	NearBehind NearSide = iota - 1
	NearBorderline
	NearFront
)

func (s NearSide) String() string {
	switch s {
	case NearBehind:
		return "behind"
	case NearBorderline:
		return "borderline"
	default:
		return "front"
	}
}

// borderlineEpsilon is relative to max(1, |w|).
const borderlineEpsilon = 1e-5

// nearDistance is the signed distance to the near plane z = -w; positive
// in front.
func nearDistance(p math3d.Vec4) float32 { return p.Z + p.W }

// ClassifyNear reports on which side of the near plane p lies. Points
// within rounding distance of the plane are NearBorderline; the clipper
// keeps them unchanged when their distance is not negative.
func ClassifyNear(p math3d.Vec4) NearSide {
	d := nearDistance(p)
	if math32.Abs(d) <= borderlineEpsilon*max(1, math32.Abs(p.W)) {
		return NearBorderline
	}
	if d > 0 {
		return NearFront
	}
	return NearBehind
}

// ClipNear clips a triangle against the near plane and writes the result
// into out, returning the number of triangles (0, 1 or 2). A triangle
// entirely in front is copied unchanged into out[0]. Vertex order, and so
// winding, is preserved.
func ClipNear(tri [3]ClipVertex, out *[2][3]ClipVertex) int {
	var d [3]float32
	front := 0
	for i := range tri {
		d[i] = nearDistance(tri[i].Pos)
		if d[i] >= 0 {
			front++
		}
	}
	switch front {
	case 3:
		out[0] = tri
		return 1
	case 0:
		return 0
	}

	// One input edge crossing adds one vertex; a triangle yields at most 4.
	var poly [4]ClipVertex
	n := 0
	for i := range 3 {
		j := (i + 1) % 3
		a, b := &tri[i], &tri[j]
		if d[i] >= 0 {
			poly[n] = *a
			n++
		}
		// A vertex on the plane is its own intersection.
		if (d[i] > 0 && d[j] < 0) || (d[i] < 0 && d[j] > 0) {
			v := a.Lerp(*b, d[i]/(d[i]-d[j]))
			v.Pos.Z = -v.Pos.W
			poly[n] = v
			n++
		}
	}

	if n < 3 {
		// Only touches the plane.
		return 0
	}
	out[0] = [3]ClipVertex{poly[0], poly[1], poly[2]}
	if n == 4 {
		out[1] = [3]ClipVertex{poly[0], poly[2], poly[3]}
		return 2
	}
	return 1
}

// clipSegmentNear clips a line segment against the near plane. ok is false
// when the segment is entirely behind.
func clipSegmentNear(a, b math3d.Vec4) (math3d.Vec4, math3d.Vec4, bool) {
	da, db := nearDistance(a), nearDistance(b)
	switch {
	case da >= 0 && db >= 0:
		return a, b, true
	case da < 0 && db < 0:
		return a, b, false
	}
	p := a.Lerp(b, da/(da-db))
	p.Z = -p.W
	if da < 0 {
		return p, b, true
	}
	return a, p, true
}

// guardNDC bounds |x| and |y| in NDC before rasterization. At the largest
// viewport the screen coordinates stay well inside guardBand, so snapping
// never clamps and edges keep their slope.
const guardNDC = 256

// maxGuardTris is the most triangles clipGuard can return: each of the
// four planes adds at most one vertex to the polygon.
const maxGuardTris = 5

// insideGuard reports whether p projects inside the guard band.
func insideGuard(p math3d.Vec4) bool {
	g := guardNDC * p.W
	return math32.Abs(p.X) <= g && math32.Abs(p.Y) <= g
}

// guardDistance is the signed distance of p to guard plane i, positive
// inside.
func guardDistance(p math3d.Vec4, i int) float32 {
	g := guardNDC * p.W
	switch i {
	case 0:
		return g + p.X
	case 1:
		return g - p.X
	case 2:
		return g + p.Y
	default:
		return g - p.Y
	}
}

// clipGuard clips a triangle in front of the near plane against the guard
// band planes x = ±k·w and y = ±k·w and fans the result into out, keeping
// the winding. It returns the number of triangles written.
func clipGuard(tri [3]ClipVertex, out *[maxGuardTris][3]ClipVertex) int {
	if insideGuard(tri[0].Pos) && insideGuard(tri[1].Pos) && insideGuard(tri[2].Pos) {
		out[0] = tri
		return 1
	}

	var bufs [2][3 + 4]ClipVertex
	src := bufs[0][:0]
	src = append(src, tri[:]...)
	for plane := range 4 {
		dst := bufs[(plane+1)%2][:0]
		for i := range src {
			a, b := &src[i], &src[(i+1)%len(src)]
			da, db := guardDistance(a.Pos, plane), guardDistance(b.Pos, plane)
			if da >= 0 {
				dst = append(dst, *a)
			}
			if (da > 0 && db < 0) || (da < 0 && db > 0) {
				dst = append(dst, a.Lerp(*b, da/(da-db)))
			}
		}
		if len(dst) < 3 {
			return 0
		}
		src = dst
	}

	n := 0
	for i := 1; i+1 < len(src); i++ {
		out[n] = [3]ClipVertex{src[0], src[i], src[i+1]}
		n++
	}
	return n
}
