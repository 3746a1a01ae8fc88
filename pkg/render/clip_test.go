package render

import (
	"testing"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

func clipVertex(x, y, z, w float32, tag float32) ClipVertex {
	return ClipVertex{
		Pos:    math3d.V4(x, y, z, w),
		Normal: math3d.V3(tag, 1-tag, 0),
		Color:  color.RGBf{R: tag, G: 2 * tag, B: 1},
		UV:     math3d.V2(tag, -tag),
	}
}

func TestClipNearPassthrough(t *testing.T) {
	tri := [3]ClipVertex{
		clipVertex(-1, -1, 0, 2, 0.1),
		clipVertex(1, -1, 0.5, 3, 0.2),
		clipVertex(0, 1, -1, 1, 0.3), // exactly on the plane
	}
	var out [2][3]ClipVertex
	if n := ClipNear(tri, &out); n != 1 {
		t.Fatalf("ClipNear returned %d triangles, want 1", n)
	}
	if out[0] != tri {
		t.Errorf("front triangle modified: got %v, want %v", out[0], tri)
	}
}

func TestClipNearBehind(t *testing.T) {
	tri := [3]ClipVertex{
		clipVertex(0, 0, -3, 1, 0),
		clipVertex(1, 0, -2, 1, 0),
		clipVertex(0, 1, -5, 2, 0),
	}
	var out [2][3]ClipVertex
	if n := ClipNear(tri, &out); n != 0 {
		t.Errorf("ClipNear returned %d triangles for a triangle behind the plane", n)
	}
}

func TestClipNearPartial(t *testing.T) {
	tests := []struct {
		name  string
		tri   [3]ClipVertex
		count int
	}{
		{
			name: "one behind",
			tri: [3]ClipVertex{
				clipVertex(0, 0, 0, 1, 0),
				clipVertex(1, 0, -3, 1, 1),
				clipVertex(0, 1, 0.5, 1, 0.5),
			},
			count: 2,
		},
		{
			name: "two behind",
			tri: [3]ClipVertex{
				clipVertex(0, 0, -2, 1, 0),
				clipVertex(1, 0, -3, 1, 1),
				clipVertex(0, 1, 0.5, 1, 0.5),
			},
			count: 1,
		},
		{
			name: "perspective w",
			tri: [3]ClipVertex{
				clipVertex(0, 0, 4.8, 5, 0),
				clipVertex(2, 0, 1.9, 2, 0.25),
				clipVertex(0, 1, -0.4, -0.2, 1),
			},
			count: 2,
		},
		{
			name: "one on plane one behind",
			tri: [3]ClipVertex{
				clipVertex(0, 0, -1, 1, 0),
				clipVertex(1, 0, -3, 1, 1),
				clipVertex(0, 1, 0.5, 1, 0.5),
			},
			count: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out [2][3]ClipVertex
			n := ClipNear(tc.tri, &out)
			if n != tc.count {
				t.Fatalf("ClipNear returned %d triangles, want %d", n, tc.count)
			}
			for i := range n {
				for k, v := range out[i] {
					if nearDistance(v.Pos) < 0 {
						t.Errorf("tri %d vertex %d behind the plane: %v", i, k, v.Pos)
					}
					checkOnInputEdge(t, tc.tri, v)
				}
			}
		})
	}
}

// checkOnInputEdge asserts that v is an input vertex or lies on an
// input edge with every attribute interpolated at the same t.
func checkOnInputEdge(t *testing.T, tri [3]ClipVertex, v ClipVertex) {
	t.Helper()
	for _, in := range tri {
		if in == v {
			return
		}
	}
	for i := range 3 {
		a, b := tri[i], tri[(i+1)%3]
		da, db := nearDistance(a.Pos), nearDistance(b.Pos)
		if (da >= 0) == (db >= 0) {
			continue
		}
		u := da / (da - db)
		if u < 0 || u > 1 {
			t.Errorf("edge %d: t = %v outside [0,1]", i, u)
		}
		want := a.Lerp(b, u)
		if near4(want.Pos.X, v.Pos.X) && near4(want.Pos.Y, v.Pos.Y) && near4(want.Pos.W, v.Pos.W) {
			if !near4(want.Normal.X, v.Normal.X) || !near4(want.Color.G, v.Color.G) ||
				!near4(want.UV.X, v.UV.X) || !near4(want.UV.Y, v.UV.Y) {
				t.Errorf("attributes at t=%v: got %+v, want %+v", u, v, want)
			}
			if !near4(v.Pos.Z, -v.Pos.W) {
				t.Errorf("intersection not on the near plane: %v", v.Pos)
			}
			return
		}
	}
	t.Errorf("vertex %+v is neither an input vertex nor on a crossing edge", v)
}

func near4(a, b float32) bool { return near32(a, b, 1e-4) }

func TestClipNearPreservesWinding(t *testing.T) {
	tri := [3]ClipVertex{
		clipVertex(-1, -1, 0, 1, 0),
		clipVertex(1, -1, 0, 1, 0),
		clipVertex(0, 1, -4, 1, 0),
	}
	signed := func(v [3]ClipVertex) float32 {
		a := math3d.V2(v[1].Pos.X-v[0].Pos.X, v[1].Pos.Y-v[0].Pos.Y)
		b := math3d.V2(v[2].Pos.X-v[0].Pos.X, v[2].Pos.Y-v[0].Pos.Y)
		return a.Cross(b)
	}
	var out [2][3]ClipVertex
	n := ClipNear(tri, &out)
	for i := range n {
		if signed(out[i]) <= 0 {
			t.Errorf("triangle %d lost counter-clockwise winding: %v", i, out[i])
		}
	}
}

func TestClassifyNear(t *testing.T) {
	tests := []struct {
		name string
		p    math3d.Vec4
		want NearSide
	}{
		{"front", math3d.V4(0, 0, 0, 1), NearFront},
		{"behind", math3d.V4(0, 0, -2, 1), NearBehind},
		{"on plane", math3d.V4(0, 0, -1, 1), NearBorderline},
		{"rounding", math3d.V4(0, 0, -0.5000001, 0.5), NearBorderline},
		{"large w", math3d.V4(0, 0, -1000.001, 1000), NearBorderline},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyNear(tc.p); got != tc.want {
				t.Errorf("ClassifyNear(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestClipSegmentNear(t *testing.T) {
	a := math3d.V4(0, 0, 0, 1)
	b := math3d.V4(0, 0, -3, 1)
	ca, cb, ok := clipSegmentNear(a, b)
	if !ok || ca != a || !near4(cb.Z, -1) {
		t.Errorf("clipSegmentNear = %v %v %v, want end on z=-1", ca, cb, ok)
	}
	if _, _, ok := clipSegmentNear(b, math3d.V4(1, 0, -4, 1)); ok {
		t.Error("segment behind the plane accepted")
	}
}

func BenchmarkClipNear(b *testing.B) {
	front := [3]ClipVertex{clipVertex(0, 0, 0, 1, 0), clipVertex(1, 0, 0, 1, 0), clipVertex(0, 1, 0, 1, 0)}
	partial := [3]ClipVertex{clipVertex(0, 0, 0, 1, 0), clipVertex(1, 0, -3, 1, 1), clipVertex(0, 1, 0.5, 1, 0)}
	var out [2][3]ClipVertex
	b.Run("front", func(b *testing.B) {
		for b.Loop() {
			ClipNear(front, &out)
		}
	})
	b.Run("partial", func(b *testing.B) {
		for b.Loop() {
			ClipNear(partial, &out)
		}
	})
}

func TestClipNearTouching(t *testing.T) {
	tri := [3]ClipVertex{
		clipVertex(0, 0, -1, 1, 0),
		clipVertex(1, 0, -3, 1, 0),
		clipVertex(0, 1, -2, 1, 0),
	}
	var out [2][3]ClipVertex
	if n := ClipNear(tri, &out); n != 0 {
		t.Errorf("triangle touching the plane at a vertex produced %d triangles", n)
	}
}

func ndcArea(tri [3]ClipVertex) float32 {
	var p [3]math3d.Vec2
	for i, v := range tri {
		p[i] = math3d.V2(v.Pos.X/v.Pos.W, v.Pos.Y/v.Pos.W)
	}
	return (p[1].X-p[0].X)*(p[2].Y-p[0].Y) - (p[1].Y-p[0].Y)*(p[2].X-p[0].X)
}

func TestClipGuard(t *testing.T) {
	inside := [3]ClipVertex{
		clipVertex(-1, -1, 0, 1, 0.1),
		clipVertex(100, -1, 0, 1, 0.2),
		clipVertex(0, 200, 0, 2, 0.3),
	}
	var out [maxGuardTris][3]ClipVertex
	if n := clipGuard(inside, &out); n != 1 || out[0] != inside {
		t.Fatalf("triangle inside the band: n=%d %v", n, out[0])
	}

	tests := []struct {
		name string
		tri  [3]ClipVertex
	}{
		{"one far in x", [3]ClipVertex{
			clipVertex(0, 0, 0, 1, 0.1),
			clipVertex(1e5, 0, 0, 1, 0.2),
			clipVertex(0, 1, 0, 1, 0.3),
		}},
		{"corner", [3]ClipVertex{
			clipVertex(-1e4, -1e4, 0, 1, 0.1),
			clipVertex(1e4, -1e4, 0, 1, 0.2),
			clipVertex(0, 1e4, 0, 1, 0.3),
		}},
		{"clockwise small w", [3]ClipVertex{
			clipVertex(0, 0, 0, 0.01, 0.1),
			clipVertex(0, 5, 0, 0.01, 0.2),
			clipVertex(5, 0, 0, 0.01, 0.3),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := clipGuard(tc.tri, &out)
			if n == 0 {
				t.Fatal("no triangles")
			}
			want := ndcArea(tc.tri) > 0
			for _, tri := range out[:n] {
				for _, v := range tri {
					g := guardNDC * v.Pos.W * 1.0001
					if v.Pos.X < -g || v.Pos.X > g || v.Pos.Y < -g || v.Pos.Y > g {
						t.Errorf("vertex %v outside the guard band", v.Pos)
					}
				}
				if a := ndcArea(tri); a != 0 && (a > 0) != want {
					t.Errorf("winding flipped: area %v", a)
				}
			}
		})
	}
}
