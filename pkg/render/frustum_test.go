package render

import (
	"math"
	"testing"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

func near32(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float32
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if !near32(dist, tc.expected, 1e-6) {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if l := plane.Normal.Len(); !near32(l, 1, 1e-6) {
		t.Errorf("normalized normal length = %v, want 1.0", l)
	}
	if !near32(plane.Normal.Y, 0.6, 1e-6) || !near32(plane.Normal.Z, 0.8, 1e-6) {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if !near32(plane.D, 2, 1e-6) {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestAABBBasics(t *testing.T) {
	box := NewAABB(math3d.V3(-1, -2, -3), math3d.V3(1, 2, 3))

	if c := box.Center(); c != math3d.Zero3() {
		t.Errorf("center = %v, want (0, 0, 0)", c)
	}
	if s := box.Size(); s != math3d.V3(2, 4, 6) {
		t.Errorf("size = %v, want (2, 4, 6)", s)
	}
	if box.Empty() {
		t.Error("box with extent reported empty")
	}
	if !(AABB{}).Empty() {
		t.Error("zero box not empty")
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := NewAABB(math3d.V3(0, 0, 0), math3d.V3(10, 10, 10))

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center", math3d.V3(5, 5, 5), true},
		{"corner min", math3d.V3(0, 0, 0), true},
		{"corner max", math3d.V3(10, 10, 10), true},
		{"edge", math3d.V3(5, 0, 5), true},
		{"outside X", math3d.V3(11, 5, 5), false},
		{"outside Y", math3d.V3(5, -1, 5), false},
		{"outside Z", math3d.V3(5, 5, 15), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))

	t.Run("translation", func(t *testing.T) {
		got := box.Transform(math3d.Translate(math3d.V3(10, 20, 30)))
		if got.Min != math3d.V3(9, 19, 29) || got.Max != math3d.V3(11, 21, 31) {
			t.Errorf("translated = %v, want (9, 19, 29)-(11, 21, 31)", got)
		}
	})

	t.Run("scale", func(t *testing.T) {
		got := box.Transform(math3d.ScaleUniform(2))
		if got.Min != math3d.V3(-2, -2, -2) || got.Max != math3d.V3(2, 2, 2) {
			t.Errorf("scaled = %v, want (-2, -2, -2)-(2, 2, 2)", got)
		}
	})

	t.Run("rotation grows box", func(t *testing.T) {
		got := box.Transform(math3d.RotateY(math.Pi / 4))
		want := float32(math.Sqrt2)
		if !near32(got.Max.X, want, 1e-5) || !near32(got.Min.Z, -want, 1e-5) || !near32(got.Max.Y, 1, 1e-6) {
			t.Errorf("rotated = %v, want x/z extent %v", got, want)
		}
	})
}

func TestFrustumFromPerspective(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj)

	for i, plane := range frustum.Planes {
		if l := plane.Normal.Len(); !near32(l, 1, 1e-5) {
			t.Errorf("plane %d normal length = %v, want 1.0", i, l)
		}
	}
	if d := frustum.Planes[FrustumNear].DistanceToPoint(math3d.V3(0, 0, -0.1)); !near32(d, 0, 1e-4) {
		t.Errorf("near plane distance at z=-near = %v, want 0", d)
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj.Mul(math3d.Identity()))

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
		{"outside left", math3d.V3(-50, 0, -10), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 1, 100)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		box      AABB
		expected bool
	}{
		{"fully inside", NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5)), true},
		{"crosses near plane", NewAABB(math3d.V3(-1, -1, -2), math3d.V3(1, 1, 2)), true},
		{"behind camera", NewAABB(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 10)), false},
		{"beyond far plane", NewAABB(math3d.V3(-1, -1, -150), math3d.V3(1, 1, -120)), false},
		{"far to the right", NewAABB(math3d.V3(100, -1, -10), math3d.V3(110, 1, -5)), false},
		{"contains frustum", NewAABB(math3d.V3(-200, -200, -200), math3d.V3(200, 200, 200)), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectAABB(tc.box); got != tc.expected {
				t.Errorf("IntersectAABB(%v) = %v, want %v", tc.box, got, tc.expected)
			}
		})
	}
}

func TestFrustumContainsAABB(t *testing.T) {
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 1, 1, 100))
	inside := NewAABB(math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5))
	straddling := NewAABB(math3d.V3(-1, -1, -2), math3d.V3(1, 1, 2))

	if !frustum.ContainsAABB(inside) {
		t.Error("inside box not contained")
	}
	if frustum.ContainsAABB(straddling) {
		t.Error("box crossing the near plane reported contained")
	}
}

func TestFrustumWithRotatedCamera(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 1, 1, 100)
	view := math3d.LookAt(math3d.Zero3(), math3d.V3(10, 0, 0), math3d.Up())
	frustum := NewFrustumFromMatrix(proj.Mul(view))

	if !frustum.ContainsPoint(math3d.V3(10, 0, 0)) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(math3d.V3(-10, 0, 0)) {
		t.Error("point behind rotated camera should not be visible")
	}
}

func TestCameraOrbitFrustum(t *testing.T) {
	cam := NewCamera(1)
	cam.Orbit(math3d.Zero3(), 5, 0.7, 0.3)

	if d := cam.Position.Len(); !near32(d, 5, 1e-4) {
		t.Errorf("orbit distance = %v, want 5", d)
	}
	if !cam.Frustum().ContainsPoint(math3d.Zero3()) {
		t.Error("orbit target outside the camera frustum")
	}
	fwd := cam.Forward()
	toTarget := cam.Position.Negate().Normalize()
	if !near32(fwd.Dot(toTarget), 1, 1e-4) {
		t.Errorf("forward %v does not face target %v", fwd, toTarget)
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000))

	b.Run("visible", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, -15), math3d.V3(1, 1, -5))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})
	b.Run("culled", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 15))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})
}

func BenchmarkFrustumExtraction(b *testing.B) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000)
	view := math3d.LookAt(math3d.V3(0, 10, 20), math3d.Zero3(), math3d.Up())
	viewProj := proj.Mul(view)

	for b.Loop() {
		_ = NewFrustumFromMatrix(viewProj)
	}
}

func BenchmarkAABBTransform(b *testing.B) {
	box := NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	trans := math3d.Translate(math3d.V3(10, 0, 0)).Mul(math3d.RotateY(0.5))

	for b.Loop() {
		_ = box.Transform(trans)
	}
}
