package render

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/surface"
)

type testRenderer = Renderer[color.RGB24, float32]

func newTestRenderer(t testing.TB, w, h int, loaded Shader) (*testRenderer, surface.Image[color.RGB24]) {
	t.Helper()
	r, err := New[color.RGB24, float32](Viewport{Width: w, Height: h}, loaded)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img := surface.New[color.RGB24](w, h)
	if err := r.SetSurfaces(img, surface.New[float32](w, h)); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	return r, img
}

// covered returns the bounding rectangle of non-black pixels.
func covered(img surface.Image[color.RGB24]) (image.Rectangle, int) {
	var rect image.Rectangle
	n := 0
	var black color.RGB24
	for y := range img.Height() {
		for x, p := range img.Row(y) {
			if p == black {
				continue
			}
			n++
			rect = rect.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return rect, n
}

var unitQuad = [4]math3d.Vec3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}

func TestQuadExtents(t *testing.T) {
	tests := []struct {
		name     string
		fov      float32
		dist     float32
		size     float32
		w, h     int
		wantRect image.Rectangle
	}{
		// f = 1/tan(fov/2); ndc = size/2 * f / dist; pixel = (ndc+1)/2 * W.
		{"fov90 d4", 90, 4, 2, 64, 64, image.Rect(24, 24, 40, 40)},
		{"fov90 d2", 90, 2, 2, 64, 64, image.Rect(16, 16, 48, 48)},
		{"fov60 d5 wide", 60, 5, 3, 96, 48, image.Rect(36, 12, 60, 36)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, img := newTestRenderer(t, tc.w, tc.h, ShaderAll)
			vp := r.Viewport()
			if err := r.SetPerspective(Perspective{FovY: tc.fov, Aspect: vp.Aspect(), Near: 0.5, Far: 50}); err != nil {
				t.Fatal(err)
			}
			r.SetModelPosScaleRot(math3d.V3(0, 0, -tc.dist), math3d.V3(tc.size/2, tc.size/2, 1), 0, math3d.Vec3{})
			if err := r.DrawQuad(unitQuad, nil, nil, nil); err != nil {
				t.Fatal(err)
			}
			got, _ := covered(img)
			for _, d := range []int{got.Min.X - tc.wantRect.Min.X, got.Min.Y - tc.wantRect.Min.Y, got.Max.X - tc.wantRect.Max.X, got.Max.Y - tc.wantRect.Max.Y} {
				if d < -1 || d > 1 {
					t.Errorf("quad covers %v, want %v within 1px", got, tc.wantRect)
					break
				}
			}
			if s := r.Stats(); s.Rasterized != 2 || s.Triangles != 2 {
				t.Errorf("stats = %+v, want 2 rasterized triangles", s)
			}
		})
	}
}

func TestNearPlaneVertex(t *testing.T) {
	r, _ := newTestRenderer(t, 32, 32, ShaderAll)
	if err := r.SetPerspective(Perspective{FovY: 60, Aspect: 1, Near: 0.5, Far: 10}); err != nil {
		t.Fatal(err)
	}
	clip := r.ProjectionMatrix().MulVec4(math3d.V4(0.1, 0.2, -0.5, 1))
	if !near32(clip.W, 0.5, 1e-6) {
		t.Errorf("w at the near plane = %v, want 0.5", clip.W)
	}
	if got := ClassifyNear(clip); got != NearBorderline {
		t.Errorf("ClassifyNear = %v, want borderline", got)
	}

	// A triangle with one vertex on the near plane is drawn without
	// clipping artefacts.
	err := r.DrawTriangle([3]math3d.Vec3{{X: -0.2, Y: -0.2, Z: -0.5}, {X: 1, Y: -1, Z: -3}, {X: 0, Y: 1, Z: -3}}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := r.Stats(); s.Rasterized == 0 || s.Behind != 0 {
		t.Errorf("stats = %+v, want the triangle rasterized", s)
	}
}

// projectedPolygon clips a view-space triangle to z <= -near and projects
// it to pixels in float64, as the reference for exact coverage.
func projectedPolygon(tri [3]math3d.Vec3, fovY, near float64, w, h int) []vec {
	f := 1 / math.Tan(fovY*math.Pi/360)
	aspect := float64(w) / float64(h)
	dist := func(p math3d.Vec3) float64 { return -float64(p.Z) - near }
	var poly []vec
	for i := range tri {
		a, b := tri[i], tri[(i+1)%3]
		da, db := dist(a), dist(b)
		emit := func(x, y, z float64) {
			nx, ny := f/aspect*x/-z, f*y/-z
			poly = append(poly, vec{(nx + 1) / 2 * float64(w), (1 - ny) / 2 * float64(h)})
		}
		if da >= 0 {
			emit(float64(a.X), float64(a.Y), float64(a.Z))
		}
		if (da > 0 && db < 0) || (da < 0 && db > 0) {
			t := da / (da - db)
			lerp := func(p, q float32) float64 { return float64(p) + t*(float64(q)-float64(p)) }
			emit(lerp(a.X, b.X), lerp(a.Y, b.Y), -near)
		}
	}
	return poly
}

func TestCoverageFarOutsideScreen(t *testing.T) {
	const (
		w, h = 320, 240
		fov  = 90
		near = 0.01
		// Pixel centres closer than this to an edge may go either way.
		edgeTolerance = 0.05
	)
	// The clipped vertex lands millions of pixels to the right.
	tri := [3]math3d.Vec3{{X: 0, Y: -1, Z: -10}, {X: 1, Y: -1, Z: -10}, {X: 80, Y: -1, Z: 0.5}}

	r, img := newTestRenderer(t, w, h, ShaderAll)
	if err := r.SetPerspective(Perspective{FovY: fov, Aspect: float32(w) / h, Near: near, Far: 100}); err != nil {
		t.Fatal(err)
	}
	r.SetCulling(CullNone)
	if err := r.DrawTriangle(tri, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	poly := projectedPolygon(tri, fov, near, w, h)
	var area float64
	for i := range poly {
		area += side(vec{}, poly[i], poly[(i+1)%len(poly)])
	}
	var missing, extra, total int
	var black color.RGB24
	for y := range h {
		for x := range w {
			p := vec{float64(x) + 0.5, float64(y) + 0.5}
			minDist := math.Inf(1)
			for i := range poly {
				a, b := poly[i], poly[(i+1)%len(poly)]
				d := side(a, b, p) / math.Hypot(b.x-a.x, b.y-a.y)
				if area < 0 {
					d = -d
				}
				minDist = min(minDist, d)
			}
			if math.Abs(minDist) < edgeTolerance {
				continue
			}
			in, drawn := minDist > 0, img.At(x, y) != black
			if in {
				total++
			}
			switch {
			case in && !drawn:
				missing++
			case drawn && !in:
				extra++
			}
		}
	}
	if total == 0 {
		t.Fatal("reference polygon covers no pixels")
	}
	if missing != 0 || extra != 0 {
		t.Errorf("pixels missing=%d extra=%d of %d", missing, extra, total)
	}
}

func TestClippedPlane(t *testing.T) {
	r, img := newTestRenderer(t, 48, 32, ShaderAll)
	r.SetLookAt(math3d.V3(0, 1, 0), math3d.V3(0, 1, -5), math3d.Up())
	plane := models.NewPlane[color.RGB24](40, 40, 4)
	if err := r.DrawMesh(plane, true); err != nil {
		t.Fatal(err)
	}
	s := r.Stats()
	if s.Clipped == 0 || s.Behind == 0 {
		t.Errorf("stats = %+v, want clipped and behind triangles", s)
	}
	rect, _ := covered(img)
	// The floor ends 20 units ahead, just below the horizon at row 16.
	if rect.Max.Y != 32 || rect.Min.Y < 16 || rect.Min.Y > 19 {
		t.Errorf("floor covers %v, want the lower half", rect)
	}
}

func TestConfigurationErrors(t *testing.T) {
	if _, err := New[color.RGB24, float32](Viewport{Width: 0, Height: 10}, ShaderAll); !errors.Is(err, ErrInvalidViewport) {
		t.Errorf("zero viewport: err = %v", err)
	}
	if _, err := New[color.RGB24, float32](Viewport{Width: MaxViewportSize + 1, Height: 10}, ShaderAll); !errors.Is(err, ErrInvalidViewport) {
		t.Errorf("oversized viewport: err = %v", err)
	}
	if _, err := New[color.RGB24, float32](Viewport{Width: 8, Height: 8}, ShaderPerspective|ShaderFlat|ShaderNoTexture); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("loaded set without depth mode: err = %v", err)
	}
	if _, err := New[color.RGB24, float32](Viewport{Width: 8, Height: 8}, ShaderPerspective|ShaderNoZBuffer|ShaderFlat|ShaderTextureNearest); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("texture filter without wrap mode: err = %v", err)
	}

	r, _ := newTestRenderer(t, 16, 16, ShaderAll)
	projections := []struct {
		name string
		p    Perspective
	}{
		{"zero fov", Perspective{FovY: 0, Aspect: 1, Near: 1, Far: 10}},
		{"fov 180", Perspective{FovY: 180, Aspect: 1, Near: 1, Far: 10}},
		{"zero aspect", Perspective{FovY: 60, Aspect: 0, Near: 1, Far: 10}},
		{"zero near", Perspective{FovY: 60, Aspect: 1, Near: 0, Far: 10}},
		{"near beyond far", Perspective{FovY: 60, Aspect: 1, Near: 10, Far: 10}},
	}
	for _, tc := range projections {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.SetPerspective(tc.p); !errors.Is(err, ErrDegenerateProjection) {
				t.Errorf("SetPerspective(%+v) err = %v", tc.p, err)
			}
		})
	}
	if err := r.SetOrtho(Ortho{Left: 1, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: 1}); !errors.Is(err, ErrDegenerateProjection) {
		t.Errorf("empty ortho: err = %v", err)
	}
	if err := r.SetFrustum(-1, 1, -1, 1, -1, 10); !errors.Is(err, ErrDegenerateProjection) {
		t.Errorf("negative near frustum: err = %v", err)
	}
	if err := r.SetProjectionMatrix(math3d.Identity(), false); !errors.Is(err, ErrDegenerateProjection) {
		t.Errorf("identity as perspective: err = %v", err)
	}
	if err := r.SetProjectionMatrix(math3d.Perspective(1, 1, 2, 20), false); err != nil {
		t.Errorf("perspective matrix rejected: %v", err)
	} else if !near32(r.proj.near, 2, 1e-4) || !near32(r.proj.far, 20, 1e-2) {
		t.Errorf("recovered near/far = %v/%v, want 2/20", r.proj.near, r.proj.far)
	}
	if err := r.SetProjectionMatrix(math3d.Orthographic(-1, 1, -1, 1, 0.5, 8), true); err != nil {
		t.Errorf("ortho matrix rejected: %v", err)
	} else if !near32(r.proj.near, 0.5, 1e-5) || !near32(r.proj.far, 8, 1e-4) {
		t.Errorf("recovered ortho near/far = %v/%v, want 0.5/8", r.proj.near, r.proj.far)
	}

	if err := r.SetDepth(surface.New[float32](16, 15)); !errors.Is(err, ErrSurfaceMismatch) {
		t.Errorf("depth of different height: err = %v", err)
	}
	parent := surface.New[color.RGB24](32, 16)
	sub, _ := parent.Sub(image.Rect(0, 0, 16, 16))
	if err := r.SetImage(sub); !errors.Is(err, ErrSurfaceMismatch) {
		t.Errorf("image with a different stride: err = %v", err)
	}
	if err := r.SetShaders(ShaderFlat | ShaderGouraud); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("two shading models: err = %v", err)
	}
	if err := r.SetShaders(ShaderFlat | ShaderTextureNearest); !errors.Is(err, ErrInvalidShader) {
		t.Errorf("filter without wrap: err = %v", err)
	}

	empty, err := New[color.RGB24, float32](Viewport{Width: 8, Height: 8}, ShaderAll)
	if err != nil {
		t.Fatal(err)
	}
	if err := empty.DrawQuad(unitQuad, nil, nil, nil); !errors.Is(err, ErrNoSurface) {
		t.Errorf("draw without surface: err = %v", err)
	}
}

func TestShaderNotLoaded(t *testing.T) {
	loaded := ShaderPerspective | ShaderNoZBuffer | ShaderFlat | ShaderGouraud | ShaderNoTexture
	r, err := New[color.RGB24, float32](Viewport{Width: 16, Height: 16}, loaded)
	if err != nil {
		t.Fatal(err)
	}
	img := surface.New[color.RGB24](16, 16)
	if err := r.SetImage(img); err != nil {
		t.Fatal(err)
	}
	r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
	normals := &[4]math3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}

	if err := r.DrawQuad(unitQuad, normals, nil, nil); err != nil {
		t.Fatalf("loaded combination: %v", err)
	}

	if err := r.SetDepth(surface.New[float32](16, 16)); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawQuad(unitQuad, normals, nil, nil); !errors.Is(err, ErrShaderNotLoaded) {
		t.Errorf("z-buffer not loaded: err = %v", err)
	}
	dot := color.RGB24{G: 200}
	if err := r.DrawPixel(math3d.V3(0, 0, 0), dot); !errors.Is(err, ErrShaderNotLoaded) {
		t.Errorf("pixel with z-buffer not loaded: err = %v", err)
	}
	if err := r.DrawDot(math3d.V3(0, 0, 0), 2, dot); !errors.Is(err, ErrShaderNotLoaded) {
		t.Errorf("dot with z-buffer not loaded: err = %v", err)
	}
	_ = r.SetDepth(surface.Image[float32]{})
	if err := r.DrawDot(math3d.V3(0, 0, 0), 2, dot); err != nil {
		t.Errorf("dot without depth surface: %v", err)
	}
	if img.At(8, 8) != dot {
		t.Errorf("dot not drawn: %v", img.At(8, 8))
	}

	if err := r.SetShaders(ShaderPhong); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawQuad(unitQuad, normals, nil, nil); !errors.Is(err, ErrShaderNotLoaded) {
		t.Errorf("phong not loaded: err = %v", err)
	}
	// Without normals phong degrades to the loaded flat routine.
	if err := r.DrawQuad(unitQuad, nil, nil, nil); err != nil {
		t.Errorf("phong without normals: %v", err)
	}

	if err := r.SetOrtho(Ortho{Left: -2, Right: 2, Bottom: -2, Top: 2, Near: 0.1, Far: 10}); err != nil {
		t.Fatal(err)
	}
	_ = r.SetShaders(ShaderFlat)
	if err := r.DrawQuad(unitQuad, nil, nil, nil); !errors.Is(err, ErrShaderNotLoaded) {
		t.Errorf("ortho not loaded: err = %v", err)
	}
}

func TestTextureSizeCheck(t *testing.T) {
	if !texturesCompiled {
		t.Skip("textures not compiled in")
	}
	r, _ := newTestRenderer(t, 16, 16, ShaderAll)
	r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
	tex := surface.New[color.RGB24](6, 8)
	uvs := &[4]math3d.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	_ = r.SetShaders(ShaderFlat | ShaderTextureNearest | ShaderTextureWrapPow2)
	if err := r.DrawQuad(unitQuad, nil, uvs, &tex); !errors.Is(err, ErrTextureSize) {
		t.Errorf("wrap on 6x8 texture: err = %v", err)
	}
	_ = r.SetShaders(ShaderFlat | ShaderTextureNearest | ShaderTextureClamp)
	if err := r.DrawQuad(unitQuad, nil, uvs, &tex); err != nil {
		t.Errorf("clamp on 6x8 texture: %v", err)
	}
}

func TestTexturedQuad(t *testing.T) {
	if !texturesCompiled {
		t.Skip("textures not compiled in")
	}
	r, img := newTestRenderer(t, 32, 32, ShaderAll)
	if err := r.SetOrtho(Ortho{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0.1, Far: 10}); err != nil {
		t.Fatal(err)
	}
	r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -1)))
	r.SetMaterial(models.Material{Color: color.White, Ambient: 1})
	r.SetLight(Light{Direction: math3d.V3(0, 0, -1), Ambient: color.White})

	tl, tr := color.RGB24{R: 200}, color.RGB24{G: 200}
	bl, br := color.RGB24{B: 200}, color.RGB24{R: 100, G: 100}
	tex := surface.New[color.RGB24](2, 2)
	tex.Set(0, 0, tl)
	tex.Set(1, 0, tr)
	tex.Set(0, 1, bl)
	tex.Set(1, 1, br)
	uvs := &[4]math3d.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	for _, sel := range []Shader{
		ShaderFlat | ShaderTextureNearest | ShaderTextureWrapPow2,
		ShaderGouraud | ShaderTextureNearest | ShaderTextureClamp,
	} {
		t.Run(sel.String(), func(t *testing.T) {
			r.Clear(color.RGB24{})
			r.ClearDepth()
			if err := r.SetShaders(sel); err != nil {
				t.Fatal(err)
			}
			if err := r.DrawQuad(unitQuad, nil, uvs, &tex); err != nil {
				t.Fatal(err)
			}
			checks := []struct {
				x, y int
				want color.RGB24
			}{{4, 4, tl}, {27, 4, tr}, {4, 27, bl}, {27, 27, br}}
			for _, c := range checks {
				if got := img.At(c.x, c.y); got != c.want {
					t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
				}
			}
		})
	}
}

func TestCulling(t *testing.T) {
	cw := [4]math3d.Vec3{unitQuad[0], unitQuad[3], unitQuad[2], unitQuad[1]}
	tests := []struct {
		name  string
		mode  CullMode
		quad  [4]math3d.Vec3
		drawn bool
	}{
		{"ccw kept", CullClockwise, unitQuad, true},
		{"cw culled", CullClockwise, cw, false},
		{"ccw culled", CullCounterClockwise, unitQuad, false},
		{"cw kept", CullCounterClockwise, cw, true},
		{"none ccw", CullNone, unitQuad, true},
		{"none cw", CullNone, cw, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, img := newTestRenderer(t, 16, 16, ShaderAll)
			r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
			r.SetCulling(tc.mode)
			if err := r.DrawQuad(tc.quad, nil, nil, nil); err != nil {
				t.Fatal(err)
			}
			_, n := covered(img)
			if (n > 0) != tc.drawn {
				t.Errorf("drawn = %v (%d px), want %v", n > 0, n, tc.drawn)
			}
			if !tc.drawn && r.Stats().Culled != 2 {
				t.Errorf("culled = %d, want 2", r.Stats().Culled)
			}
		})
	}
}

func TestCullingMirroredOrtho(t *testing.T) {
	cw := [4]math3d.Vec3{unitQuad[0], unitQuad[3], unitQuad[2], unitQuad[1]}
	// Bottom > Top flips y, so world-ccw quads are clockwise in NDC.
	flipped := Ortho{Left: -2, Right: 2, Bottom: 2, Top: -2, Near: 0.1, Far: 10}
	tests := []struct {
		mode     CullMode
		ccwDrawn bool
	}{
		{CullClockwise, false},
		{CullCounterClockwise, true},
	}
	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			drawn := map[string]bool{}
			for name, quad := range map[string][4]math3d.Vec3{"ccw": unitQuad, "cw": cw} {
				r, img := newTestRenderer(t, 16, 16, ShaderAll)
				if err := r.SetOrtho(flipped); err != nil {
					t.Fatal(err)
				}
				r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
				r.SetCulling(tc.mode)
				if err := r.DrawQuad(quad, nil, nil, nil); err != nil {
					t.Fatal(err)
				}
				_, n := covered(img)
				drawn[name] = n > 0
			}
			if drawn["ccw"] == drawn["cw"] {
				t.Fatalf("drawn = %v, want exactly one winding", drawn)
			}
			if drawn["ccw"] != tc.ccwDrawn {
				t.Errorf("world-ccw quad drawn = %v, want %v", drawn["ccw"], tc.ccwDrawn)
			}
		})
	}
}

func TestBackFaceLitWhenCullingDisabled(t *testing.T) {
	front, imgF := newTestRenderer(t, 16, 16, ShaderAll)
	back, imgB := newTestRenderer(t, 16, 16, ShaderAll)
	for _, r := range []*testRenderer{front, back} {
		r.SetCulling(CullNone)
		r.SetLight(Light{Direction: math3d.V3(0, 0, -1), Diffuse: color.White})
	}
	front.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
	back.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)).Rotated(math3d.Up(), 3.14159265))

	normals := &[4]math3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}
	_ = front.SetShaders(ShaderGouraud)
	_ = back.SetShaders(ShaderGouraud)
	if err := front.DrawQuad(unitQuad, normals, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := back.DrawQuad(unitQuad, normals, nil, nil); err != nil {
		t.Fatal(err)
	}
	if f, b := imgF.At(8, 8), imgB.At(8, 8); f != b || f == (color.RGB24{}) {
		t.Errorf("front %v and back %v should be lit alike", f, b)
	}
}

func TestDepthResolvesOverlap(t *testing.T) {
	nearC := color.RGBf{R: 1}
	farC := color.RGBf{B: 1}

	draw := func(t *testing.T, nearFirst bool) surface.Image[color.RGB565] {
		r, err := New[color.RGB565, uint16](Viewport{Width: 24, Height: 24}, ShaderAll)
		if err != nil {
			t.Fatal(err)
		}
		img := surface.New[color.RGB565](24, 24)
		if err := r.SetSurfaces(img, surface.New[uint16](24, 24)); err != nil {
			t.Fatal(err)
		}
		r.SetLight(Light{Direction: math3d.V3(0, 0, -1), Ambient: color.White})
		r.SetMaterial(models.Material{Ambient: 1})
		quads := []struct {
			z float32
			c color.RGBf
			x float32
		}{{-3, nearC, -0.4}, {-4, farC, 0.4}}
		if !nearFirst {
			quads[0], quads[1] = quads[1], quads[0]
		}
		for _, q := range quads {
			r.SetModelMatrix(math3d.Translate(math3d.V3(q.x, 0, q.z)))
			var cs [4]color.RGBf
			for i := range cs {
				cs[i] = q.c
			}
			if err := r.DrawQuadColors(unitQuad, cs, nil); err != nil {
				t.Fatal(err)
			}
		}
		return img
	}

	a, b := draw(t, true), draw(t, false)
	red := color.From[color.RGB565](nearC)
	for y := range 24 {
		for x := range 24 {
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("pixel (%d,%d) depends on draw order", x, y)
			}
		}
	}
	if got := a.At(12, 12); got != red {
		t.Errorf("overlap pixel = %v, want the nearer quad %v", got, red)
	}
}

func TestTiledMatchesFull(t *testing.T) {
	const w, h = 40, 30
	scene := func(r *testRenderer) {
		r.SetLookAt(math3d.V3(2, 1.5, 3), math3d.Zero3(), math3d.Up())
		r.SetModelPosScaleRot(math3d.Zero3(), math3d.V3(1, 1, 1), 20, math3d.V3(0, 1, 0))
		_ = r.SetShaders(ShaderGouraud)
		if err := r.DrawMesh(models.NewSphere[color.RGB24](1, 12, 8), false); err != nil {
			t.Fatal(err)
		}
	}

	full, img := newTestRenderer(t, w, h, ShaderAll)
	_ = full.SetPerspective(Perspective{FovY: 50, Aspect: float32(w) / h, Near: 0.1, Far: 20})
	scene(full)

	for ty := 0; ty < h; ty += 16 {
		for tx := 0; tx < w; tx += 16 {
			tw, th := min(16, w-tx), min(16, h-ty)
			r, err := New[color.RGB24, float32](Viewport{Width: w, Height: h, OffsetX: tx, OffsetY: ty}, ShaderAll)
			if err != nil {
				t.Fatal(err)
			}
			_ = r.SetPerspective(Perspective{FovY: 50, Aspect: float32(w) / h, Near: 0.1, Far: 20})
			tile := surface.New[color.RGB24](tw, th)
			if err := r.SetSurfaces(tile, surface.New[float32](tw, th)); err != nil {
				t.Fatal(err)
			}
			scene(r)
			for y := range th {
				for x := range tw {
					if got, want := tile.At(x, y), img.At(tx+x, ty+y); got != want {
						t.Errorf("tile (%d,%d) pixel (%d,%d) = %v, want %v", tx, ty, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestSegmentRejection(t *testing.T) {
	r, img := newTestRenderer(t, 16, 16, ShaderAll)
	cube := models.NewCube[color.RGB24](1)
	model := &models.Model[color.RGB24]{Segments: []models.Mesh[color.RGB24]{*cube, *cube}}

	r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, 5)))
	if err := r.DrawModel(model, true); err != nil {
		t.Fatal(err)
	}
	if s := r.Stats(); s.SegmentsRejected != 2 || s.Triangles != 0 {
		t.Errorf("stats = %+v, want both segments rejected before face work", s)
	}

	r.ResetStats()
	r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -4)))
	if err := r.DrawModel(model, true); err != nil {
		t.Fatal(err)
	}
	s := r.Stats()
	if s.Segments != 2 || s.Triangles != 24 || s.Culled == 0 {
		t.Errorf("stats = %+v, want 2 segments of 12 triangles with back faces culled", s)
	}
	if _, n := covered(img); n == 0 {
		t.Error("visible cube drew nothing")
	}
}

func TestShadingModels(t *testing.T) {
	sphere := models.NewSphere[color.RGB24](1, 16, 12)
	var images []surface.Image[color.RGB24]
	for _, s := range []Shader{ShaderFlat, ShaderGouraud, ShaderPhong} {
		r, img := newTestRenderer(t, 32, 32, ShaderAll)
		r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -4)))
		if err := r.SetShaders(s); err != nil {
			t.Fatal(err)
		}
		if err := r.DrawMesh(sphere, true); err != nil {
			t.Fatalf("%v: %v", s, err)
		}
		images = append(images, img)
	}
	rect0, n0 := covered(images[0])
	for i, img := range images[1:] {
		rect, n := covered(img)
		if rect != rect0 || n != n0 {
			t.Errorf("shading %d covers %v (%d px), flat covers %v (%d px)", i+1, rect, n, rect0, n0)
		}
	}
	same := true
	for y := range 32 {
		for x := range 32 {
			same = same && images[0].At(x, y) == images[1].At(x, y)
		}
	}
	if same {
		t.Error("gouraud identical to flat shading")
	}
}

func TestWorldToNDC(t *testing.T) {
	r, _ := newTestRenderer(t, 20, 10, ShaderAll)
	if err := r.SetPerspective(Perspective{FovY: 90, Aspect: 2, Near: 1, Far: 10}); err != nil {
		t.Fatal(err)
	}
	p, ok := r.WorldToNDC(math3d.V3(2, 1, -2))
	if !ok || !near32(p.X, 0.5, 1e-5) || !near32(p.Y, 0.5, 1e-5) || !near32(p.W, 2, 1e-5) {
		t.Errorf("WorldToNDC = %v %v, want (0.5, 0.5) w=2", p, ok)
	}
	sx, sy := r.NDCToScreen(p.X, p.Y)
	if !near32(sx, 15, 1e-4) || !near32(sy, 2.5, 1e-4) {
		t.Errorf("NDCToScreen = %v,%v, want 15,2.5", sx, sy)
	}
	if _, ok := r.WorldToNDC(math3d.V3(0, 0, 1)); ok {
		t.Error("point behind camera reported visible")
	}
	r.SetModelMatrix(math3d.Translate(math3d.V3(2, 1, -2)))
	if q, ok := r.ModelToNDC(math3d.Zero3()); !ok || !near32(q.X, p.X, 1e-5) || !near32(q.Y, p.Y, 1e-5) || !near32(q.W, p.W, 1e-5) {
		t.Errorf("ModelToNDC = %v, want %v", q, p)
	}
}

func BenchmarkDrawSphere(b *testing.B) {
	sphere := models.NewSphere[color.RGB24](1, 24, 16)
	for _, s := range []Shader{ShaderFlat, ShaderGouraud, ShaderPhong} {
		b.Run(s.String(), func(b *testing.B) {
			r, _ := newTestRenderer(b, 160, 120, ShaderAll)
			r.SetModelMatrix(math3d.Translate(math3d.V3(0, 0, -3)))
			_ = r.SetShaders(s)
			for b.Loop() {
				r.ClearDepth()
				_ = r.DrawMesh(sphere, true)
			}
		})
	}
}
