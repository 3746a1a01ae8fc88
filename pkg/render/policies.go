package render

import (
	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// rasterVertex is a screen-space vertex: pixel position, depth key q and
// the attributes the active shading reads.
type rasterVertex struct {
	x, y float32
	q    float32
	c    color.RGBf
	n    math3d.Vec3
	uv   math3d.Vec2
}

// The fill routine is specialised by four policy type parameters. Each
// policy is a zero-size type; selecting one at instantiation removes the
// other branches from the pixel loop.

// projection turns screen-space barycentrics into attribute weights and
// the depth key.
type projection interface {
	weights(b0, b1, b2 float32, v *[3]rasterVertex) (w0, w1, w2, q float32)
}

type perspective struct{}

func (perspective) weights(b0, b1, b2 float32, v *[3]rasterVertex) (w0, w1, w2, q float32) {
	w0, w1, w2 = b0*v[0].q, b1*v[1].q, b2*v[2].q
	q = w0 + w1 + w2
	inv := 1 / q
	return w0 * inv, w1 * inv, w2 * inv, q
}

type orthographic struct{}

func (orthographic) weights(b0, b1, b2 float32, v *[3]rasterVertex) (w0, w1, w2, q float32) {
	return b0, b1, b2, b0*v[0].q + b1*v[1].q + b2*v[2].q
}

// depthTest decides whether a pixel is kept, updating the depth surface.
type depthTest[D Depth] interface {
	test(zbuf []D, i int, q float32, m *depthMap) bool
}

type noDepth[D Depth] struct{}

func (noDepth[D]) test([]D, int, float32, *depthMap) bool { return true }

type zBuffer[D Depth] struct{}

func (zBuffer[D]) test(zbuf []D, i int, q float32, m *depthMap) bool {
	z := D(m.value(q))
	if zbuf[i] < z {
		zbuf[i] = z
		return true
	}
	return false
}

// shading produces the lit colour of a pixel.
type shading interface {
	shade(st *shadeState, w0, w1, w2 float32, v *[3]rasterVertex) color.RGBf
}

// shadeState is the per-triangle lighting input.
type shadeState struct {
	flat  color.RGBf
	tint  color.RGBf
	light *lighting
}

type flatShading struct{}

func (flatShading) shade(st *shadeState, _, _, _ float32, _ *[3]rasterVertex) color.RGBf {
	return st.flat
}

type gouraudShading struct{}

func (gouraudShading) shade(_ *shadeState, w0, w1, w2 float32, v *[3]rasterVertex) color.RGBf {
	return color.RGBf{
		R: w0*v[0].c.R + w1*v[1].c.R + w2*v[2].c.R,
		G: w0*v[0].c.G + w1*v[1].c.G + w2*v[2].c.G,
		B: w0*v[0].c.B + w1*v[1].c.B + w2*v[2].c.B,
	}
}

type phongShading struct{}

func (phongShading) shade(st *shadeState, w0, w1, w2 float32, v *[3]rasterVertex) color.RGBf {
	n := math3d.Vec3{
		X: w0*v[0].n.X + w1*v[1].n.X + w2*v[2].n.X,
		Y: w0*v[0].n.Y + w1*v[1].n.Y + w2*v[2].n.Y,
		Z: w0*v[0].n.Z + w1*v[1].n.Z + w2*v[2].n.Z,
	}
	return st.light.shade(n.Normalize(), st.tint)
}

// texturing combines the lit colour with the texture into the final pixel.
type texturing[C color.Pixel[C]] interface {
	apply(tex *surface.Image[C], w0, w1, w2 float32, v *[3]rasterVertex, lit color.RGBf) C
}

type noTexture[C color.Pixel[C]] struct{}

func (noTexture[C]) apply(_ *surface.Image[C], _, _, _ float32, _ *[3]rasterVertex, lit color.RGBf) C {
	return color.From[C](lit)
}

type textured[C color.Pixel[C], S sampler[C]] struct{}

func (textured[C, S]) apply(tex *surface.Image[C], w0, w1, w2 float32, v *[3]rasterVertex, lit color.RGBf) C {
	var s S
	u := w0*v[0].uv.X + w1*v[1].uv.X + w2*v[2].uv.X
	t := w0*v[0].uv.Y + w1*v[1].uv.Y + w2*v[2].uv.Y
	return color.From[C](s.sample(tex, u, t).Mul(lit))
}
