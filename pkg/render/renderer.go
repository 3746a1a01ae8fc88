// Package render is a software 3D pipeline: model/view/projection
// transform, near-plane clipping, a fixed-point edge rasterizer with depth
// test, perspective-correct interpolation, Phong lighting and texture
// sampling. The fill routine is specialised per shader combination when a
// Renderer is created; only combinations the integrator loads are
// reachable.
//
// A Renderer is not safe for concurrent use. Several renderers may share
// meshes and textures and draw in parallel into disjoint surfaces.
package render

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// CullMode selects which triangles are discarded by winding, measured in
// normalised device coordinates with y up.
type CullMode int8

const (
	CullNone CullMode = iota
	CullClockwise
	CullCounterClockwise
)

func (c CullMode) String() string {
	switch c {
	case CullNone:
		return "none"
	case CullClockwise:
		return "cw"
	case CullCounterClockwise:
		return "ccw"
	}
	return fmt.Sprintf("CullMode(%d)", int8(c))
}

// Renderer holds the state for drawing into one colour surface and an
// optional depth surface. C is the pixel format of the colour surface and
// of textures, D the depth element type.
type Renderer[C color.Pixel[C], D Depth] struct {
	loaded Shader
	table  *dispatchTable[C, D]
	active selection

	vp    Viewport
	img   surface.Image[C]
	zbuf  surface.Image[D]
	depth bool

	proj  projectionState
	view  math3d.Mat4
	model math3d.Mat4

	// Derived from proj, view and model; valid when !dirty.
	dirty     bool
	modelView math3d.Mat4
	normalMat math3d.Mat4
	frustum   Frustum

	cull     CullMode
	material models.Material
	light    Light
	lit      lighting

	rs    rasterState[C, D]
	stats Stats
}

// New creates a renderer for viewport vp that may draw with any
// combination of the features in loaded. loaded must contain at least one
// projection, one depth mode and one shading model, and either
// ShaderNoTexture or a texture filter together with a wrap mode.
//
// Initial state: identity view and model matrices, the projection
// Perspective{45, vp aspect, 0.1, 100} (Ortho{-aspect, aspect, -1, 1, 0.1,
// 100} when only ShaderOrtho is loaded), CullClockwise, DefaultMaterial,
// DefaultLight, and the first loaded shading model in the order flat,
// gouraud, phong without texturing when ShaderNoTexture is loaded. No
// surface is bound.
func New[C color.Pixel[C], D Depth](vp Viewport, loaded Shader) (*Renderer[C, D], error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	hasTex := loaded&(ShaderTextureNearest|ShaderTextureBilinear) != 0 &&
		loaded&(ShaderTextureWrapPow2|ShaderTextureClamp) != 0
	switch {
	case loaded&ShaderProjection == 0,
		loaded&ShaderDepth == 0,
		loaded&ShaderShading == 0,
		loaded&ShaderNoTexture == 0 && !hasTex:
		return nil, fmt.Errorf("%w: loaded set %v lacks a feature axis", ErrInvalidShader, loaded)
	}

	r := &Renderer[C, D]{
		loaded:   loaded,
		table:    newDispatchTable[C, D](loaded),
		vp:       vp,
		view:     math3d.Identity(),
		model:    math3d.Identity(),
		dirty:    true,
		cull:     CullClockwise,
		material: models.DefaultMaterial(),
		light:    DefaultLight(),
	}

	var err error
	if loaded&ShaderPerspective != 0 {
		err = r.SetPerspective(Perspective{FovY: 45, Aspect: vp.Aspect(), Near: 0.1, Far: 100})
	} else {
		a := vp.Aspect()
		err = r.SetOrtho(Ortho{Left: -a, Right: a, Bottom: -1, Top: 1, Near: 0.1, Far: 100})
	}
	if err != nil {
		return nil, err
	}

	for _, s := range []Shader{ShaderFlat, ShaderGouraud, ShaderPhong} {
		if loaded&s != 0 {
			r.active, _ = parseSelection(s)
			break
		}
	}
	if loaded&ShaderNoTexture == 0 {
		for tex := uint8(texNearestWrap); tex < texModes; tex++ {
			if (combo{tex: tex}).shaders()&ShaderTexture&^loaded == 0 {
				r.active.tex = tex
				break
			}
		}
	}
	return r, nil
}

// Loaded returns the feature set the renderer was created with.
func (r *Renderer[C, D]) Loaded() Shader { return r.loaded }

// Shaders returns the active shading and texture selection.
func (r *Renderer[C, D]) Shaders() Shader { return r.active.shaders() }

// SetShaders selects the active shading model and texture mode. s must
// name exactly one of ShaderFlat, ShaderGouraud and ShaderPhong, and
// either no texture bits, ShaderNoTexture, or one filter and one wrap mode.
// Projection and depth bits are ignored: they follow the projection and
// the bound depth surface. Whether the resulting combination was loaded
// is checked when drawing.
func (r *Renderer[C, D]) SetShaders(s Shader) error {
	sel, err := parseSelection(s)
	if err != nil {
		return err
	}
	r.active = sel
	return nil
}

// Viewport returns the current viewport.
func (r *Renderer[C, D]) Viewport() Viewport { return r.vp }

// SetViewport changes the logical screen. The projection is kept; callers
// that want the aspect ratio to follow must set the projection again.
func (r *Renderer[C, D]) SetViewport(vp Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	r.vp = vp
	return nil
}

// SetImage binds the colour surface. The zero Image unbinds it.
func (r *Renderer[C, D]) SetImage(img surface.Image[C]) error {
	if r.depth && img.Valid() && !surface.SameLayout(img, r.zbuf) {
		return fmt.Errorf("%w: image %dx%d/%d, depth %dx%d/%d", ErrSurfaceMismatch,
			img.Width(), img.Height(), img.Stride(), r.zbuf.Width(), r.zbuf.Height(), r.zbuf.Stride())
	}
	r.img = img
	return nil
}

// SetDepth binds the depth surface, enabling the depth test. The zero
// Image unbinds it. The surface must have the layout of the bound image.
func (r *Renderer[C, D]) SetDepth(zbuf surface.Image[D]) error {
	if !zbuf.Valid() {
		r.zbuf, r.depth = surface.Image[D]{}, false
		return nil
	}
	if r.img.Valid() && !surface.SameLayout(r.img, zbuf) {
		return fmt.Errorf("%w: image %dx%d/%d, depth %dx%d/%d", ErrSurfaceMismatch,
			r.img.Width(), r.img.Height(), r.img.Stride(), zbuf.Width(), zbuf.Height(), zbuf.Stride())
	}
	r.zbuf, r.depth = zbuf, true
	return nil
}

// SetSurfaces binds both surfaces at once.
func (r *Renderer[C, D]) SetSurfaces(img surface.Image[C], zbuf surface.Image[D]) error {
	if zbuf.Valid() && !surface.SameLayout(img, zbuf) {
		return fmt.Errorf("%w: image %dx%d/%d, depth %dx%d/%d", ErrSurfaceMismatch,
			img.Width(), img.Height(), img.Stride(), zbuf.Width(), zbuf.Height(), zbuf.Stride())
	}
	r.img = img
	r.zbuf, r.depth = zbuf, zbuf.Valid()
	return nil
}

// Image returns the bound colour surface.
func (r *Renderer[C, D]) Image() surface.Image[C] { return r.img }

// DepthImage returns the bound depth surface.
func (r *Renderer[C, D]) DepthImage() surface.Image[D] { return r.zbuf }

// Clear fills the colour surface with c.
func (r *Renderer[C, D]) Clear(c C) { r.img.Fill(c) }

// ClearDepth resets the depth surface to infinitely far.
func (r *Renderer[C, D]) ClearDepth() { r.zbuf.Fill(0) }

// SetPerspective sets a perspective projection.
func (r *Renderer[C, D]) SetPerspective(p Perspective) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.setProjection(p.Matrix(), false)
}

// SetFrustum sets an off-axis perspective projection from the near-plane
// rectangle.
func (r *Renderer[C, D]) SetFrustum(left, right, bottom, top, near, far float32) error {
	if left == right || bottom == top || !(near > 0 && near < far) {
		return fmt.Errorf("%w: frustum %v %v %v %v %v %v", ErrDegenerateProjection, left, right, bottom, top, near, far)
	}
	return r.setProjection(math3d.Frustum(left, right, bottom, top, near, far), false)
}

// SetOrtho sets an orthographic projection.
func (r *Renderer[C, D]) SetOrtho(o Ortho) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return r.setProjection(o.Matrix(), true)
}

// SetProjectionMatrix sets a GL style projection matrix. ortho tells the
// pipeline how to interpolate depth; near and far are recovered from m.
func (r *Renderer[C, D]) SetProjectionMatrix(m math3d.Mat4, ortho bool) error {
	return r.setProjection(m, ortho)
}

func (r *Renderer[C, D]) setProjection(m math3d.Mat4, ortho bool) error {
	ps, err := newProjectionState(m, ortho)
	if err != nil {
		return err
	}
	r.proj = ps
	r.rs.depth = newDepthMap[D](ps)
	r.dirty = true
	return nil
}

// ProjectionMatrix returns the current projection.
func (r *Renderer[C, D]) ProjectionMatrix() math3d.Mat4 { return r.proj.m }

// Ortho reports whether the projection is orthographic.
func (r *Renderer[C, D]) Ortho() bool { return r.proj.ortho }

// SetViewMatrix sets the world to view transform.
func (r *Renderer[C, D]) SetViewMatrix(m math3d.Mat4) {
	r.view = m
	r.dirty = true
}

// SetLookAt sets the view matrix of a camera at eye looking at center.
func (r *Renderer[C, D]) SetLookAt(eye, center, up math3d.Vec3) {
	r.SetViewMatrix(math3d.LookAt(eye, center, up))
}

// ViewMatrix returns the current view matrix.
func (r *Renderer[C, D]) ViewMatrix() math3d.Mat4 { return r.view }

// SetModelMatrix sets the model to world transform used by later draws.
func (r *Renderer[C, D]) SetModelMatrix(m math3d.Mat4) {
	r.model = m
	r.dirty = true
}

// SetModelPosScaleRot sets the model matrix to T(pos) * R(axis, deg) * S(scale).
func (r *Renderer[C, D]) SetModelPosScaleRot(pos, scale math3d.Vec3, deg float32, axis math3d.Vec3) {
	m := math3d.Translate(pos)
	if deg != 0 && axis.LenSq() > 0 {
		m = m.Rotated(axis, deg*math32.Pi/180)
	}
	r.SetModelMatrix(m.Scaled(scale))
}

// ModelMatrix returns the current model matrix.
func (r *Renderer[C, D]) ModelMatrix() math3d.Mat4 { return r.model }

// SetCulling sets the winding of triangles to discard.
func (r *Renderer[C, D]) SetCulling(c CullMode) { r.cull = c }

// Culling returns the culling mode.
func (r *Renderer[C, D]) Culling() CullMode { return r.cull }

// SetMaterial sets the material used by draws that do not take the
// mesh's own.
func (r *Renderer[C, D]) SetMaterial(m models.Material) { r.material = m }

// Material returns the current material.
func (r *Renderer[C, D]) Material() models.Material { return r.material }

// SetLight sets the directional light.
func (r *Renderer[C, D]) SetLight(l Light) { r.light = l }

// Light returns the current light.
func (r *Renderer[C, D]) Light() Light { return r.light }

// update refreshes matrices derived from the projection, view and model.
func (r *Renderer[C, D]) update() {
	if !r.dirty {
		return
	}
	r.modelView = r.view.Mul(r.model)
	r.normalMat = r.modelView
	if !r.modelView.IsRigid(1e-4) {
		if n, ok := r.modelView.NormalMatrix(); ok {
			r.normalMat = n
		}
	}
	r.frustum = NewFrustumFromMatrix(r.proj.m.Mul(r.view))
	r.dirty = false
}

// WorldToNDC projects a world-space point. The result holds normalised
// device coordinates in X, Y, Z and the clip w in W. ok is false for
// points behind the near plane.
func (r *Renderer[C, D]) WorldToNDC(p math3d.Vec3) (math3d.Vec4, bool) {
	return toNDC(r.proj.m.Mul(r.view).MulVec4(math3d.V4FromV3(p, 1)))
}

// ModelToNDC is WorldToNDC for a model-space point under the current model
// matrix.
func (r *Renderer[C, D]) ModelToNDC(p math3d.Vec3) (math3d.Vec4, bool) {
	r.update()
	return toNDC(r.proj.m.Mul(r.modelView).MulVec4(math3d.V4FromV3(p, 1)))
}

func toNDC(c math3d.Vec4) (math3d.Vec4, bool) {
	if nearDistance(c) < 0 || c.W == 0 {
		return c, false
	}
	iw := 1 / c.W
	return math3d.V4(c.X*iw, c.Y*iw, c.Z*iw, c.W), true
}

// NDCToScreen maps normalised device coordinates to pixel coordinates of
// the bound image, taking the viewport offset into account. Pixel (i, j)
// covers [i, i+1) x [j, j+1).
func (r *Renderer[C, D]) NDCToScreen(x, y float32) (sx, sy float32) {
	sx = (x+1)*0.5*float32(r.vp.Width) - float32(r.vp.OffsetX)
	sy = (1-y)*0.5*float32(r.vp.Height) - float32(r.vp.OffsetY)
	return sx, sy
}

// clipRect returns the writable rectangle of the bound image.
func (r *Renderer[C, D]) clipRect() image.Rectangle {
	vp := image.Rect(-r.vp.OffsetX, -r.vp.OffsetY, r.vp.Width-r.vp.OffsetX, r.vp.Height-r.vp.OffsetY)
	return vp.Intersect(r.img.Bounds())
}

// project divides a clip-space vertex and maps it to the screen.
func (r *Renderer[C, D]) project(cv *ClipVertex) rasterVertex {
	iw := 1 / cv.Pos.W
	x, y := r.NDCToScreen(cv.Pos.X*iw, cv.Pos.Y*iw)
	rv := rasterVertex{x: x, y: y, q: iw, c: cv.Color, n: cv.Normal, uv: cv.UV}
	if r.proj.ortho {
		rv.q = (1 - cv.Pos.Z*iw) * 0.5
	}
	return rv
}
