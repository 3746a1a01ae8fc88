package render

import (
	"fmt"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// vertexIn is one model-space vertex as read from a mesh or a direct draw
// call.
type vertexIn struct {
	pos math3d.Vec3
	n   math3d.Vec3
	uv  math3d.Vec2
	c   color.RGBf
}

// pass is the resolved state of one draw call: the fill routine and which
// vertex attributes it reads.
type pass[C color.Pixel[C], D Depth] struct {
	fill    rasterFunc[C, D]
	c       combo
	normals bool // vertices carry normals
	colors  bool // vertices carry their own colour
	tint    color.RGBf
}

// begin checks that a colour surface is bound and refreshes derived state.
func (r *Renderer[C, D]) begin() error {
	if !r.img.Valid() {
		return ErrNoSurface
	}
	r.update()
	r.rs.img = r.img
	r.rs.zbuf = r.zbuf
	r.rs.clip = r.clipRect()
	r.rs.shade.light = &r.lit
	return nil
}

// resolve picks the fill routine for a draw. Without normals, smooth
// shading falls back to flat when that combination is loaded; otherwise
// the face normal stands in for the vertex normals. Without a usable
// texture the untextured combination is used.
func (r *Renderer[C, D]) resolve(shade uint8, normals bool, tex *surface.Image[C]) (pass[C, D], error) {
	c := combo{ortho: r.proj.ortho, zbuffer: r.depth, shade: shade, tex: r.active.tex}
	if tex == nil || !tex.Valid() {
		c.tex = texNone
	}
	if !normals && c.shade != shadeFlat {
		flat := c
		flat.shade = shadeFlat
		if f := r.table.lookup(flat); f != nil {
			c = flat
		}
	}
	p := pass[C, D]{fill: r.table.lookup(c), c: c, normals: normals, tint: color.White}
	if p.fill == nil {
		return p, fmt.Errorf("%w: %v", ErrShaderNotLoaded, c)
	}
	if c.wraps() && !(models.IsPow2(tex.Width()) && models.IsPow2(tex.Height())) {
		return p, fmt.Errorf("%w: %dx%d", ErrTextureSize, tex.Width(), tex.Height())
	}
	r.rs.tex = nil
	if c.tex != texNone {
		r.rs.tex = tex
	}
	return p, nil
}

// DrawMesh draws one segment under the current transforms. With
// useMeshMaterial the segment's material is used for this call, otherwise
// the renderer's. Segments whose bounds are outside the view frustum are
// skipped.
func (r *Renderer[C, D]) DrawMesh(m *models.Mesh[C], useMeshMaterial bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	return r.drawSegment(m, useMeshMaterial)
}

// DrawModel draws every segment of a model in order with the same
// transforms. Drawing stops at the first error.
func (r *Renderer[C, D]) DrawModel(m *models.Model[C], useMeshMaterial bool) error {
	if err := r.begin(); err != nil {
		return err
	}
	for i := range m.Segments {
		if err := r.drawSegment(&m.Segments[i], useMeshMaterial); err != nil {
			return fmt.Errorf("segment %d (%s): %w", i, m.Segments[i].Name, err)
		}
	}
	return nil
}

func (r *Renderer[C, D]) drawSegment(m *models.Mesh[C], useMeshMaterial bool) error {
	box := NewAABB(m.BoundsMin, m.BoundsMax)
	if !box.Empty() && !r.frustum.IntersectAABB(box.Transform(r.model)) {
		r.stats.SegmentsRejected++
		return nil
	}

	var tex *surface.Image[C]
	if m.Textured() {
		tex = m.Texture
	}
	p, err := r.resolve(r.active.shade, m.HasNormals(), tex)
	if err != nil {
		return err
	}
	mat := r.material
	if useMeshMaterial {
		mat = m.Material
	}
	r.lit.update(r.light, r.view, mat)
	if p.c.tex == texNone {
		p.tint = mat.Color
	}
	r.stats.Segments++

	nv, nt, nn := len(m.Vertices), len(m.TexCoords), len(m.Normals)
	var quad [4]vertexIn
	for fi := range m.Faces {
		f := &m.Faces[fi]
		sides := int(f.Sides)
		if sides != 3 && sides != 4 {
			continue
		}
		valid := true
		for k := range sides {
			if int(f.V[k]) >= nv {
				valid = false
				break
			}
			quad[k] = vertexIn{pos: m.Vertices[f.V[k]]}
			if p.normals && int(f.N[k]) < nn {
				quad[k].n = m.Normals[f.N[k]]
			}
			if tex != nil && int(f.T[k]) < nt {
				quad[k].uv = m.TexCoords[f.T[k]]
			}
		}
		if !valid {
			continue
		}
		r.drawTriangle(&p, [3]vertexIn{quad[0], quad[1], quad[2]})
		if sides == 4 {
			r.drawTriangle(&p, [3]vertexIn{quad[0], quad[2], quad[3]})
		}
	}
	return nil
}

// DrawTriangle draws a model-space triangle with the current material and
// shaders. normals, uvs and tex may be nil.
func (r *Renderer[C, D]) DrawTriangle(pos [3]math3d.Vec3, normals *[3]math3d.Vec3, uvs *[3]math3d.Vec2, tex *surface.Image[C]) error {
	p, err := r.beginDirect(r.active.shade, normals != nil, tex, uvs != nil)
	if err != nil {
		return err
	}
	var v [3]vertexIn
	for k := range v {
		v[k].pos = pos[k]
		if normals != nil {
			v[k].n = normals[k]
		}
		if uvs != nil {
			v[k].uv = uvs[k]
		}
	}
	r.drawTriangle(&p, v)
	return nil
}

// DrawQuad draws a model-space quad split along the 0-2 diagonal.
func (r *Renderer[C, D]) DrawQuad(pos [4]math3d.Vec3, normals *[4]math3d.Vec3, uvs *[4]math3d.Vec2, tex *surface.Image[C]) error {
	p, err := r.beginDirect(r.active.shade, normals != nil, tex, uvs != nil)
	if err != nil {
		return err
	}
	var v [4]vertexIn
	for k := range v {
		v[k].pos = pos[k]
		if normals != nil {
			v[k].n = normals[k]
		}
		if uvs != nil {
			v[k].uv = uvs[k]
		}
	}
	r.drawTriangle(&p, [3]vertexIn{v[0], v[1], v[2]})
	r.drawTriangle(&p, [3]vertexIn{v[0], v[2], v[3]})
	return nil
}

// DrawTriangleColors draws a lit triangle whose vertices carry their own
// colour in place of the material colour. It always uses Gouraud shading
// without texture; normals may be nil.
func (r *Renderer[C, D]) DrawTriangleColors(pos [3]math3d.Vec3, colors [3]color.RGBf, normals *[3]math3d.Vec3) error {
	p, err := r.beginColors(normals != nil)
	if err != nil {
		return err
	}
	var v [3]vertexIn
	for k := range v {
		v[k] = vertexIn{pos: pos[k], c: colors[k]}
		if normals != nil {
			v[k].n = normals[k]
		}
	}
	r.drawTriangle(&p, v)
	return nil
}

// DrawQuadColors is DrawTriangleColors for a quad.
func (r *Renderer[C, D]) DrawQuadColors(pos [4]math3d.Vec3, colors [4]color.RGBf, normals *[4]math3d.Vec3) error {
	p, err := r.beginColors(normals != nil)
	if err != nil {
		return err
	}
	var v [4]vertexIn
	for k := range v {
		v[k] = vertexIn{pos: pos[k], c: colors[k]}
		if normals != nil {
			v[k].n = normals[k]
		}
	}
	r.drawTriangle(&p, [3]vertexIn{v[0], v[1], v[2]})
	r.drawTriangle(&p, [3]vertexIn{v[0], v[2], v[3]})
	return nil
}

func (r *Renderer[C, D]) beginDirect(shade uint8, normals bool, tex *surface.Image[C], uvs bool) (pass[C, D], error) {
	if err := r.begin(); err != nil {
		return pass[C, D]{}, err
	}
	if !uvs {
		tex = nil
	}
	p, err := r.resolve(shade, normals, tex)
	if err != nil {
		return p, err
	}
	r.lit.update(r.light, r.view, r.material)
	if p.c.tex == texNone {
		p.tint = r.material.Color
	}
	return p, nil
}

func (r *Renderer[C, D]) beginColors(normals bool) (pass[C, D], error) {
	if err := r.begin(); err != nil {
		return pass[C, D]{}, err
	}
	c := combo{ortho: r.proj.ortho, zbuffer: r.depth, shade: shadeGouraud, tex: texNone}
	p := pass[C, D]{fill: r.table.lookup(c), c: c, normals: normals, colors: true}
	if p.fill == nil {
		return p, fmt.Errorf("%w: %v", ErrShaderNotLoaded, c)
	}
	r.rs.tex = nil
	r.lit.update(r.light, r.view, r.material)
	return p, nil
}

// drawTriangle runs one model-space triangle through transform, culling,
// lighting, clipping and rasterization.
func (r *Renderer[C, D]) drawTriangle(p *pass[C, D], in [3]vertexIn) {
	r.stats.Triangles++

	var (
		eye   [3]math3d.Vec3
		cv    [3]ClipVertex
		front int
	)
	for k := range in {
		eye[k] = r.modelView.MulVec3(in[k].pos)
		cv[k].Pos = r.proj.m.MulVec4(math3d.V4FromV3(eye[k], 1))
		if nearDistance(cv[k].Pos) >= 0 {
			front++
		}
	}
	if front == 0 {
		r.stats.Behind++
		return
	}

	fn := eye[1].Sub(eye[0]).Cross(eye[2].Sub(eye[0]))
	if fn.LenSq() == 0 {
		r.stats.Degenerate++
		return
	}
	// The view-space facing test is the only culling test; the fill
	// routine accepts both orientations.
	facing := r.facing(eye[0], fn)
	if r.culled(facing) {
		r.stats.Culled++
		return
	}
	// Light the visible side.
	fn = fn.Normalize()
	if !facing {
		fn = fn.Negate()
	}

	tint := p.tint
	if p.colors {
		tint = in[0].c.Add(in[1].c).Add(in[2].c).Scale(1.0 / 3)
	}
	switch p.c.shade {
	case shadeFlat:
		r.rs.shade.flat = r.lit.shade(fn, tint)
	case shadePhong:
		r.rs.shade.tint = tint
	}
	for k := range in {
		n := fn
		if p.normals {
			n = r.normalMat.MulVec3Dir(in[k].n).Normalize()
			if !facing {
				n = n.Negate()
			}
		}
		cv[k].Normal = n
		cv[k].UV = in[k].uv
		if p.c.shade == shadeGouraud {
			vt := tint
			if p.colors {
				vt = in[k].c
			}
			cv[k].Color = r.lit.shade(n, vt)
		}
	}

	var out [2][3]ClipVertex
	n := ClipNear(cv, &out)
	if front < 3 {
		r.stats.Clipped++
	}
	var guarded [maxGuardTris][3]ClipVertex
	for i := range n {
		for _, tri := range guarded[:clipGuard(out[i], &guarded)] {
			rv := [3]rasterVertex{r.project(&tri[0]), r.project(&tri[1]), r.project(&tri[2])}
			r.stats.count(p.fill(&r.rs, &rv))
		}
	}
}

// facing reports whether a view-space face with normal fn through p points
// at the eye.
func (r *Renderer[C, D]) facing(p, fn math3d.Vec3) bool {
	toEye := math3d.V3(0, 0, 1)
	if !r.proj.ortho {
		toEye = p.Negate()
	}
	return fn.Dot(toEye) > 0
}

// culled applies the cull mode to a face. A face pointing at the eye is
// counter-clockwise in NDC unless the projection mirrors the image.
func (r *Renderer[C, D]) culled(facing bool) bool {
	ccw := facing != r.proj.mirrored
	return (r.cull == CullClockwise && !ccw) || (r.cull == CullCounterClockwise && ccw)
}
