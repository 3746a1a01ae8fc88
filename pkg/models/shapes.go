package models

import (
	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

// Procedural meshes use counter-clockwise front faces seen from outside,
// texture coordinate v = 0 on the top row of the texture.

// cubeFaces lists the four corners of each cube side, counter-clockwise
// seen from outside, followed by the outward normal.
var cubeFaces = [6]struct {
	corners [4]math3d.Vec3
	normal  math3d.Vec3
}{
	{[4]math3d.Vec3{{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}}, math3d.Vec3{Z: 1}},
	{[4]math3d.Vec3{{X: 1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}}, math3d.Vec3{Z: -1}},
	{[4]math3d.Vec3{{X: 1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1}}, math3d.Vec3{X: 1}},
	{[4]math3d.Vec3{{X: -1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}}, math3d.Vec3{X: -1}},
	{[4]math3d.Vec3{{X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1}}, math3d.Vec3{Y: 1}},
	{[4]math3d.Vec3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: 1}}, math3d.Vec3{Y: -1}},
}

var quadUV = [4]math3d.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

// NewCube returns an axis-aligned cube of edge length size centered on the
// origin, one quad per side, each side mapping the full texture.
func NewCube[C color.Pixel[C]](size float32) *Mesh[C] {
	h := size / 2
	m := &Mesh[C]{
		Name:      "cube",
		Vertices:  make([]math3d.Vec3, 0, 24),
		TexCoords: quadUV[:],
		Normals:   make([]math3d.Vec3, 0, 6),
		Faces:     make([]Face, 0, 6),
		Material:  DefaultMaterial(),
	}
	for i, side := range cubeFaces {
		base := uint16(len(m.Vertices))
		for _, c := range side.corners {
			m.Vertices = append(m.Vertices, c.Scale(h))
		}
		m.Normals = append(m.Normals, side.normal)
		n := uint16(i)
		m.Faces = append(m.Faces, Face{
			V:     [4]uint16{base, base + 1, base + 2, base + 3},
			T:     [4]uint16{0, 1, 2, 3},
			N:     [4]uint16{n, n, n, n},
			Sides: 4,
		})
	}
	m.CalculateBounds()
	return m
}

// NewSphere returns a UV sphere. sectors is clamped to [3, 255] and stacks
// to [2, 255] so that every vertex stays addressable.
func NewSphere[C color.Pixel[C]](radius float32, sectors, stacks int) *Mesh[C] {
	sectors = min(max(sectors, 3), 255)
	stacks = min(max(stacks, 2), 255)

	count := (stacks + 1) * (sectors + 1)
	m := &Mesh[C]{
		Name:      "sphere",
		Vertices:  make([]math3d.Vec3, 0, count),
		TexCoords: make([]math3d.Vec2, 0, count),
		Normals:   make([]math3d.Vec3, 0, count),
		Faces:     make([]Face, 0, stacks*sectors),
		Material:  DefaultMaterial(),
	}
	for i := range stacks + 1 {
		phi := math32.Pi * float32(i) / float32(stacks)
		sp, cp := math32.Sincos(phi)
		for j := range sectors + 1 {
			theta := 2 * math32.Pi * float32(j) / float32(sectors)
			st, ct := math32.Sincos(theta)
			n := math3d.V3(sp*st, cp, sp*ct)
			m.Vertices = append(m.Vertices, n.Scale(radius))
			m.Normals = append(m.Normals, n)
			m.TexCoords = append(m.TexCoords, math3d.V2(float32(j)/float32(sectors), float32(i)/float32(stacks)))
		}
	}

	idx := func(i, j int) uint16 { return uint16(i*(sectors+1) + j) }
	for i := range stacks {
		for j := range sectors {
			a, b := idx(i, j), idx(i+1, j)
			c, d := idx(i+1, j+1), idx(i, j+1)
			switch i {
			case 0:
				m.Faces = append(m.Faces, Tri(a, b, c))
			case stacks - 1:
				m.Faces = append(m.Faces, Tri(a, b, d))
			default:
				m.Faces = append(m.Faces, Quad(a, b, c, d))
			}
		}
	}
	m.CalculateBounds()
	return m
}

// NewQuad returns a w x h rectangle in the XY plane facing +Z.
func NewQuad[C color.Pixel[C]](w, h float32) *Mesh[C] {
	hw, hh := w/2, h/2
	m := &Mesh[C]{
		Name: "quad",
		Vertices: []math3d.Vec3{
			{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh},
		},
		TexCoords: quadUV[:],
		Normals:   []math3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}},
		Faces:     []Face{Quad(0, 1, 2, 3)},
		Material:  DefaultMaterial(),
	}
	m.CalculateBounds()
	return m
}

// NewPlane returns a w x d grid of div x div quads in the XZ plane facing
// +Y. div is clamped to [1, 255].
func NewPlane[C color.Pixel[C]](w, d float32, div int) *Mesh[C] {
	div = min(max(div, 1), 255)
	m := &Mesh[C]{
		Name:     "plane",
		Normals:  []math3d.Vec3{{Y: 1}},
		Material: DefaultMaterial(),
	}
	for i := range div + 1 {
		z := d/2 - d*float32(i)/float32(div)
		for j := range div + 1 {
			x := -w/2 + w*float32(j)/float32(div)
			m.Vertices = append(m.Vertices, math3d.V3(x, 0, z))
			m.TexCoords = append(m.TexCoords, math3d.V2(float32(j)/float32(div), 1-float32(i)/float32(div)))
		}
	}
	idx := func(i, j int) uint16 { return uint16(i*(div+1) + j) }
	for i := range div {
		for j := range div {
			f := Quad(idx(i, j), idx(i, j+1), idx(i+1, j+1), idx(i+1, j))
			f.N = [4]uint16{}
			m.Faces = append(m.Faces, f)
		}
	}
	m.CalculateBounds()
	return m
}
