// Package models describes the immutable geometry the renderer reads: mesh
// segments, materials and multi-segment models, plus procedural builders and
// a glTF importer.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// ErrInvalidMesh is returned by Validate and the loaders for meshes whose
// faces do not address their vertex arrays correctly.
var ErrInvalidMesh = errors.New("models: invalid mesh")

// MaxVertices is the number of vertices addressable by a Face index.
const MaxVertices = 1 << 16

// Face is a triangle (Sides == 3) or quad (Sides == 4). V indexes
// Mesh.Vertices, T indexes Mesh.TexCoords and N indexes Mesh.Normals; T and
// N are ignored when the corresponding array is empty. Quads are split
// along the 0-2 diagonal.
type Face struct {
	V, T, N [4]uint16
	Sides   uint8
}

// Tri builds a triangle face using the same index for every attribute.
func Tri(a, b, c uint16) Face {
	return Face{
		V:     [4]uint16{a, b, c},
		T:     [4]uint16{a, b, c},
		N:     [4]uint16{a, b, c},
		Sides: 3,
	}
}

// Quad builds a quad face using the same index for every attribute.
func Quad(a, b, c, d uint16) Face {
	return Face{
		V:     [4]uint16{a, b, c, d},
		T:     [4]uint16{a, b, c, d},
		N:     [4]uint16{a, b, c, d},
		Sides: 4,
	}
}

// Material holds the Phong lighting coefficients of a segment.
type Material struct {
	Color     color.RGBf
	Ambient   float32
	Diffuse   float32
	Specular  float32
	Shininess int
}

// DefaultMaterial returns the material used when nothing else is set:
// light grey, ambient 0.1, diffuse 0.6, specular 0.5, shininess 16.
func DefaultMaterial() Material {
	return Material{
		Color:     color.RGBf{R: 0.75, G: 0.75, B: 0.75},
		Ambient:   0.1,
		Diffuse:   0.6,
		Specular:  0.5,
		Shininess: 16,
	}
}

// Mesh is one drawable segment with a single material and texture. The
// renderer only reads it; a Mesh may be shared by several renderers.
// Texture is borrowed and may be shared between meshes.
type Mesh[C color.Pixel[C]] struct {
	Name      string
	Vertices  []math3d.Vec3
	TexCoords []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     []Face
	Material  Material
	Texture   *surface.Image[C]

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// HasNormals reports whether faces address a normal array.
func (m *Mesh[C]) HasNormals() bool { return len(m.Normals) > 0 }

// HasTexCoords reports whether faces address a texture coordinate array.
func (m *Mesh[C]) HasTexCoords() bool { return len(m.TexCoords) > 0 }

// Textured reports whether the mesh can be drawn with a texture.
func (m *Mesh[C]) Textured() bool {
	return m.Texture != nil && m.Texture.Valid() && m.HasTexCoords()
}

// TriangleCount returns the number of triangles after quad splitting.
func (m *Mesh[C]) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		n += int(f.Sides) - 2
	}
	return n
}

// Validate checks every face index against the vertex arrays.
func (m *Mesh[C]) Validate() error {
	if len(m.Vertices) > MaxVertices {
		return fmt.Errorf("%w: %q has %d vertices, max %d", ErrInvalidMesh, m.Name, len(m.Vertices), MaxVertices)
	}
	for i, f := range m.Faces {
		if f.Sides != 3 && f.Sides != 4 {
			return fmt.Errorf("%w: %q face %d has %d sides", ErrInvalidMesh, m.Name, i, f.Sides)
		}
		for k := range int(f.Sides) {
			if int(f.V[k]) >= len(m.Vertices) {
				return fmt.Errorf("%w: %q face %d vertex index %d", ErrInvalidMesh, m.Name, i, f.V[k])
			}
			if m.HasTexCoords() && int(f.T[k]) >= len(m.TexCoords) {
				return fmt.Errorf("%w: %q face %d texcoord index %d", ErrInvalidMesh, m.Name, i, f.T[k])
			}
			if m.HasNormals() && int(f.N[k]) >= len(m.Normals) {
				return fmt.Errorf("%w: %q face %d normal index %d", ErrInvalidMesh, m.Name, i, f.N[k])
			}
		}
	}
	return nil
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh[C]) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}
	m.BoundsMin = m.Vertices[0]
	m.BoundsMax = m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v)
		m.BoundsMax = m.BoundsMax.Max(v)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh[C]) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh[C]) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// faceNormal returns the unnormalized normal of the first triangle of f.
func (m *Mesh[C]) faceNormal(f Face) math3d.Vec3 {
	p0 := m.Vertices[f.V[0]]
	p1 := m.Vertices[f.V[1]]
	p2 := m.Vertices[f.V[2]]
	return p1.Sub(p0).Cross(p2.Sub(p0))
}

// SmoothNormals replaces the normal array with one area-weighted normal per
// vertex and points every face's N indices at its V indices.
func (m *Mesh[C]) SmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Vertices))
	for i := range m.Faces {
		f := &m.Faces[i]
		n := m.faceNormal(*f)
		for k := range int(f.Sides) {
			m.Normals[f.V[k]] = m.Normals[f.V[k]].Add(n)
			f.N[k] = f.V[k]
		}
	}
	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// FlatNormals replaces the normal array with one normal per face. It fails
// when the mesh has more faces than a Face index can address.
func (m *Mesh[C]) FlatNormals() error {
	if len(m.Faces) > MaxVertices {
		return fmt.Errorf("%w: %q has %d faces, max %d flat normals", ErrInvalidMesh, m.Name, len(m.Faces), MaxVertices)
	}
	m.Normals = make([]math3d.Vec3, len(m.Faces))
	for i := range m.Faces {
		f := &m.Faces[i]
		m.Normals[i] = m.faceNormal(*f).Normalize()
		for k := range int(f.Sides) {
			f.N[k] = uint16(i)
		}
	}
	return nil
}

// Model is a multi-part object: segments are drawn in order, each with its
// own material and texture, under one model transform.
type Model[C color.Pixel[C]] struct {
	Name     string
	Segments []Mesh[C]
}

// Bounds returns the union of the segment bounding boxes.
func (m *Model[C]) Bounds() (lo, hi math3d.Vec3) {
	for i := range m.Segments {
		s := &m.Segments[i]
		if i == 0 {
			lo, hi = s.BoundsMin, s.BoundsMax
			continue
		}
		lo = lo.Min(s.BoundsMin)
		hi = hi.Max(s.BoundsMax)
	}
	return lo, hi
}

// TriangleCount returns the total triangle count of all segments.
func (m *Model[C]) TriangleCount() int {
	n := 0
	for i := range m.Segments {
		n += m.Segments[i].TriangleCount()
	}
	return n
}

// Validate validates every segment.
func (m *Model[C]) Validate() error {
	for i := range m.Segments {
		if err := m.Segments[i].Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}
