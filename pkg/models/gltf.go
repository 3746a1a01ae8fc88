package models

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// GLTFLoader imports glTF and GLB files as models with one segment per
// triangle primitive.
type GLTFLoader[C color.Pixel[C]] struct {
	// SmoothNormals computes per-vertex normals for primitives without a
	// NORMAL attribute. When false such primitives get flat normals.
	SmoothNormals bool
	// MaxTextureSize bounds each texture axis after power-of-two resampling.
	MaxTextureSize int
	// Textures disables texture import when false.
	Textures bool
}

// NewGLTFLoader returns a loader with smooth normals and textures enabled.
func NewGLTFLoader[C color.Pixel[C]]() *GLTFLoader[C] {
	return &GLTFLoader[C]{
		SmoothNormals:  true,
		MaxTextureSize: DefaultMaxTextureSize,
		Textures:       true,
	}
}

// LoadGLTF loads a glTF or GLB file with default options.
func LoadGLTF[C color.Pixel[C]](path string) (*Model[C], error) {
	return NewGLTFLoader[C]().Load(path)
}

// Load reads path and converts every triangle primitive into a segment.
func (l *GLTFLoader[C]) Load(path string) (*Model[C], error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	model := &Model[C]{Name: filepath.Base(path)}
	textures := make(map[int]*surface.Image[C])
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			seg, err := l.segment(doc, prim, filepath.Dir(path), textures)
			if err != nil {
				return nil, fmt.Errorf("mesh %d (%q) primitive %d: %w", mi, m.Name, pi, err)
			}
			if seg == nil {
				continue
			}
			seg.Name = fmt.Sprintf("%s.%d", m.Name, pi)
			model.Segments = append(model.Segments, *seg)
		}
	}
	if len(model.Segments) == 0 {
		return nil, fmt.Errorf("%w: %s has no triangle primitives", ErrInvalidMesh, path)
	}
	return model, nil
}

func (l *GLTFLoader[C]) segment(doc *gltf.Document, prim *gltf.Primitive, dir string, textures map[int]*surface.Image[C]) (*Mesh[C], error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	if len(positions) > MaxVertices {
		return nil, fmt.Errorf("%w: %d vertices, max %d", ErrInvalidMesh, len(positions), MaxVertices)
	}

	seg := &Mesh[C]{
		Vertices: make([]math3d.Vec3, len(positions)),
		Material: DefaultMaterial(),
	}
	for i, p := range positions {
		seg.Vertices[i] = math3d.V3(p[0], p[1], p[2])
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		seg.Normals = make([]math3d.Vec3, len(normals))
		for i, n := range normals {
			seg.Normals[i] = math3d.V3(n[0], n[1], n[2])
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
		seg.TexCoords = make([]math3d.Vec2, len(uvs))
		for i, t := range uvs {
			seg.TexCoords[i] = math3d.V2(t[0], t[1])
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	seg.Faces = make([]Face, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a >= uint32(len(positions)) || b >= uint32(len(positions)) || c >= uint32(len(positions)) {
			return nil, fmt.Errorf("%w: index out of range at triangle %d", ErrInvalidMesh, i/3)
		}
		seg.Faces = append(seg.Faces, Tri(uint16(a), uint16(b), uint16(c)))
	}

	if !seg.HasNormals() {
		if l.SmoothNormals {
			seg.SmoothNormals()
		} else if err := seg.FlatNormals(); err != nil {
			return nil, err
		}
	}

	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		if err := l.applyMaterial(doc, doc.Materials[*prim.Material], seg, dir, textures); err != nil {
			return nil, err
		}
	}

	seg.CalculateBounds()
	if err := seg.Validate(); err != nil {
		return nil, err
	}
	return seg, nil
}

func (l *GLTFLoader[C]) applyMaterial(doc *gltf.Document, mat *gltf.Material, seg *Mesh[C], dir string, textures map[int]*surface.Image[C]) error {
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return nil
	}
	if f := pbr.BaseColorFactor; f != nil {
		seg.Material.Color = color.RGBf{R: float32(f[0]), G: float32(f[1]), B: float32(f[2])}
	}
	if pbr.MetallicFactor != nil {
		// Shinier highlights for metals, softer for dielectrics.
		seg.Material.Specular = 0.2 + 0.6*float32(*pbr.MetallicFactor)
	}
	if pbr.RoughnessFactor != nil {
		r := float32(*pbr.RoughnessFactor)
		seg.Material.Shininess = max(2, int(64*(1-r)*(1-r)))
	}

	if !l.Textures || pbr.BaseColorTexture == nil {
		return nil
	}
	ti := pbr.BaseColorTexture.Index
	if ti >= len(doc.Textures) || doc.Textures[ti].Source == nil {
		return nil
	}
	src := *doc.Textures[ti].Source
	tex, ok := textures[src]
	if !ok {
		var err error
		if tex, err = l.loadImage(doc, src, dir); err != nil {
			return fmt.Errorf("texture %d: %w", src, err)
		}
		textures[src] = tex
	}
	// The texture carries the colour; every segment sharing it is tinted
	// alike.
	seg.Texture = tex
	seg.Material.Color = color.White
	return nil
}

func (l *GLTFLoader[C]) loadImage(doc *gltf.Document, idx int, dir string) (*surface.Image[C], error) {
	if idx >= len(doc.Images) {
		return nil, fmt.Errorf("%w: image index %d", ErrInvalidMesh, idx)
	}
	img := doc.Images[idx]

	var data []byte
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		end := bv.ByteOffset + bv.ByteLength
		if end > len(buf.Data) {
			return nil, fmt.Errorf("%w: image buffer view out of range", ErrInvalidMesh)
		}
		data = buf.Data[bv.ByteOffset:end]
	case img.IsEmbeddedResource():
		var err error
		data, err = img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
	case img.URI != "":
		var err error
		data, err = os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: image %d has no data", ErrInvalidMesh, idx)
	}

	tex, err := DecodeTexture[C](bytes.NewReader(data), l.MaxTextureSize)
	if err != nil {
		return nil, err
	}
	return &tex, nil
}
