package render

import (
	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
)

// Light is a directional light. Direction is the world-space direction the
// light travels in; it need not be normalised.
type Light struct {
	Direction math3d.Vec3
	Ambient   color.RGBf
	Diffuse   color.RGBf
	Specular  color.RGBf
}

// DefaultLight is a white light shining from the upper left front.
func DefaultLight() Light {
	return Light{
		Direction: math3d.V3(1, -1, -1),
		Ambient:   color.White,
		Diffuse:   color.White,
		Specular:  color.White,
	}
}

const specularTableSize = 64

// specularTable caches x^shininess on [0, 1].
type specularTable struct {
	exponent int
	valid    bool
	lut      [specularTableSize]float32
}

func (t *specularTable) build(exponent int) {
	if t.valid && t.exponent == exponent {
		return
	}
	t.exponent, t.valid = exponent, true
	for i := range t.lut {
		t.lut[i] = math32.Pow(float32(i)/(specularTableSize-1), float32(exponent))
	}
}

func (t *specularTable) pow(x float32) float32 {
	i := int(x*(specularTableSize-1) + 0.5)
	if i >= specularTableSize {
		i = specularTableSize - 1
	}
	return t.lut[i]
}

// lighting is a Light and a Material resolved in view space.
type lighting struct {
	toLight  math3d.Vec3
	half     math3d.Vec3
	ambient  color.RGBf
	diffuse  color.RGBf
	specular color.RGBf
	powLUT   specularTable
}

// update resolves the light against the view matrix and the material. The
// viewer looks down -z in view space.
func (l *lighting) update(light Light, view math3d.Mat4, mat models.Material) {
	dir := view.MulVec3Dir(light.Direction)
	if dir.LenSq() == 0 {
		dir = math3d.V3(0, 0, -1)
	}
	l.toLight = dir.Normalize().Negate()
	l.half = l.toLight.Add(math3d.V3(0, 0, 1)).Normalize()
	l.ambient = light.Ambient.Scale(mat.Ambient)
	l.diffuse = light.Diffuse.Scale(mat.Diffuse)
	l.specular = light.Specular.Scale(mat.Specular)
	l.powLUT.build(max(mat.Shininess, 0))
}

// shade evaluates ambient, Lambert diffuse and Blinn specular for the unit
// view-space normal n and modulates by tint.
func (l *lighting) shade(n math3d.Vec3, tint color.RGBf) color.RGBf {
	c := l.ambient
	if nd := n.Dot(l.toLight); nd > 0 {
		c = c.Add(l.diffuse.Scale(nd))
		if nh := n.Dot(l.half); nh > 0 {
			c = c.Add(l.specular.Scale(l.powLUT.pow(nh)))
		}
	}
	return c.Mul(tint).Clamp()
}
