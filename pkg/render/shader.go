package render

import (
	"fmt"
	"strings"
)

// Shader is a set of rendering features. A renderer is created with the set
// of features it may use (its loaded shaders); the active selection made
// with SetShaders must stay within that set at draw time.
type Shader uint32

const (
	ShaderPerspective Shader = 1 << iota
	ShaderOrtho
	ShaderNoZBuffer
	ShaderZBuffer
	ShaderFlat
	ShaderGouraud
	ShaderPhong
	ShaderNoTexture
	ShaderTextureNearest
	ShaderTextureBilinear
	ShaderTextureWrapPow2
	ShaderTextureClamp
)

const (
	// ShaderProjection selects both projection kinds.
	ShaderProjection = ShaderPerspective | ShaderOrtho
	// ShaderDepth selects both depth modes.
	ShaderDepth = ShaderNoZBuffer | ShaderZBuffer
	// ShaderShading selects every shading model.
	ShaderShading = ShaderFlat | ShaderGouraud | ShaderPhong
	// ShaderTexture selects every filter and wrap mode.
	ShaderTexture = ShaderTextureNearest | ShaderTextureBilinear | ShaderTextureWrapPow2 | ShaderTextureClamp
	// ShaderAll loads every combination.
	ShaderAll = ShaderProjection | ShaderDepth | ShaderShading | ShaderNoTexture | ShaderTexture
)

var shaderNames = [...]string{
	"perspective", "ortho", "nozbuffer", "zbuffer",
	"flat", "gouraud", "phong", "notexture",
	"nearest", "bilinear", "wrap", "clamp",
}

func (s Shader) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for i, name := range shaderNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := s &^ ShaderAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseShader parses a "|" or "," separated list of feature names as
// printed by Shader.String, plus "all" and "texture".
func ParseShader(s string) (Shader, error) {
	var out Shader
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		switch f = strings.ToLower(f); f {
		case "all":
			out |= ShaderAll
			continue
		case "texture":
			out |= ShaderTexture
			continue
		}
		found := false
		for i, name := range shaderNames {
			if f == name {
				out |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown feature %q", ErrInvalidShader, f)
		}
	}
	return out, nil
}

// Texture modes, in table order.
const (
	texNone = iota
	texNearestWrap
	texNearestClamp
	texBilinearWrap
	texBilinearClamp
	texModes
)

// Shading models, in table order.
const (
	shadeFlat = iota
	shadeGouraud
	shadePhong
	shadeModes
)

// combo identifies one specialized rasterization routine.
type combo struct {
	ortho   bool
	zbuffer bool
	shade   uint8
	tex     uint8
}

// shaders returns the feature bits the combination requires.
func (c combo) shaders() Shader {
	s := ShaderPerspective
	if c.ortho {
		s = ShaderOrtho
	}
	if c.zbuffer {
		s |= ShaderZBuffer
	} else {
		s |= ShaderNoZBuffer
	}
	s |= [shadeModes]Shader{ShaderFlat, ShaderGouraud, ShaderPhong}[c.shade]
	s |= [texModes]Shader{
		ShaderNoTexture,
		ShaderTextureNearest | ShaderTextureWrapPow2,
		ShaderTextureNearest | ShaderTextureClamp,
		ShaderTextureBilinear | ShaderTextureWrapPow2,
		ShaderTextureBilinear | ShaderTextureClamp,
	}[c.tex]
	return s
}

func (c combo) String() string { return c.shaders().String() }

// wraps reports whether the texture mode addresses texels by bitmask.
func (c combo) wraps() bool {
	return c.tex == texNearestWrap || c.tex == texBilinearWrap
}

// selection is the active shading and texture choice made by SetShaders.
type selection struct {
	shade uint8
	tex   uint8
}

// parseSelection validates an active shader choice: exactly one shading
// model, and either no texture bits, ShaderNoTexture, or one filter plus
// one wrap mode.
func parseSelection(s Shader) (selection, error) {
	var sel selection
	switch s & ShaderShading {
	case ShaderFlat:
		sel.shade = shadeFlat
	case ShaderGouraud:
		sel.shade = shadeGouraud
	case ShaderPhong:
		sel.shade = shadePhong
	default:
		return sel, fmt.Errorf("%w: need exactly one shading model in %v", ErrInvalidShader, s)
	}

	tex := s & (ShaderNoTexture | ShaderTexture)
	if tex == 0 || tex == ShaderNoTexture {
		sel.tex = texNone
		return sel, nil
	}
	if tex&ShaderNoTexture != 0 {
		return sel, fmt.Errorf("%w: notexture combined with texture modes in %v", ErrInvalidShader, s)
	}
	filter := tex & (ShaderTextureNearest | ShaderTextureBilinear)
	wrap := tex & (ShaderTextureWrapPow2 | ShaderTextureClamp)
	switch {
	case filter == ShaderTextureNearest && wrap == ShaderTextureWrapPow2:
		sel.tex = texNearestWrap
	case filter == ShaderTextureNearest && wrap == ShaderTextureClamp:
		sel.tex = texNearestClamp
	case filter == ShaderTextureBilinear && wrap == ShaderTextureWrapPow2:
		sel.tex = texBilinearWrap
	case filter == ShaderTextureBilinear && wrap == ShaderTextureClamp:
		sel.tex = texBilinearClamp
	default:
		return sel, fmt.Errorf("%w: need one filter and one wrap mode in %v", ErrInvalidShader, s)
	}
	return sel, nil
}

// shaders returns the bits of the selection.
func (sel selection) shaders() Shader {
	return combo{shade: sel.shade, tex: sel.tex}.shaders() &^ (ShaderProjection | ShaderDepth)
}
