//go:build !tinyraster_notexture

package render

import "github.com/taigrr/tinyraster/pkg/color"

// texturesCompiled reports whether textured fill routines are in the binary.
const texturesCompiled = true

func selectTextured[C color.Pixel[C], D Depth, P projection, Z depthTest[D], S shading](c combo) rasterFunc[C, D] {
	switch c.tex {
	case texNearestWrap:
		return fill[C, D, P, Z, S, textured[C, nearest[C, wrapPow2]]]
	case texNearestClamp:
		return fill[C, D, P, Z, S, textured[C, nearest[C, wrapClamp]]]
	case texBilinearWrap:
		return fill[C, D, P, Z, S, textured[C, bilinear[C, wrapPow2]]]
	case texBilinearClamp:
		return fill[C, D, P, Z, S, textured[C, bilinear[C, wrapClamp]]]
	}
	return nil
}
