package render

import "github.com/taigrr/tinyraster/pkg/color"

// dispatchTable holds one fill routine per shader combination, indexed by
// projection, depth test, shading and texture mode. Entries for
// combinations that were not loaded are nil.
type dispatchTable[C color.Pixel[C], D Depth] [2][2][shadeModes][texModes]rasterFunc[C, D]

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (t *dispatchTable[C, D]) lookup(c combo) rasterFunc[C, D] {
	return t[b2i(c.ortho)][b2i(c.zbuffer)][c.shade][c.tex]
}

// newDispatchTable instantiates every combination whose features are all
// in loaded.
func newDispatchTable[C color.Pixel[C], D Depth](loaded Shader) *dispatchTable[C, D] {
	t := new(dispatchTable[C, D])
	for _, ortho := range []bool{false, true} {
		for _, zb := range []bool{false, true} {
			for shade := range uint8(shadeModes) {
				for tex := range uint8(texModes) {
					c := combo{ortho: ortho, zbuffer: zb, shade: shade, tex: tex}
					if c.shaders()&^loaded != 0 {
						continue
					}
					t[b2i(ortho)][b2i(zb)][shade][tex] = selectProjection[C, D](c)
				}
			}
		}
	}
	return t
}

// The select functions walk the combination one axis at a time so that
// every reachable instantiation of fill is named exactly once.

func selectProjection[C color.Pixel[C], D Depth](c combo) rasterFunc[C, D] {
	if c.ortho {
		return selectDepth[C, D, orthographic](c)
	}
	return selectDepth[C, D, perspective](c)
}

func selectDepth[C color.Pixel[C], D Depth, P projection](c combo) rasterFunc[C, D] {
	if c.zbuffer {
		return selectShading[C, D, P, zBuffer[D]](c)
	}
	return selectShading[C, D, P, noDepth[D]](c)
}

func selectShading[C color.Pixel[C], D Depth, P projection, Z depthTest[D]](c combo) rasterFunc[C, D] {
	switch c.shade {
	case shadeGouraud:
		return selectTexture[C, D, P, Z, gouraudShading](c)
	case shadePhong:
		return selectTexture[C, D, P, Z, phongShading](c)
	default:
		return selectTexture[C, D, P, Z, flatShading](c)
	}
}

func selectTexture[C color.Pixel[C], D Depth, P projection, Z depthTest[D], S shading](c combo) rasterFunc[C, D] {
	if c.tex == texNone {
		return fill[C, D, P, Z, S, noTexture[C]]
	}
	return selectTextured[C, D, P, Z, S](c)
}
