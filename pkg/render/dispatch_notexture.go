//go:build tinyraster_notexture

package render

import "github.com/taigrr/tinyraster/pkg/color"

// texturesCompiled reports whether textured fill routines are in the binary.
const texturesCompiled = false

// selectTextured leaves textured combinations empty; drawing with them
// reports ErrShaderNotLoaded.
func selectTextured[C color.Pixel[C], D Depth, P projection, Z depthTest[D], S shading](combo) rasterFunc[C, D] {
	return nil
}
