package render

import "errors"

// Configuration errors. Geometric degeneracies are never reported; they are
// skipped and counted in Stats.
var (
	// ErrDegenerateProjection is returned for projections that cannot map
	// the view volume (zero field of view, near >= far, empty extents).
	ErrDegenerateProjection = errors.New("render: degenerate projection")
	// ErrInvalidViewport is returned for viewport sizes outside
	// [1, MaxViewportSize].
	ErrInvalidViewport = errors.New("render: invalid viewport")
	// ErrSurfaceMismatch is returned when the depth surface does not have
	// the layout of the color surface.
	ErrSurfaceMismatch = errors.New("render: color and depth surfaces differ in layout")
	// ErrNoSurface is returned by draw calls before a color surface is bound.
	ErrNoSurface = errors.New("render: no color surface bound")
	// ErrShaderNotLoaded is returned by draw calls whose shader combination
	// was not loaded into the renderer.
	ErrShaderNotLoaded = errors.New("render: shader combination not loaded")
	// ErrInvalidShader is returned for contradictory shader selections.
	ErrInvalidShader = errors.New("render: invalid shader selection")
	// ErrTextureSize is returned when wrap-around sampling is requested on
	// a texture whose dimensions are not powers of two.
	ErrTextureSize = errors.New("render: texture size must be a power of two for wrap mode")
)
