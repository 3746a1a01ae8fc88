package render

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// MaxViewportSize bounds each viewport dimension so that subpixel edge
// arithmetic cannot overflow.
const MaxViewportSize = 2048

// Viewport is the logical screen the projection maps onto. OffsetX and
// OffsetY give the position of the bound image inside the viewport, which
// lets a large viewport be rendered in tiles into a smaller image.
type Viewport struct {
	Width, Height    int
	OffsetX, OffsetY int
}

// Validate checks the viewport size.
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.Width > MaxViewportSize || v.Height > MaxViewportSize {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	return nil
}

// Aspect returns width / height.
func (v Viewport) Aspect() float32 {
	return float32(v.Width) / float32(v.Height)
}

// Perspective describes a symmetric perspective projection. FovY is the
// vertical field of view in degrees.
type Perspective struct {
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

// Validate rejects projections that cannot map the view volume.
func (p Perspective) Validate() error {
	switch {
	case !(p.FovY > 0 && p.FovY < 180):
		return fmt.Errorf("%w: fov %v", ErrDegenerateProjection, p.FovY)
	case !(p.Aspect > 0) || math32.IsInf(p.Aspect, 0):
		return fmt.Errorf("%w: aspect %v", ErrDegenerateProjection, p.Aspect)
	case !(p.Near > 0) || !(p.Near < p.Far) || math32.IsInf(p.Far, 0):
		return fmt.Errorf("%w: near %v far %v", ErrDegenerateProjection, p.Near, p.Far)
	}
	return nil
}

// Matrix returns the projection matrix.
func (p Perspective) Matrix() math3d.Mat4 {
	return math3d.Perspective(p.FovY*math32.Pi/180, p.Aspect, p.Near, p.Far)
}

// Ortho describes an orthographic projection of the box
// [Left, Right] x [Bottom, Top] x [-Near, -Far] in view space.
type Ortho struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

// Validate rejects empty boxes.
func (o Ortho) Validate() error {
	if o.Left == o.Right || o.Bottom == o.Top || !(o.Near < o.Far) {
		return fmt.Errorf("%w: ortho box %+v", ErrDegenerateProjection, o)
	}
	return nil
}

// Matrix returns the projection matrix.
func (o Ortho) Matrix() math3d.Mat4 {
	return math3d.Orthographic(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
}

// projectionState is everything the pipeline derives from the projection.
type projectionState struct {
	m         math3d.Mat4
	ortho     bool
	near, far float32
	// mirrored is set when the projection flips handedness in x and y,
	// for example an ortho box with Bottom > Top.
	mirrored bool
}

// newProjectionState recovers near and far from a GL style projection
// matrix and validates them.
func newProjectionState(m math3d.Mat4, ortho bool) (projectionState, error) {
	ps := projectionState{m: m, ortho: ortho}
	if ortho {
		if m[10] == 0 || m[11] != 0 || m[15] == 0 {
			return ps, fmt.Errorf("%w: not an orthographic matrix", ErrDegenerateProjection)
		}
		ps.near = (m[14] + 1) / m[10]
		ps.far = (m[14] - 1) / m[10]
		if !(ps.near < ps.far) {
			return ps, fmt.Errorf("%w: near %v far %v", ErrDegenerateProjection, ps.near, ps.far)
		}
	} else {
		if m[11] != -1 || m[15] != 0 || m[10] == 1 || m[10] == -1 {
			return ps, fmt.Errorf("%w: not a perspective matrix", ErrDegenerateProjection)
		}
		ps.near = m[14] / (m[10] - 1)
		ps.far = m[14] / (m[10] + 1)
		if !(ps.near > 0 && ps.near < ps.far) {
			return ps, fmt.Errorf("%w: near %v far %v", ErrDegenerateProjection, ps.near, ps.far)
		}
	}
	if m[0] == 0 || m[5] == 0 {
		return ps, fmt.Errorf("%w: zero scale", ErrDegenerateProjection)
	}
	ps.mirrored = m[0]*m[5]-m[4]*m[1] < 0
	return ps, nil
}
