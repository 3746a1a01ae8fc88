package math3d

import "github.com/chewxy/math32"

// Vec2 is a 2D vector, used mostly for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// V2 creates a new Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{x, y}
}

// Add returns a + b.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns a - b.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns the scalar product.
func (a Vec2) Scale(s float32) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Dot returns the dot product.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a Vec2) Dot(b Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

// Cross returns the z component of the 3D cross product of a and b.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a Vec2) Cross(b Vec2) float32 {
	return a.X*b.Y - a.Y*b.X
}

// Len returns the length.
func (a Vec2) Len() float32 {
	return math32.Sqrt(a.X*a.X + a.Y*a.Y)
}

// Lerp returns linear interpolation between a and b.
//
//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a Vec2) Lerp(b Vec2, t float32) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// IVec2 is an integer 2D vector for pixel and subpixel coordinates.
type IVec2 struct {
	X, Y int32
}

// Add returns a + b.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a IVec2) Add(b IVec2) IVec2 {
	return IVec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns a - b.
//
//nolint:st1016 // a,b naming convention is clearer for vector operations
func (a IVec2) Sub(b IVec2) IVec2 {
	return IVec2{a.X - b.X, a.Y - b.Y}
}
