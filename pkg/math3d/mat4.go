package math3d

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix stored in column-major order, applied as v' = M * v.
//
// Memory layout (indices):
// | 0  4  8  12 |
// | 1  5  9  13 |
// | 2  6  10 14 |
// | 3  7  11 15 |
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// ScaleUniform creates a uniform scaling matrix.
func ScaleUniform(s float32) Mat4 {
	return Scale(V3(s, s, s))
}

// RotateX creates a rotation of angle radians around the X axis.
func RotateX(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation of angle radians around the Y axis.
func RotateY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation of angle radians around the Z axis.
func RotateZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Rotate creates a rotation of angle radians around an arbitrary axis.
func Rotate(axis Vec3, angle float32) Mat4 {
	a := axis.Normalize()
	s, c := math32.Sincos(angle)
	k := 1 - c
	return Mat4{
		k*a.X*a.X + c, k*a.X*a.Y + s*a.Z, k*a.X*a.Z - s*a.Y, 0,
		k*a.X*a.Y - s*a.Z, k*a.Y*a.Y + c, k*a.Y*a.Z + s*a.X, 0,
		k*a.X*a.Z + s*a.Y, k*a.Y*a.Z - s*a.X, k*a.Z*a.Z + c, 0,
		0, 0, 0, 1,
	}
}

// LookAt creates a view matrix for a camera at eye looking at center.
// The camera looks down its local -Z axis.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective creates a perspective projection. fovy is the vertical field
// of view in radians. A view-space point at z = -near gets clip w = near.
func Perspective(fovy, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovy/2)
	nf := 1 / (near - far)

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) * nf
	m[11] = -1
	m[14] = 2 * far * near * nf
	return m
}

// Frustum creates a perspective projection from the near-plane rectangle.
func Frustum(left, right, bottom, top, near, far float32) Mat4 {
	var m Mat4
	m[0] = 2 * near / (right - left)
	m[5] = 2 * near / (top - bottom)
	m[8] = (right + left) / (right - left)
	m[9] = (top + bottom) / (top - bottom)
	m[10] = -(far + near) / (far - near)
	m[11] = -1
	m[14] = -2 * far * near / (far - near)
	return m
}

// Orthographic creates an orthographic projection.
func Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	rl := 1 / (right - left)
	tb := 1 / (top - bottom)
	fn := 1 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Mul returns a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			m[col*4+row] = a[row]*b[col*4] +
				a[4+row]*b[col*4+1] +
				a[8+row]*b[col*4+2] +
				a[12+row]*b[col*4+3]
		}
	}
	return m
}

// Translated returns m * Translate(v), so the translation applies first.
func (m Mat4) Translated(v Vec3) Mat4 {
	return m.Mul(Translate(v))
}

// Scaled returns m * Scale(v).
func (m Mat4) Scaled(v Vec3) Mat4 {
	return m.Mul(Scale(v))
}

// Rotated returns m * Rotate(axis, angle).
func (m Mat4) Rotated(axis Vec3, angle float32) Mat4 {
	return m.Mul(Rotate(axis, angle))
}

// MulVec3 transforms v as a point (w = 1), dividing by the resulting w
// when it is not zero.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	r := m.MulVec4(Vec4{v.X, v.Y, v.Z, 1})
	if r.W == 0 || r.W == 1 {
		return r.Vec3()
	}
	return r.PerspectiveDivide()
}

// MulVec3Dir transforms v as a direction (w = 0).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for col := range 4 {
		for row := range 4 {
			t[row*4+col] = m[col*4+row]
		}
	}
	return t
}

// minors returns the 2x2 sub-determinants of the top two and bottom two
// rows used by Determinant and Inverse.
func (m Mat4) minors() (s, c [6]float32) {
	a := func(r, col int) float32 { return m[col*4+r] }

	s[0] = a(0, 0)*a(1, 1) - a(1, 0)*a(0, 1)
	s[1] = a(0, 0)*a(1, 2) - a(1, 0)*a(0, 2)
	s[2] = a(0, 0)*a(1, 3) - a(1, 0)*a(0, 3)
	s[3] = a(0, 1)*a(1, 2) - a(1, 1)*a(0, 2)
	s[4] = a(0, 1)*a(1, 3) - a(1, 1)*a(0, 3)
	s[5] = a(0, 2)*a(1, 3) - a(1, 2)*a(0, 3)

	c[0] = a(2, 0)*a(3, 1) - a(3, 0)*a(2, 1)
	c[1] = a(2, 0)*a(3, 2) - a(3, 0)*a(2, 2)
	c[2] = a(2, 0)*a(3, 3) - a(3, 0)*a(2, 3)
	c[3] = a(2, 1)*a(3, 2) - a(3, 1)*a(2, 2)
	c[4] = a(2, 1)*a(3, 3) - a(3, 1)*a(2, 3)
	c[5] = a(2, 2)*a(3, 3) - a(3, 2)*a(2, 3)
	return s, c
}

// Determinant returns the determinant of the matrix.
func (m Mat4) Determinant() float32 {
	s, c := m.minors()
	return s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0]
}

// Inverse returns the inverse of the matrix. ok is false when the matrix
// is singular, in which case the identity is returned.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	s, c := m.minors()
	det := s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0]
	if det == 0 {
		return Identity(), false
	}
	id := 1 / det
	a := func(r, col int) float32 { return m[col*4+r] }
	set := func(r, col int, v float32) { inv[col*4+r] = v * id }

	set(0, 0, a(1, 1)*c[5]-a(1, 2)*c[4]+a(1, 3)*c[3])
	set(0, 1, -a(0, 1)*c[5]+a(0, 2)*c[4]-a(0, 3)*c[3])
	set(0, 2, a(3, 1)*s[5]-a(3, 2)*s[4]+a(3, 3)*s[3])
	set(0, 3, -a(2, 1)*s[5]+a(2, 2)*s[4]-a(2, 3)*s[3])

	set(1, 0, -a(1, 0)*c[5]+a(1, 2)*c[2]-a(1, 3)*c[1])
	set(1, 1, a(0, 0)*c[5]-a(0, 2)*c[2]+a(0, 3)*c[1])
	set(1, 2, -a(3, 0)*s[5]+a(3, 2)*s[2]-a(3, 3)*s[1])
	set(1, 3, a(2, 0)*s[5]-a(2, 2)*s[2]+a(2, 3)*s[1])

	set(2, 0, a(1, 0)*c[4]-a(1, 1)*c[2]+a(1, 3)*c[0])
	set(2, 1, -a(0, 0)*c[4]+a(0, 1)*c[2]-a(0, 3)*c[0])
	set(2, 2, a(3, 0)*s[4]-a(3, 1)*s[2]+a(3, 3)*s[0])
	set(2, 3, -a(2, 0)*s[4]+a(2, 1)*s[2]-a(2, 3)*s[0])

	set(3, 0, -a(1, 0)*c[3]+a(1, 1)*c[1]-a(1, 2)*c[0])
	set(3, 1, a(0, 0)*c[3]-a(0, 1)*c[1]+a(0, 2)*c[0])
	set(3, 2, -a(3, 0)*s[3]+a(3, 1)*s[1]-a(3, 2)*s[0])
	set(3, 3, a(2, 0)*s[3]-a(2, 1)*s[1]+a(2, 2)*s[0])

	return inv, true
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 block,
// embedded in an otherwise identity matrix. Use it with MulVec3Dir to
// transform normals under non-uniform scale. ok is false when the upper
// 3x3 block is singular.
func (m Mat4) NormalMatrix() (n Mat4, ok bool) {
	a := func(r, col int) float32 { return m[col*4+r] }

	c00 := a(1, 1)*a(2, 2) - a(1, 2)*a(2, 1)
	c01 := a(1, 2)*a(2, 0) - a(1, 0)*a(2, 2)
	c02 := a(1, 0)*a(2, 1) - a(1, 1)*a(2, 0)
	det := a(0, 0)*c00 + a(0, 1)*c01 + a(0, 2)*c02
	if det == 0 {
		return Identity(), false
	}
	id := 1 / det

	n = Identity()
	set := func(r, col int, v float32) { n[col*4+r] = v * id }
	set(0, 0, c00)
	set(0, 1, c01)
	set(0, 2, c02)
	set(1, 0, a(0, 2)*a(2, 1)-a(0, 1)*a(2, 2))
	set(1, 1, a(0, 0)*a(2, 2)-a(0, 2)*a(2, 0))
	set(1, 2, a(0, 1)*a(2, 0)-a(0, 0)*a(2, 1))
	set(2, 0, a(0, 1)*a(1, 2)-a(0, 2)*a(1, 1))
	set(2, 1, a(0, 2)*a(1, 0)-a(0, 0)*a(1, 2))
	set(2, 2, a(0, 0)*a(1, 1)-a(0, 1)*a(1, 0))
	return n, true
}

// IsRigid reports whether the upper 3x3 block is a rotation times a
// uniform scale, within relative tolerance eps. For such matrices normals
// can be transformed by the matrix itself and renormalized.
func (m Mat4) IsRigid(eps float32) bool {
	c0 := Vec3{m[0], m[1], m[2]}
	c1 := Vec3{m[4], m[5], m[6]}
	c2 := Vec3{m[8], m[9], m[10]}
	l := c0.LenSq()
	if l == 0 {
		return false
	}
	tol := eps * l
	return math32.Abs(c1.LenSq()-l) <= tol &&
		math32.Abs(c2.LenSq()-l) <= tol &&
		math32.Abs(c0.Dot(c1)) <= tol &&
		math32.Abs(c0.Dot(c2)) <= tol &&
		math32.Abs(c1.Dot(c2)) <= tol
}

// Get returns the element at (row, col).
func (m Mat4) Get(row, col int) float32 {
	return m[row+col*4]
}

// Set sets the element at (row, col).
func (m *Mat4) Set(row, col int, val float32) {
	m[row+col*4] = val
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// SetTranslation sets the translation component.
func (m *Mat4) SetTranslation(v Vec3) {
	m[12], m[13], m[14] = v.X, v.Y, v.Z
}
