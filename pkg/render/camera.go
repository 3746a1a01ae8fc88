package render

import (
	"github.com/chewxy/math32"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// Camera is a position and Euler orientation plus perspective parameters.
// It produces the view matrix and Perspective a Renderer consumes.
type Camera struct {
	Position math3d.Vec3

	// Orientation in radians.
	Pitch float32 // around X, look up/down
	Yaw   float32 // around Y, look left/right
	Roll  float32 // around Z

	// FovY is the vertical field of view in degrees.
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	viewMatrix math3d.Mat4
	viewDirty  bool
}

// NewCamera returns a camera at the origin looking down -Z with a 60 degree
// field of view.
func NewCamera(aspect float32) *Camera {
	return &Camera{
		FovY:      60,
		Aspect:    aspect,
		Near:      0.1,
		Far:       100,
		viewDirty: true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetRotation sets pitch, yaw and roll in radians.
func (c *Camera) SetRotation(pitch, yaw, roll float32) {
	c.Pitch, c.Yaw, c.Roll = pitch, yaw, roll
	c.viewDirty = true
}

// Forward returns the viewing direction.
func (c *Camera) Forward() math3d.Vec3 {
	sy, cy := math32.Sincos(c.Yaw)
	sp, cp := math32.Sincos(c.Pitch)
	return math3d.V3(-sy*cp, sp, -cy*cp)
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	sy, cy := math32.Sincos(c.Yaw)
	return math3d.V3(cy, 0, -sy)
}

// Up returns the up direction vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.Forward())
}

// ViewMatrix returns the world to view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		// View = R(-roll) * R(-pitch) * R(-yaw) * T(-position)
		rot := math3d.RotateZ(-c.Roll).Mul(math3d.RotateX(-c.Pitch)).Mul(math3d.RotateY(-c.Yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
	}
	return c.viewMatrix
}

// Perspective returns the projection parameters.
func (c *Camera) Perspective() Perspective {
	return Perspective{FovY: c.FovY, Aspect: c.Aspect, Near: c.Near, Far: c.Far}
}

// MoveForward moves the camera along its viewing direction.
func (c *Camera) MoveForward(distance float32) {
	c.Position = c.Position.Add(c.Forward().Scale(distance))
	c.viewDirty = true
}

// MoveRight moves the camera sideways.
func (c *Camera) MoveRight(distance float32) {
	c.Position = c.Position.Add(c.Right().Scale(distance))
	c.viewDirty = true
}

// Rotate turns the camera by the given angles in radians. Pitch is clamped
// short of straight up or down.
func (c *Camera) Rotate(deltaPitch, deltaYaw, deltaRoll float32) {
	c.Pitch += deltaPitch
	c.Yaw += deltaYaw
	c.Roll += deltaRoll

	const maxPitch = math32.Pi/2 - 0.01
	c.Pitch = min(max(c.Pitch, -maxPitch), maxPitch)
	c.viewDirty = true
}

// LookAt turns the camera toward target.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math32.Asin(dir.Y)
	c.Yaw = math32.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
	c.viewDirty = true
}

// Orbit places the camera at distance from target, at the given yaw and
// pitch around it, looking at the target.
func (c *Camera) Orbit(target math3d.Vec3, distance, yaw, pitch float32) {
	sy, cy := math32.Sincos(yaw)
	sp, cp := math32.Sincos(pitch)
	c.Position = target.Add(math3d.V3(sy*cp, sp, cy*cp).Scale(distance))
	c.LookAt(target)
}

// Frustum returns the world-space view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.Perspective().Matrix().Mul(c.ViewMatrix()))
}
