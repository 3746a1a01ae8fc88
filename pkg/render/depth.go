package render

import "github.com/chewxy/math32"

// Depth is the element type of a depth surface. Larger values are nearer;
// a surface cleared to zero is infinitely far away.
type Depth interface {
	~float32 | ~uint16
}

// depthMap turns a depth key (1/w, or (1-z)/2 for orthographic) into the
// value stored in the depth surface.
type depthMap struct {
	scale, bias float32
	max         float32
}

// isFloatDepth reports whether D keeps fractional values.
func isFloatDepth[D Depth]() bool {
	half := float32(0.5)
	return D(half) != 0
}

// newDepthMap returns the key mapping for D. Float surfaces store the key
// as is; uint16 surfaces map the far plane to 0 and the near plane to
// 65535.
func newDepthMap[D Depth](ps projectionState) depthMap {
	if isFloatDepth[D]() {
		return depthMap{scale: 1, max: math32.Inf(1)}
	}
	const top = 65535
	if ps.ortho {
		return depthMap{scale: top, max: top}
	}
	s := top / (1/ps.near - 1/ps.far)
	return depthMap{scale: s, bias: -s / ps.far, max: top}
}

func (m *depthMap) value(q float32) float32 {
	z := q*m.scale + m.bias
	if z < 0 {
		return 0
	}
	if z > m.max {
		return m.max
	}
	return z
}

// lineVisible reports whether a line pixel with stored value z shows over
// the stored depth. Lines coincide with the edges of their own filled
// surfaces, so equal depth passes with a small tolerance.
func (m *depthMap) lineVisible(stored, z float32) bool {
	if m.max == 65535 {
		return stored <= z+2
	}
	return stored <= z*1.001
}
