// Package color defines the pixel contract the rasterizer writes through and
// a few concrete pixel formats for LCD panels and host-side output.
package color

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBf is a working color with float channels, nominally in [0, 1].
// Lighting and texture modulation are computed in RGBf and converted to the
// destination pixel format on write.
type RGBf struct {
	R, G, B float32
}

// Common colors.
var (
	Black = RGBf{0, 0, 0}
	White = RGBf{1, 1, 1}
	Red   = RGBf{1, 0, 0}
	Green = RGBf{0, 1, 0}
	Blue  = RGBf{0, 0, 1}
	Gray  = RGBf{0.5, 0.5, 0.5}
)

// Add returns the channel-wise sum.
func (c RGBf) Add(o RGBf) RGBf {
	return RGBf{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns the channel-wise product.
func (c RGBf) Mul(o RGBf) RGBf {
	return RGBf{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Scale multiplies every channel by s.
func (c RGBf) Scale(s float32) RGBf {
	return RGBf{c.R * s, c.G * s, c.B * s}
}

// Clamp limits every channel to [0, 1].
func (c RGBf) Clamp() RGBf {
	return RGBf{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// Lerp interpolates between c and o.
func (c RGBf) Lerp(o RGBf, t float32) RGBf {
	return RGBf{
		c.R + (o.R-c.R)*t,
		c.G + (o.G-c.G)*t,
		c.B + (o.B-c.B)*t,
	}
}

// Bilinear blends four neighbours: c00 and c10 on the top row, c01 and c11
// on the bottom row, ax and ay the fractional offsets.
func Bilinear(c00, c10, c01, c11 RGBf, ax, ay float32) RGBf {
	top := c00.Lerp(c10, ax)
	bot := c01.Lerp(c11, ax)
	return top.Lerp(bot, ay)
}

// Hex parses a "#rrggbb" or "#rgb" string.
func Hex(s string) (RGBf, error) {
	c, err := colorful.Hex(expandShortHex(s))
	if err != nil {
		return RGBf{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return RGBf{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// RGB8 builds an RGBf from 8-bit channels.
func RGB8(r, g, b uint8) RGBf {
	return RGBf{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

func expandShortHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// to8 converts a [0, 1] channel to 0..255 with rounding.
func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
