package color

// Pixel is the contract a destination or texture pixel type satisfies.
// FromRGBf is called on the zero value, so it must not depend on the
// receiver.
type Pixel[C any] interface {
	comparable
	RGBf() RGBf
	FromRGBf(RGBf) C
}

// From converts an RGBf into any pixel format.
func From[C Pixel[C]](c RGBf) C {
	var zero C
	return zero.FromRGBf(c)
}

// RGB565 is the 16-bit format used by most SPI LCD controllers:
// 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// NewRGB565 packs 8-bit channels.
func NewRGB565(r, g, b uint8) RGB565 {
	return RGB565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBf implements Pixel.
func (c RGB565) RGBf() RGBf {
	return RGBf{
		float32(c>>11) / 31,
		float32((c>>5)&0x3f) / 63,
		float32(c&0x1f) / 31,
	}
}

// FromRGBf implements Pixel.
func (RGB565) FromRGBf(c RGBf) RGB565 {
	r := uint16(clamp01(c.R)*31 + 0.5)
	g := uint16(clamp01(c.G)*63 + 0.5)
	b := uint16(clamp01(c.B)*31 + 0.5)
	return RGB565(r<<11 | g<<5 | b)
}

// RGBA implements image/color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	f := c.RGBf()
	return uint32(to8(f.R)) * 0x101, uint32(to8(f.G)) * 0x101, uint32(to8(f.B)) * 0x101, 0xffff
}

// RGB24 is a packed 8-bit-per-channel color without alpha.
type RGB24 struct {
	R, G, B uint8
}

// RGBf implements Pixel.
func (c RGB24) RGBf() RGBf {
	return RGB8(c.R, c.G, c.B)
}

// FromRGBf implements Pixel.
func (RGB24) FromRGBf(c RGBf) RGB24 {
	return RGB24{to8(c.R), to8(c.G), to8(c.B)}
}

// RGBA implements image/color.Color.
func (c RGB24) RGBA() (r, g, b, a uint32) {
	return uint32(c.R) * 0x101, uint32(c.G) * 0x101, uint32(c.B) * 0x101, 0xffff
}

// RGBA32 is an 8-bit-per-channel color with alpha. The rasterizer always
// writes opaque pixels.
type RGBA32 struct {
	R, G, B, A uint8
}

// RGBf implements Pixel.
func (c RGBA32) RGBf() RGBf {
	return RGB8(c.R, c.G, c.B)
}

// FromRGBf implements Pixel.
func (RGBA32) FromRGBf(c RGBf) RGBA32 {
	return RGBA32{to8(c.R), to8(c.G), to8(c.B), 255}
}

// RGBA implements image/color.Color (non-premultiplied input, so channels
// are scaled by alpha).
func (c RGBA32) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A) * 0x101
	r = uint32(c.R) * 0x101 * a / 0xffff
	g = uint32(c.G) * 0x101 * a / 0xffff
	b = uint32(c.B) * 0x101 * a / 0xffff
	return r, g, b, a
}
