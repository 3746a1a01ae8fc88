// Package surface provides strided 2D views over caller-owned buffers. The
// same view type carries color planes, depth planes and textures.
package surface

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidSize is returned for non-positive dimensions or a stride
	// smaller than the width.
	ErrInvalidSize = errors.New("surface: invalid size")
	// ErrBufferTooSmall is returned when a buffer cannot hold the view.
	ErrBufferTooSmall = errors.New("surface: buffer too small")
	// ErrOutOfBounds is returned when a sub-view exceeds its parent.
	ErrOutOfBounds = errors.New("surface: rectangle out of bounds")
)

// Image is a view over a rectangular region of a buffer. Row y starts at
// buf[y*stride]. A zero Image is valid and empty.
type Image[T any] struct {
	buf    []T
	stride int
	width  int
	height int
}

// New allocates a tightly packed image.
func New[T any](width, height int) Image[T] {
	if width <= 0 || height <= 0 {
		return Image[T]{}
	}
	return Image[T]{
		buf:    make([]T, width*height),
		stride: width,
		width:  width,
		height: height,
	}
}

// FromBuffer wraps an existing buffer without copying.
func FromBuffer[T any](buf []T, width, height, stride int) (Image[T], error) {
	if width <= 0 || height <= 0 || stride < width {
		return Image[T]{}, fmt.Errorf("%w: %dx%d stride %d", ErrInvalidSize, width, height, stride)
	}
	need := (height-1)*stride + width
	if len(buf) < need {
		return Image[T]{}, fmt.Errorf("%w: have %d, need %d", ErrBufferTooSmall, len(buf), need)
	}
	return Image[T]{buf: buf[:need], stride: stride, width: width, height: height}, nil
}

// Width returns the width in pixels.
func (im Image[T]) Width() int { return im.width }

// Height returns the height in pixels.
func (im Image[T]) Height() int { return im.height }

// Stride returns the distance in elements between two rows.
func (im Image[T]) Stride() int { return im.stride }

// Valid reports whether the image has at least one pixel.
func (im Image[T]) Valid() bool { return im.width > 0 && im.height > 0 }

// Bounds returns the image rectangle anchored at the origin.
func (im Image[T]) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.width, im.height)
}

// Pix returns the backing slice of the view.
func (im Image[T]) Pix() []T { return im.buf }

// Row returns row y, exactly Width elements long.
func (im Image[T]) Row(y int) []T {
	o := y * im.stride
	return im.buf[o : o+im.width : o+im.width]
}

// At returns the pixel at (x, y), or the zero value outside the image.
func (im Image[T]) At(x, y int) T {
	if uint(x) >= uint(im.width) || uint(y) >= uint(im.height) {
		var zero T
		return zero
	}
	return im.buf[y*im.stride+x]
}

// Set writes the pixel at (x, y). Writes outside the image are dropped.
func (im Image[T]) Set(x, y int, v T) {
	if uint(x) >= uint(im.width) || uint(y) >= uint(im.height) {
		return
	}
	im.buf[y*im.stride+x] = v
}

// Fill sets every pixel of the view, leaving stride padding untouched.
func (im Image[T]) Fill(v T) {
	if !im.Valid() {
		return
	}
	first := im.Row(0)
	for i := range first {
		first[i] = v
	}
	for y := 1; y < im.height; y++ {
		copy(im.Row(y), first)
	}
}

// Sub returns a view of r, which must lie inside the image.
func (im Image[T]) Sub(r image.Rectangle) (Image[T], error) {
	if r.Empty() || !r.In(im.Bounds()) {
		return Image[T]{}, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, im.Bounds())
	}
	o := r.Min.Y*im.stride + r.Min.X
	end := (r.Dy()-1)*im.stride + r.Dx()
	return Image[T]{
		buf:    im.buf[o : o+end : o+end],
		stride: im.stride,
		width:  r.Dx(),
		height: r.Dy(),
	}, nil
}

// CopyFrom copies src into the image with its top-left corner at (x, y),
// clipping to both images.
func (im Image[T]) CopyFrom(src Image[T], x, y int) {
	dst := image.Rect(x, y, x+src.width, y+src.height).Intersect(im.Bounds())
	for row := dst.Min.Y; row < dst.Max.Y; row++ {
		s := src.Row(row - y)[dst.Min.X-x : dst.Max.X-x]
		copy(im.Row(row)[dst.Min.X:dst.Max.X], s)
	}
}

// SameLayout reports whether a and b have identical width, height and
// stride, so that one index addresses the same pixel in both.
func SameLayout[A, B any](a Image[A], b Image[B]) bool {
	return a.width == b.width && a.height == b.height && a.stride == b.stride
}
