package video

import (
	"fmt"
	"sync/atomic"
)

// Plane is one channel of a frame: a 2D raster with a row stride that
// may exceed the sample width for alignment padding.
type Plane struct {
	Data   []byte
	Stride int
}

// Frame is an 8-bit planar video frame. Sample storage is reference
// counted: Clone returns a new handle sharing the same immutable
// storage, Release drops one reference and recycles the storage once
// the last handle is gone. Each handle has exactly one owner; using a
// handle after releasing it is a programming error.
type Frame struct {
	StreamID string
	Format   PixelFormat
	Width    int
	Height   int
	PTS      int64
	Planes   []Plane

	buf *frameBuffer
}

// frameBuffer is the shared, refcounted backing storage of a frame.
type frameBuffer struct {
	refs    atomic.Int32
	storage []byte
	size    int64
	pool    *FramePool // nil for heap-backed frames
}

// strideAlign pads plane rows to a 16-byte boundary so strides differ
// from widths on most geometries.
const strideAlign = 16

func alignStride(w int) int {
	return (w + strideAlign - 1) &^ (strideAlign - 1)
}

// frameLayoutSize returns the total storage needed for all planes.
func frameLayoutSize(format PixelFormat, width, height int) int64 {
	total := int64(0)
	for i := 0; i < format.PlaneCount; i++ {
		pw, ph := format.PlaneDimensions(i, width, height)
		total += int64(alignStride(pw)) * int64(ph)
	}
	return total
}

// NewFrame allocates a heap-backed frame. Pool-backed frames come from
// FramePool.Get instead.
func NewFrame(format PixelFormat, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if format.PlaneCount < 1 || format.PlaneCount > 4 {
		return nil, fmt.Errorf("invalid plane count %d", format.PlaneCount)
	}

	size := frameLayoutSize(format, width, height)
	buf := &frameBuffer{
		storage: make([]byte, size),
		size:    size,
	}
	buf.refs.Store(1)

	return newFrameAround(buf, format, width, height), nil
}

// newFrameAround slices a frame's planes out of backing storage.
func newFrameAround(buf *frameBuffer, format PixelFormat, width, height int) *Frame {
	f := &Frame{
		Format: format,
		Width:  width,
		Height: height,
		Planes: make([]Plane, format.PlaneCount),
		buf:    buf,
	}

	off := 0
	for i := 0; i < format.PlaneCount; i++ {
		pw, ph := format.PlaneDimensions(i, width, height)
		stride := alignStride(pw)
		n := stride * ph
		f.Planes[i] = Plane{
			Data:   buf.storage[off : off+n : off+n],
			Stride: stride,
		}
		off += n
	}

	return f
}

// Clone returns a new independently owned handle to the same sample
// data. The clone must be released separately.
func (f *Frame) Clone() *Frame {
	if f.buf == nil || f.buf.refs.Load() <= 0 {
		panic("video: Clone of released frame")
	}
	f.buf.refs.Add(1)

	clone := *f
	clone.Planes = make([]Plane, len(f.Planes))
	copy(clone.Planes, f.Planes)
	return &clone
}

// Release drops this handle's ownership. The last release recycles the
// backing storage. Releasing the same handle twice panics.
func (f *Frame) Release() {
	if f.buf == nil {
		panic("video: Release of released frame")
	}
	buf := f.buf
	f.buf = nil
	f.Planes = nil

	if n := buf.refs.Add(-1); n == 0 {
		if buf.pool != nil {
			buf.pool.recycle(buf)
		}
	} else if n < 0 {
		panic("video: Release of released frame storage")
	}
}

// Valid reports whether this handle still owns its storage.
func (f *Frame) Valid() bool {
	return f.buf != nil
}

// Refs returns the current reference count of the backing storage.
func (f *Frame) Refs() int {
	if f.buf == nil {
		return 0
	}
	return int(f.buf.refs.Load())
}

// SamplesEqual reports whether two frames carry bit-identical sample
// data over their visible regions (padding excluded).
func SamplesEqual(a, b *Frame) bool {
	if a.Width != b.Width || a.Height != b.Height || len(a.Planes) != len(b.Planes) {
		return false
	}
	for i := range a.Planes {
		pw, ph := a.Format.PlaneDimensions(i, a.Width, a.Height)
		for y := 0; y < ph; y++ {
			arow := a.Planes[i].Data[y*a.Planes[i].Stride : y*a.Planes[i].Stride+pw]
			brow := b.Planes[i].Data[y*b.Planes[i].Stride : y*b.Planes[i].Stride+pw]
			for x := 0; x < pw; x++ {
				if arow[x] != brow[x] {
					return false
				}
			}
		}
	}
	return true
}
