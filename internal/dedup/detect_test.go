package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zsiec/stillkeep/internal/video"
)

// newTestFilter builds a negotiated filter for detector tests.
func newTestFilter(t *testing.T, opts Options, hsub, vsub int) *Filter {
	t.Helper()
	f, err := New("test", opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Negotiate(hsub, vsub))
	t.Cleanup(f.Close)
	return f
}

func newFilledFrame(t *testing.T, format video.PixelFormat, w, h int, fill byte) *video.Frame {
	t.Helper()
	fr, err := video.NewFrame(format, w, h)
	require.NoError(t, err)
	t.Cleanup(func() {
		if fr.Valid() {
			fr.Release()
		}
	})
	for i := range fr.Planes {
		for j := range fr.Planes[i].Data {
			fr.Planes[i].Data[j] = fill
		}
	}
	return fr
}

func TestFrameDiffers_Identical(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 1, 1)
	cur := newFilledFrame(t, video.FormatYUV420P, 64, 64, 100)
	ref := newFilledFrame(t, video.FormatYUV420P, 64, 64, 100)

	require.False(t, f.frameDiffers(cur, ref))
}

func TestFrameDiffers_LumaChange(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 1, 1)
	cur := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)
	ref := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)

	luma := cur.Planes[0]
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			luma.Data[y*luma.Stride+x] = 255
		}
	}

	require.True(t, f.frameDiffers(cur, ref))
}

func TestFrameDiffers_ChromaChangeUsesSubsampledDims(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 1, 1)
	cur := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)
	ref := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)

	// Chroma planes are 32x32; a maxed 8x8 region inside the sampled
	// grid must be detected.
	u := cur.Planes[1]
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			u.Data[y*u.Stride+x] = 255
		}
	}

	require.True(t, f.frameDiffers(cur, ref))
}

func TestFrameDiffers_AlphaPlaneExamined(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 0, 0)
	cur := newFilledFrame(t, video.FormatYUVA444P, 64, 64, 0)
	ref := newFilledFrame(t, video.FormatYUVA444P, 64, 64, 0)

	alpha := cur.Planes[3]
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			alpha.Data[y*alpha.Stride+x] = 255
		}
	}

	require.True(t, f.frameDiffers(cur, ref))
}

func TestFrameDiffers_MissingPlaneStopsScan(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 0, 0)

	// Hand-built frames: plane 1 is absent, plane 2 carries a change.
	// The scan must stop at the gap and never see plane 2.
	mk := func(fill byte) *video.Frame {
		data := make([]byte, 64*64)
		changed := make([]byte, 64*64)
		for i := range changed {
			changed[i] = fill
		}
		return &video.Frame{
			Width:  64,
			Height: 64,
			Planes: []video.Plane{
				{Data: data, Stride: 64},
				{},
				{Data: changed, Stride: 64},
			},
		}
	}

	cur := mk(255)
	ref := mk(0)

	require.False(t, f.frameDiffers(cur, ref))
}

func TestFrameDiffers_ShortCircuitAcrossPlanes(t *testing.T) {
	f := newTestFilter(t, DefaultOptions(), 1, 1)
	cur := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)
	ref := newFilledFrame(t, video.FormatYUV420P, 64, 64, 0)

	// Change both luma and chroma; classification is the same either
	// way, the luma hit just stops the scan first.
	for i := range cur.Planes {
		p := cur.Planes[i]
		for y := 8; y < 16; y++ {
			for x := 8; x < 16; x++ {
				p.Data[y*p.Stride+x] = 255
			}
		}
	}

	require.True(t, f.frameDiffers(cur, ref))
}
