package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame_Layout(t *testing.T) {
	f, err := NewFrame(FormatYUV420P, 100, 50)
	require.NoError(t, err)
	defer f.Release()

	require.Len(t, f.Planes, 3)

	// Luma: stride padded beyond width.
	assert.GreaterOrEqual(t, f.Planes[0].Stride, 100)
	assert.Equal(t, f.Planes[0].Stride*50, len(f.Planes[0].Data))

	// Chroma: half size each way.
	assert.GreaterOrEqual(t, f.Planes[1].Stride, 50)
	assert.Equal(t, f.Planes[1].Stride*25, len(f.Planes[1].Data))
}

func TestNewFrame_Invalid(t *testing.T) {
	_, err := NewFrame(FormatYUV420P, 0, 50)
	assert.Error(t, err)

	_, err = NewFrame(PixelFormat{PlaneCount: 5}, 10, 10)
	assert.Error(t, err)
}

func TestCloneSharesStorage(t *testing.T) {
	f, err := NewFrame(FormatGray8, 32, 32)
	require.NoError(t, err)

	f.Planes[0].Data[0] = 42

	c := f.Clone()
	assert.Equal(t, byte(42), c.Planes[0].Data[0])
	assert.Equal(t, 2, f.Refs())

	f.Release()
	assert.Equal(t, 1, c.Refs())
	assert.False(t, f.Valid())
	assert.True(t, c.Valid())

	c.Release()
	assert.False(t, c.Valid())
}

func TestReleaseTwicePanics(t *testing.T) {
	f, err := NewFrame(FormatGray8, 16, 16)
	require.NoError(t, err)

	f.Release()
	assert.Panics(t, func() { f.Release() })
}

func TestCloneAfterReleasePanics(t *testing.T) {
	f, err := NewFrame(FormatGray8, 16, 16)
	require.NoError(t, err)

	f.Release()
	assert.Panics(t, func() { f.Clone() })
}

func TestSamplesEqual(t *testing.T) {
	a, err := NewFrame(FormatYUV420P, 33, 17)
	require.NoError(t, err)
	defer a.Release()
	b, err := NewFrame(FormatYUV420P, 33, 17)
	require.NoError(t, err)
	defer b.Release()

	assert.True(t, SamplesEqual(a, b))

	// Padding differences are invisible.
	b.Planes[0].Data[b.Planes[0].Stride-1] = 99
	assert.True(t, SamplesEqual(a, b))

	// Visible sample differences are not.
	b.Planes[0].Data[0] = 1
	assert.False(t, SamplesEqual(a, b))

	c, err := NewFrame(FormatYUV420P, 32, 17)
	require.NoError(t, err)
	defer c.Release()
	assert.False(t, SamplesEqual(a, c))
}
