package video

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/internal/logger"
)

func TestPoolGetRelease(t *testing.T) {
	pool, err := NewFramePool(1<<20, 4, nil)
	require.NoError(t, err)

	f, err := pool.Get(FormatYUV420P, 64, 64)
	require.NoError(t, err)

	stats := pool.Stats()
	assert.Positive(t, stats.BytesInUse)

	f.Release()
	stats = pool.Stats()
	assert.Zero(t, stats.BytesInUse)
	assert.Equal(t, 1, stats.FreeSlabs)
}

func TestPoolReusesSlabs(t *testing.T) {
	pool, err := NewFramePool(1<<20, 4, nil)
	require.NoError(t, err)

	f, err := pool.Get(FormatGray8, 64, 64)
	require.NoError(t, err)
	f.Planes[0].Data[0] = 7
	f.Release()

	// A reused slab comes back zeroed.
	g, err := pool.Get(FormatGray8, 64, 64)
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, byte(0), g.Planes[0].Data[0])
	assert.Zero(t, pool.Stats().FreeSlabs)
}

func TestPoolBudgetExhausted(t *testing.T) {
	pool, err := NewFramePool(1024, 4, nil)
	require.NoError(t, err)

	_, err = pool.Get(FormatYUV444P, 640, 480)
	require.Error(t, err)

	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeResource, appErr.Type)
}

func TestPoolBudgetFreedByRelease(t *testing.T) {
	pool, err := NewFramePool(8192, 4, nil)
	require.NoError(t, err)

	f, err := pool.Get(FormatGray8, 64, 64) // 4096 bytes
	require.NoError(t, err)

	_, err = pool.Get(FormatGray8, 80, 64) // would exceed 8192
	require.Error(t, err)

	f.Release()

	g, err := pool.Get(FormatGray8, 80, 64)
	require.NoError(t, err)
	g.Release()
}

func TestPoolCloneHoldsBudget(t *testing.T) {
	pool, err := NewFramePool(1<<20, 4, nil)
	require.NoError(t, err)

	f, err := pool.Get(FormatGray8, 32, 32)
	require.NoError(t, err)

	c := f.Clone()
	f.Release()

	// Storage is still out while the clone lives.
	assert.Positive(t, pool.Stats().BytesInUse)

	c.Release()
	assert.Zero(t, pool.Stats().BytesInUse)
}

func TestNewFramePool_InvalidBudget(t *testing.T) {
	_, err := NewFramePool(0, 4, nil)
	assert.Error(t, err)
}

func TestPoolLogsBudgetExhaustion(t *testing.T) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.JSONFormatter{})

	pool, err := NewFramePool(4096, 4, logger.NewLogrusAdapter(logrus.NewEntry(base)))
	require.NoError(t, err)

	f, err := pool.Get(FormatGray8, 64, 64)
	require.NoError(t, err)
	defer f.Release()
	assert.Contains(t, buf.String(), "Allocated frame slab")

	buf.Reset()
	_, err = pool.Get(FormatGray8, 64, 64)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "Frame pool budget exhausted")
	assert.Contains(t, buf.String(), "bytes_in_use")
}
