package video

import (
	"fmt"
	"sync"

	"github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/internal/logger"
	"github.com/zsiec/stillkeep/internal/metrics"
)

// FramePool hands out frames backed by reusable storage slabs under a
// total memory budget. Acquisition beyond the budget fails instead of
// growing without bound.
type FramePool struct {
	maxTotal int64
	logger   logger.Logger

	mu      sync.Mutex
	inUse   int64
	free    [][]byte
	maxFree int
}

// NewFramePool creates a pool with the given total byte budget and
// free-list capacity.
func NewFramePool(maxTotal int64, freeListSize int, log logger.Logger) (*FramePool, error) {
	if maxTotal <= 0 {
		return nil, fmt.Errorf("pool budget must be positive, got %d", maxTotal)
	}
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &FramePool{
		maxTotal: maxTotal,
		logger:   log,
		free:     make([][]byte, 0, freeListSize),
		maxFree:  freeListSize,
	}, nil
}

// Get returns a frame of the requested geometry, reusing a free slab
// when one is large enough. Fails with a resource error when the
// budget is exhausted.
func (p *FramePool) Get(format PixelFormat, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewFormatError(fmt.Sprintf("invalid frame dimensions %dx%d", width, height))
	}
	if format.PlaneCount < 1 || format.PlaneCount > 4 {
		return nil, errors.NewFormatError(fmt.Sprintf("invalid plane count %d", format.PlaneCount))
	}

	size := frameLayoutSize(format, width, height)

	p.mu.Lock()
	if p.inUse+size > p.maxTotal {
		inUse := p.inUse
		p.mu.Unlock()
		p.logger.WithFields(map[string]interface{}{
			"bytes_in_use":    inUse,
			"bytes_requested": size,
			"bytes_max":       p.maxTotal,
		}).Warn("Frame pool budget exhausted")
		return nil, errors.NewResourceError(
			fmt.Sprintf("frame pool budget exhausted: %d in use, %d requested, %d max", inUse, size, p.maxTotal))
	}

	var storage []byte
	for i := len(p.free) - 1; i >= 0; i-- {
		if int64(cap(p.free[i])) >= size {
			storage = p.free[i][:size]
			p.free = append(p.free[:i], p.free[i+1:]...)
			break
		}
	}
	p.inUse += size
	p.mu.Unlock()

	if storage == nil {
		storage = make([]byte, size)
		metrics.IncrementPoolAllocations()
		p.logger.WithFields(map[string]interface{}{
			"bytes":  size,
			"format": format.Name,
		}).Debug("Allocated frame slab")
	} else {
		clear(storage)
	}
	metrics.AddPoolBytesInUse(size)

	buf := &frameBuffer{
		storage: storage,
		size:    size,
		pool:    p,
	}
	buf.refs.Store(1)

	return newFrameAround(buf, format, width, height), nil
}

// recycle returns storage of a fully released frame to the free list.
func (p *FramePool) recycle(buf *frameBuffer) {
	p.mu.Lock()
	p.inUse -= buf.size
	if len(p.free) < p.maxFree {
		p.free = append(p.free, buf.storage)
	}
	p.mu.Unlock()

	metrics.AddPoolBytesInUse(-buf.size)
}

// Stats reports current pool usage.
func (p *FramePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		BytesInUse: p.inUse,
		BytesMax:   p.maxTotal,
		FreeSlabs:  len(p.free),
	}
}

// PoolStats holds frame pool statistics.
type PoolStats struct {
	BytesInUse int64 `json:"bytes_in_use"`
	BytesMax   int64 `json:"bytes_max"`
	FreeSlabs  int   `json:"free_slabs"`
}
