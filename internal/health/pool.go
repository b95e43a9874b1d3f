package health

import (
	"context"
	"fmt"

	"github.com/zsiec/stillkeep/internal/video"
)

// PoolChecker reports frame pool budget headroom. The pool is degraded
// above the warning fraction and down when fully exhausted.
type PoolChecker struct {
	pool         *video.FramePool
	warnFraction float64
}

// NewPoolChecker creates a checker over the given frame pool.
func NewPoolChecker(pool *video.FramePool, warnFraction float64) *PoolChecker {
	if warnFraction <= 0 || warnFraction > 1 {
		warnFraction = 0.9
	}
	return &PoolChecker{pool: pool, warnFraction: warnFraction}
}

// Name returns the checker name.
func (c *PoolChecker) Name() string {
	return "frame_pool"
}

// Check reports pool usage against the budget.
func (c *PoolChecker) Check(ctx context.Context) *Check {
	stats := c.pool.Stats()
	used := float64(stats.BytesInUse) / float64(stats.BytesMax)

	check := &Check{
		Status: StatusOK,
		Details: map[string]interface{}{
			"bytes_in_use": stats.BytesInUse,
			"bytes_max":    stats.BytesMax,
			"free_slabs":   stats.FreeSlabs,
		},
	}

	switch {
	case stats.BytesInUse >= stats.BytesMax:
		check.Status = StatusDown
		check.Message = "frame pool budget exhausted"
	case used >= c.warnFraction:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("frame pool %.0f%% used", used*100)
	}

	return check
}
