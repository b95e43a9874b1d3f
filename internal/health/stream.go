package health

import (
	"context"
)

// StreamStats is the subset of pipeline statistics the checker needs.
type StreamStats struct {
	StreamID  string
	FramesIn  uint64
	FramesOut uint64
	Errors    uint64
}

// StatsSource reports per-stream statistics.
type StatsSource interface {
	Streams() []StreamStats
}

// StreamChecker reports processing health across active streams. Any
// stream with errors marks the component degraded.
type StreamChecker struct {
	source StatsSource
}

// NewStreamChecker creates a checker over a stream statistics source.
func NewStreamChecker(source StatsSource) *StreamChecker {
	return &StreamChecker{source: source}
}

// Name returns the checker name.
func (c *StreamChecker) Name() string {
	return "streams"
}

// Check summarizes per-stream counters.
func (c *StreamChecker) Check(ctx context.Context) *Check {
	streams := c.source.Streams()

	var framesIn, framesOut, errCount uint64
	for _, s := range streams {
		framesIn += s.FramesIn
		framesOut += s.FramesOut
		errCount += s.Errors
	}

	check := &Check{
		Status: StatusOK,
		Details: map[string]interface{}{
			"streams":    len(streams),
			"frames_in":  framesIn,
			"frames_out": framesOut,
			"errors":     errCount,
		},
	}

	if errCount > 0 {
		check.Status = StatusDegraded
		check.Message = "one or more streams reported errors"
	}

	return check
}
