package dedup

import (
	"fmt"
	"sync/atomic"

	"github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/internal/logger"
	"github.com/zsiec/stillkeep/internal/metrics"
	"github.com/zsiec/stillkeep/internal/video"
)

// Options holds the duplicate-run detection thresholds.
type Options struct {
	// MinDupCount is the run length a frame's duplicates must reach
	// before the frame is kept.
	MinDupCount int
	// Hi is the block difference above which a single block alone
	// proves the frame changed.
	Hi int
	// Lo is the block difference above which a block counts toward the
	// changed-block fraction.
	Lo int
	// Frac is the fraction of sampled blocks allowed above Lo before a
	// plane counts as changed.
	Frac float64
}

// DefaultOptions returns the classic decimation thresholds.
func DefaultOptions() Options {
	return Options{
		MinDupCount: 10,
		Hi:          64 * 12,
		Lo:          64 * 5,
		Frac:        0.33,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MinDupCount < 0 {
		return errors.NewValidationError(fmt.Sprintf("min_dup_count cannot be negative: %d", o.MinDupCount))
	}
	if o.Frac < 0 || o.Frac > 1 {
		return errors.NewValidationError(fmt.Sprintf("frac must be in [0,1]: %f", o.Frac))
	}
	return nil
}

// Filter collapses runs of near-identical frames: it watches a stream
// frame by frame and emits one representative per duplicate run once
// the run reaches MinDupCount. The filter retains at most one frame
// (the reference) between calls and is not safe for concurrent use;
// run one Filter per stream.
type Filter struct {
	streamID string
	opts     Options
	sad      sadFn
	logger   logger.Logger

	hsub, vsub int
	negotiated bool

	dupCount atomic.Int64
	ref      *video.Frame
	closed   bool

	framesProcessed atomic.Uint64
	framesEmitted   atomic.Uint64
	duplicateRuns   atomic.Uint64
}

// New creates a filter. Fails with a configuration error when the
// block comparator cannot be built and a validation error for
// out-of-range options.
func New(streamID string, opts Options, log logger.Logger) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNullLogger()
	}

	// 8x8 blocks, origins not aligned on block size
	sad, err := newSADFn(3, 3)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"stream_id":     streamID,
		"min_dup_count": opts.MinDupCount,
		"hi":            opts.Hi,
		"lo":            opts.Lo,
		"frac":          opts.Frac,
	}).Debug("Duplicate-run filter created")

	return &Filter{
		streamID: streamID,
		opts:     opts,
		sad:      sad,
		logger:   log,
	}, nil
}

// Negotiate records the stream's chroma subsampling factors. It must
// be called exactly once, before the first frame is processed.
func (f *Filter) Negotiate(hsub, vsub int) error {
	if f.negotiated {
		return errors.NewFormatError("subsampling already negotiated")
	}
	if hsub < 0 || hsub > 2 || vsub < 0 || vsub > 2 {
		return errors.NewFormatError(fmt.Sprintf("subsampling factors out of range: %d/%d", hsub, vsub))
	}

	f.hsub = hsub
	f.vsub = vsub
	f.negotiated = true
	return nil
}

// Process runs one step of the duplicate-run state machine. It takes
// ownership of cur on success: the caller must not use the handle
// afterwards. The returned frame, when non-nil, is an independently
// owned clone the caller must release. On error the filter state is
// untouched and cur remains owned by the caller.
func (f *Filter) Process(cur *video.Frame) (*video.Frame, error) {
	if f.closed {
		return nil, errors.NewInternalError("process on closed filter")
	}
	if !f.negotiated {
		return nil, errors.NewFormatError("subsampling not negotiated")
	}
	if cur == nil || !cur.Valid() {
		return nil, errors.NewFormatError("invalid frame handle")
	}
	if f.ref != nil {
		if cur.Width != f.ref.Width || cur.Height != f.ref.Height || len(cur.Planes) != len(f.ref.Planes) {
			return nil, errors.NewFormatError(fmt.Sprintf(
				"frame geometry %dx%d/%d planes does not match reference %dx%d/%d planes",
				cur.Width, cur.Height, len(cur.Planes),
				f.ref.Width, f.ref.Height, len(f.ref.Planes)))
		}
	}

	if f.ref != nil && f.frameDiffers(cur, f.ref) {
		run := f.dupCount.Load()
		metrics.RecordDuplicateRun(f.streamID, int(run))
		f.duplicateRuns.Add(1)
		f.dupCount.Store(0)
	} else {
		f.dupCount.Add(1)
	}

	dupCount := f.dupCount.Load()
	keep := dupCount == int64(f.opts.MinDupCount)

	f.logger.WithFields(map[string]interface{}{
		"decision":  decision(keep),
		"pts":       cur.PTS,
		"dup_count": dupCount,
	}).Debug("Frame classified")

	var out *video.Frame
	if keep {
		out = cur.Clone()
		f.framesEmitted.Add(1)
		metrics.IncrementFramesEmitted(f.streamID)
	}

	// Reference update is last so a failure above never leaves a
	// partially updated state.
	if f.ref != nil {
		f.ref.Release()
	}
	f.ref = cur.Clone()
	cur.Release()

	f.framesProcessed.Add(1)
	metrics.IncrementFramesProcessed(f.streamID)

	return out, nil
}

// Close releases the retained reference frame. Idempotent.
func (f *Filter) Close() {
	if f.ref != nil {
		f.ref.Release()
		f.ref = nil
	}
	f.closed = true
}

func decision(keep bool) string {
	if keep {
		return "keep"
	}
	return "drop"
}

// Stats is a snapshot of filter activity.
type Stats struct {
	FramesProcessed uint64 `json:"frames_processed"`
	FramesEmitted   uint64 `json:"frames_emitted"`
	DuplicateRuns   uint64 `json:"duplicate_runs"`
	DupCount        int64  `json:"dup_count"`
}

// Stats returns counters safe to read while the filter is processing.
func (f *Filter) Stats() Stats {
	return Stats{
		FramesProcessed: f.framesProcessed.Load(),
		FramesEmitted:   f.framesEmitted.Load(),
		DuplicateRuns:   f.duplicateRuns.Load(),
		DupCount:        f.dupCount.Load(),
	}
}
