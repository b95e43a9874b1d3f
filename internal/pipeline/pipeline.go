// Package pipeline drives frames from a source through the duplicate
// filter into a sink. Processing is strictly sequential: run detection
// depends on frame order, so a single worker owns the whole path.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zsiec/stillkeep/internal/dedup"
	"github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/internal/logger"
	"github.com/zsiec/stillkeep/internal/metrics"
	"github.com/zsiec/stillkeep/internal/video"
)

// FrameSource yields frames in presentation order. ReadFrame returns
// io.EOF when the stream ends; ownership of returned frames passes to
// the caller.
type FrameSource interface {
	ReadFrame() (*video.Frame, error)
}

// FrameSink accepts emitted frames. WriteFrame does not take ownership.
type FrameSink interface {
	WriteFrame(*video.Frame) error
}

// Config holds pipeline configuration.
type Config struct {
	StreamID string
	Filter   dedup.Options
}

// Pipeline owns one stream's processing loop.
type Pipeline struct {
	streamID string
	source   FrameSource
	sink     FrameSink
	filter   *dedup.Filter

	ctx    context.Context
	cancel context.CancelFunc

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	errCount  atomic.Uint64

	logger logger.Logger
	wg     sync.WaitGroup

	mu       sync.Mutex
	runErr   error
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a pipeline over the given source and sink.
func New(ctx context.Context, cfg Config, source FrameSource, sink FrameSink) (*Pipeline, error) {
	if cfg.StreamID == "" {
		return nil, fmt.Errorf("stream ID required")
	}
	if source == nil {
		return nil, fmt.Errorf("frame source required")
	}
	if sink == nil {
		return nil, fmt.Errorf("frame sink required")
	}

	ctx, cancel := context.WithCancel(ctx)

	logEntry := logger.FromContext(ctx).WithField("stream_id", cfg.StreamID)
	log := logger.NewLogrusAdapter(logEntry)

	filter, err := dedup.New(cfg.StreamID, cfg.Filter, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating filter: %w", err)
	}

	return &Pipeline{
		streamID: cfg.StreamID,
		source:   source,
		sink:     sink,
		filter:   filter,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log,
		done:     make(chan struct{}),
	}, nil
}

// Negotiate fixes the stream's chroma subsampling before the first
// frame. Must be called once before Start.
func (p *Pipeline) Negotiate(hsub, vsub int) error {
	return p.filter.Negotiate(hsub, vsub)
}

// Start launches the processing loop.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already started")
	}
	p.started = true
	p.mu.Unlock()

	metrics.IncrementActiveStreams()

	p.wg.Add(1)
	go p.run()

	p.logger.Info("Pipeline started")
	return nil
}

// Stop cancels the loop and waits for it to finish. It is safe to call
// after the loop has already ended.
func (p *Pipeline) Stop() error {
	p.logger.Debug("Stopping pipeline")
	p.cancel()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		p.logger.Warn("Timeout waiting for pipeline worker to finish")
	}

	stats := p.filter.Stats()
	p.logger.WithFields(map[string]interface{}{
		"frames_in":      p.framesIn.Load(),
		"frames_out":     p.framesOut.Load(),
		"duplicate_runs": stats.DuplicateRuns,
		"errors":         p.errCount.Load(),
	}).Info("Pipeline stopped")

	return p.Err()
}

// Done is closed when the processing loop has ended.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Err reports the error that ended the loop, nil on clean end of
// stream or cancellation.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}

func (p *Pipeline) run() {
	defer func() {
		if r := recover(); r != nil {
			p.errCount.Add(1)
			p.setErr(errors.NewInternalError(fmt.Sprintf("pipeline panic: %v", r)))
			p.logger.WithField("panic", r).Error("Panic in pipeline worker")
		}
		p.filter.Close()
		metrics.DecrementActiveStreams()
		p.stopOnce.Do(func() { close(p.done) })
		p.wg.Done()
	}()

	for {
		if p.ctx.Err() != nil {
			p.logger.Debug("Pipeline worker: context cancelled")
			return
		}

		frame, err := p.source.ReadFrame()
		if err == io.EOF {
			p.logger.Debug("End of stream")
			return
		}
		if err != nil {
			p.fail(errors.WrapDownstreamError(err, "reading frame"))
			return
		}

		p.framesIn.Add(1)

		out, err := p.filter.Process(frame)
		if err != nil {
			frame.Release()
			p.fail(err)
			return
		}
		if out == nil {
			continue
		}

		err = p.sink.WriteFrame(out)
		out.Release()
		if err != nil {
			p.fail(errors.WrapDownstreamError(err, "writing frame"))
			return
		}
		p.framesOut.Add(1)
	}
}

func (p *Pipeline) fail(err error) {
	p.errCount.Add(1)
	errType := string(errors.ErrorTypeInternal)
	if appErr, ok := errors.GetAppError(err); ok {
		errType = string(appErr.Type)
	}
	metrics.IncrementStreamError(p.streamID, errType)
	p.setErr(err)
	p.logger.WithError(err).Error("Pipeline worker stopping on error")
}

func (p *Pipeline) setErr(err error) {
	p.mu.Lock()
	if p.runErr == nil {
		p.runErr = err
	}
	p.mu.Unlock()
}

// GetStats returns pipeline statistics.
func (p *Pipeline) GetStats() Stats {
	if p == nil {
		return Stats{}
	}
	return Stats{
		StreamID:  p.streamID,
		FramesIn:  p.framesIn.Load(),
		FramesOut: p.framesOut.Load(),
		Errors:    p.errCount.Load(),
		Filter:    p.filter.Stats(),
	}
}

// Stats contains pipeline statistics.
type Stats struct {
	StreamID  string      `json:"stream_id"`
	FramesIn  uint64      `json:"frames_in"`
	FramesOut uint64      `json:"frames_out"`
	Errors    uint64      `json:"errors"`
	Filter    dedup.Stats `json:"filter"`
}
