package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frame processing metrics
	framesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillkeep_frames_processed_total",
		Help: "Total frames examined per stream",
	}, []string{"stream_id"})

	framesEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillkeep_frames_emitted_total",
		Help: "Total frames kept and emitted per stream",
	}, []string{"stream_id"})

	duplicateRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillkeep_duplicate_runs_total",
		Help: "Total duplicate runs ended by a changed frame per stream",
	}, []string{"stream_id"})

	duplicateRunLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stillkeep_duplicate_run_length",
		Help:    "Length of duplicate runs at the moment a changed frame ended them",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 to 2048 frames
	}, []string{"stream_id"})

	// Plane comparison metrics
	planesComparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stillkeep_planes_compared_total",
		Help: "Total plane comparisons performed",
	})

	planesChangedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stillkeep_planes_changed_total",
		Help: "Total plane comparisons classified as changed",
	})

	// Stream lifecycle metrics
	streamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stillkeep_streams_active",
		Help: "Number of streams currently being processed",
	})

	streamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stillkeep_stream_errors_total",
		Help: "Total errors per stream",
	}, []string{"stream_id", "error_type"})

	// Frame pool metrics
	poolBytesInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stillkeep_pool_bytes_in_use",
		Help: "Bytes of frame storage currently checked out of the pool",
	})

	poolAllocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stillkeep_pool_allocations_total",
		Help: "Total frame buffer allocations (free-list misses)",
	})
)

// IncrementFramesProcessed increments the processed-frame counter for a stream.
func IncrementFramesProcessed(streamID string) {
	framesProcessedTotal.WithLabelValues(streamID).Inc()
}

// IncrementFramesEmitted increments the emitted-frame counter for a stream.
func IncrementFramesEmitted(streamID string) {
	framesEmittedTotal.WithLabelValues(streamID).Inc()
}

// RecordDuplicateRun records a duplicate run that was ended by a changed frame.
func RecordDuplicateRun(streamID string, length int) {
	duplicateRunsTotal.WithLabelValues(streamID).Inc()
	duplicateRunLength.WithLabelValues(streamID).Observe(float64(length))
}

// IncrementPlanesCompared counts one plane comparison.
func IncrementPlanesCompared() {
	planesComparedTotal.Inc()
}

// IncrementPlanesChanged counts one plane classified as changed.
func IncrementPlanesChanged() {
	planesChangedTotal.Inc()
}

// IncrementActiveStreams increments the active-stream gauge.
func IncrementActiveStreams() {
	streamsActive.Inc()
}

// DecrementActiveStreams decrements the active-stream gauge.
func DecrementActiveStreams() {
	streamsActive.Dec()
}

// IncrementStreamError increments the error counter for a stream.
func IncrementStreamError(streamID, errorType string) {
	streamErrorsTotal.WithLabelValues(streamID, errorType).Inc()
}

// AddPoolBytesInUse adjusts the pool usage gauge by delta bytes.
func AddPoolBytesInUse(delta int64) {
	poolBytesInUse.Add(float64(delta))
}

// IncrementPoolAllocations counts a frame buffer allocation.
func IncrementPoolAllocations() {
	poolAllocationsTotal.Inc()
}
