package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/stillkeep/internal/config"
	"github.com/zsiec/stillkeep/internal/dedup"
	"github.com/zsiec/stillkeep/internal/health"
	"github.com/zsiec/stillkeep/internal/pipeline"
	"github.com/zsiec/stillkeep/internal/server"
	"github.com/zsiec/stillkeep/internal/video"
)

type noopSource struct{}

func (noopSource) ReadFrame() (*video.Frame, error) { return nil, io.EOF }

type noopSink struct{}

func (noopSink) WriteFrame(*video.Frame) error { return nil }

func newIdlePipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()

	p, err := pipeline.New(context.Background(), pipeline.Config{
		StreamID: "s1",
		Filter:   dedup.DefaultOptions(),
	}, noopSource{}, noopSink{})
	require.NoError(t, err)
	return p
}

func TestNewHealthManager_RegistersPoolAndStreamCheckers(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	pool, err := video.NewFramePool(1<<20, 4, nil)
	require.NoError(t, err)

	stream := singleStream{newIdlePipeline(t)}
	mgr := newHealthManager(log, pool, stream)

	results := mgr.RunChecks(context.Background())
	require.Contains(t, results, "frame_pool")
	require.Contains(t, results, "streams")
	assert.Equal(t, health.StatusOK, mgr.GetOverallStatus())
}

func TestHealthEndpoint_ReportsStreamChecker(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	pool, err := video.NewFramePool(1<<20, 4, nil)
	require.NoError(t, err)

	stream := singleStream{newIdlePipeline(t)}
	cfg := &config.ServerConfig{
		Enabled:         true,
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
	srv := server.New(cfg, log, newHealthManager(log, pool, stream), stream)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Checks, "streams")
	require.Contains(t, resp.Checks, "frame_pool")
	assert.EqualValues(t, 1, resp.Checks["streams"].Details["streams"])
}

func TestSingleStream_MapsPipelineStats(t *testing.T) {
	stream := singleStream{newIdlePipeline(t)}

	streams := stream.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, "s1", streams[0].StreamID)

	stats := stream.StreamStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "s1", stats[0].StreamID)
}
