package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/stillkeep/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: "stderr",
	}

	log, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("stream_id", "s1").Info("frame kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame kept", entry["message"])
	assert.Equal(t, "s1", entry["stream_id"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestNew_TextFormat(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "stdout",
	}

	log, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "chatty",
		Format: "json",
		Output: "stderr",
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestLogrusAdapter_FieldChaining(t *testing.T) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	adapter := NewLogrusAdapter(logrus.NewEntry(base))
	adapter.WithField("a", 1).WithFields(map[string]interface{}{"b": 2}).Info("msg")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, 1, entry["a"])
	assert.EqualValues(t, 2, entry["b"])
}

func TestWithComponentAndStream(t *testing.T) {
	log := logrus.New()

	entry := WithComponent(log, "dedup")
	assert.Equal(t, "dedup", entry.Data["component"])

	entry = WithStream(log, "stream-1")
	assert.Equal(t, "stream-1", entry.Data["stream_id"])
}

func TestNullLogger(t *testing.T) {
	n := NewNullLogger()

	// All calls are no-ops and chaining returns the same logger.
	assert.Equal(t, n, n.WithField("k", "v"))
	assert.Equal(t, n, n.WithFields(map[string]interface{}{"k": "v"}))
	assert.Equal(t, n, n.WithError(assert.AnError))
	n.Debug("ignored")
	n.Error("also ignored")
}
