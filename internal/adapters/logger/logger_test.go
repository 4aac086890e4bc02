package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"listing-service/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelInfo, IsJSON: true})

	logger.WithFields(port.Fields{"component": "test"}).Error("boom", errors.New("disk full"), port.Fields{"attempt": 2})
	logger.Debug("hidden", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "boom", record["msg"])
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "test", record["component"])
	assert.Equal(t, "disk full", record["error"])
	assert.EqualValues(t, 2, record["attempt"])
}

func TestSlogAdapter_Tint(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelDebug, UseColor: true})

	logger.Debug("visible", port.Fields{"k": "v"})

	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "k=")
}

type fakeFluent struct {
	mu    sync.Mutex
	tags  []string
	posts []map[string]interface{}
}

func (f *fakeFluent) Post(tag string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, tag)
	f.posts = append(f.posts, message.(port.Fields))
	return nil
}

func TestFluentLoggerAdapter(t *testing.T) {
	client := &fakeFluent{}
	adapter, err := NewFluentLoggerAdapter(client, slog.LevelInfo)
	require.NoError(t, err)

	logger := adapter.WithFields(port.Fields{"service_name": "listing-service"})
	logger.Debug("dropped", nil)
	logger.Info("hello", port.Fields{"x": 1})
	logger.Error("failed", errors.New("bad"), nil)

	require.Equal(t, []string{"info", "error"}, client.tags)
	assert.Equal(t, "hello", client.posts[0]["message"])
	assert.Equal(t, "listing-service", client.posts[0]["service_name"])
	assert.Equal(t, 1, client.posts[0]["x"])
	assert.Equal(t, "bad", client.posts[1]["error"])
	assert.NotEmpty(t, client.posts[1]["timestamp"])
}

func TestFluentLoggerAdapter_RequiresClient(t *testing.T) {
	_, err := NewFluentLoggerAdapter(nil, nil)
	assert.Error(t, err)
}

func TestMultiLogger(t *testing.T) {
	_, err := NewMultiloggerAdapter()
	assert.Error(t, err)

	first, second := &fakeFluent{}, &fakeFluent{}
	a, _ := NewFluentLoggerAdapter(first, slog.LevelDebug)
	b, _ := NewFluentLoggerAdapter(second, slog.LevelWarn)

	multi, err := NewMultiloggerAdapter(a, nil, b)
	require.NoError(t, err)

	enriched := multi.WithFields(port.Fields{"trace_id": "t1"})
	enriched.Info("info", nil)
	enriched.Warn("warn", nil)

	assert.Equal(t, []string{"info", "warn"}, first.tags)
	assert.Equal(t, []string{"warn"}, second.tags)
	assert.Equal(t, "t1", second.posts[0]["trace_id"])
}
