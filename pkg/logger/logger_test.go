package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"quiet without file", &config.LoggingConfig{Level: "info", Quiet: true}, false},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "px.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
		{"chatty", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestWithFieldsAreCarried(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	child := l.WithField("component", "gallery").WithFields(map[string]interface{}{
		"page":  2,
		"query": "cats",
	})
	child.InfoWithFields("page rendered", map[string]interface{}{"items": 40})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "page rendered", recs[0]["message"])
	assert.Equal(t, "gallery", recs[0]["component"])
	assert.Equal(t, "cats", recs[0]["query"])
	assert.EqualValues(t, 2, recs[0]["page"])
	assert.EqualValues(t, 40, recs[0]["items"])
	assert.Equal(t, "pixgallery", recs[0]["app"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.InfoLevel)
	_ = parent.WithField("leak", true)
	parent.Info("clean")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	_, ok := recs[0]["leak"]
	assert.False(t, ok)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.WithError(errors.New("boom")).Error("shown too")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "boom", recs[1]["error"])
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://pixabay.com/api/", 503, 20*time.Millisecond)
	LogRequest(tl, "GET", "https://pixabay.com/api/", 404, time.Millisecond)
	LogDownload(tl, 42, "/tmp/42.jpg", false, errors.New("disk full"))
	LogRateLimit(tl, 0, time.Minute)

	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 2)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	assert.True(t, tl.HasMessage("Download failed"))
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("search_id", "abc").WithError(errors.New("x"))
	child.Warn("derived")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "abc", msgs[0].Fields["search_id"])
	assert.EqualError(t, msgs[0].Error, "x")
	assert.Contains(t, tl.String(), "[WARN] derived")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	Info("via global")
	WithField("k", "v").Warn("with field")

	assert.True(t, tl.HasMessage("via global"))
	assert.True(t, tl.HasMessage("with field"))
}
