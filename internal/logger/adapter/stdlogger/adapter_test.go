package stdlogger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/configurator-admin/configurator-admin/internal/logger/adapter/stdlogger"
)

// capture redirects the global logger into a buffer for the duration of the test.
func capture(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(level)

	t.Cleanup(func() { log.Logger = prev })

	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))

		out = append(out, m)
	}

	return out
}

func TestLevels(t *testing.T) {
	buf := capture(t, zerolog.InfoLevel)

	l := stdlogger.New()
	l.Debugf("hidden %d", 1)
	l.Infof("model %s loaded", "chair")
	l.Warningf("slow config fetch: %s", "2s")
	l.Errorf("upload failed: %v", "disk full")

	got := lines(t, buf)
	require.Len(t, got, 3)

	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "model chair loaded", got[0]["message"])
	assert.Equal(t, "warn", got[1]["level"])
	assert.Equal(t, "error", got[2]["level"])
}

func TestPrintfTagsGorm(t *testing.T) {
	buf := capture(t, zerolog.InfoLevel)

	stdlogger.New().Printf("%s [%.3fms] [rows:%v] %s\n", "models.go:12", 0.42, 1, "SELECT 1")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "gorm", got[0]["component"])
	assert.Equal(t, "models.go:12 [0.420ms] [rows:1] SELECT 1", got[0]["message"])
}

func TestGormLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantError bool
		wantTrace bool
	}{
		{level: "silent"},
		{level: "error", wantError: true},
		{level: "warn", wantError: true},
		{level: "", wantError: true},
		{level: "verbose", wantError: true},
		{level: "INFO", wantError: true, wantTrace: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t, zerolog.TraceLevel)

			l := stdlogger.NewGormLogger(tt.level)
			require.NotNil(t, l)

			l.Error(context.Background(), "broken %s", "query")
			assert.Equal(t, tt.wantError, strings.Contains(buf.String(), "broken query"))

			buf.Reset()
			l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 42", 1 }, nil)
			assert.Equal(t, tt.wantTrace, strings.Contains(buf.String(), "SELECT 42"))
		})
	}

	assert.Implements(t, (*gormlogger.Interface)(nil), stdlogger.NewGormLogger("warn"))
}
