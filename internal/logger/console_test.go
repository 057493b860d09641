package logger

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewConsoleLogger verifies the constructor normalizes the level.
func TestNewConsoleLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  string
	}{
		{"lowercase", "debug", "debug"},
		{"mixed case and spaces", "  WaRn ", "warn"},
		{"empty defaults to info", "", "info"},
		{"invalid defaults to info", "verbose", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewConsoleLogger(&bytes.Buffer{}, tt.level)
			assert.Equal(t, tt.want, logger.logLevel)
			assert.False(t, logger.colorOutput, "buffers never get color")
		})
	}
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() {
		logger.LogError("discarded")
	})
}

func TestConsoleLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogInfo("parsed 3 tests")
	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] parsed 3 tests\n$`), buf.String())
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogTrace("m")
			logger.LogDebug("m")
			logger.LogInfo("m")
			logger.LogWarn("m")
			logger.LogError("m")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if m := regexp.MustCompile(`\[([A-Z]+)\]`).FindStringSubmatch(line); m != nil {
					got = append(got, m[1])
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsoleLoggerLogf(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")
	logger.Logf("debug", "test %d of %d", 2, 5)
	logger.Logf("bogus", "falls back to %s", "info")
	out := buf.String()
	assert.Contains(t, out, "[DEBUG] test 2 of 5")
	assert.Contains(t, out, "[INFO] falls back to info")
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogInfo("concurrent")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, "[INFO] concurrent"), line)
	}
}

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel("warn"))
	assert.False(t, IsValidLevel("WARN"))
	assert.False(t, IsValidLevel(""))
}
