package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewJSONFormatter(&buf, "  "))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Less(t, strings.Index(out, `"created_at"`), strings.Index(out, `"tests"`))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, ReportVersion, doc["version"])

	tests := doc["tests"].([]any)
	require.Len(t, tests, 2)
	second := tests[1].(map[string]any)
	assert.Equal(t, "product", second["title"])
	assert.Equal(t, "<temp.file>", second["input_file_name"])
	assert.Equal(t, float64(0), second["return_code"])

	sections := second["sections"].(map[string]any)
	product := sections["PRODUCT"].(map[string]any)
	assert.Equal(t, "error", product["section status"])
	assert.Equal(t, []any{[]any{float64(1), "7", "6"}}, product["wrong_lines"])
	assert.Equal(t, float64(1), product["difference"])

	extra := sections["EXTRA"].(map[string]any)
	assert.Equal(t, map[string]any{"section status": "missing"}, extra)

	first := tests[0].(map[string]any)
	assert.Nil(t, first["file_text"])
	assert.Nil(t, first["input_file_name"])
}

func TestJSONFormatterCompact(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewJSONFormatter(&buf, ""))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestLogFileSinkAppendsOneLinePerSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pvcheck.log")

	runSample(t, NewLogFileSink(path))
	runSample(t, NewLogFileSink(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	ids := make(map[string]bool)
	for _, line := range lines {
		var r struct {
			RunID string            `json:"run_id"`
			Tests []json.RawMessage `json:"tests"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		assert.Len(t, r.Tests, 2)
		ids[r.RunID] = true
	}
	assert.Len(t, ids, 2, "every session has its own run id")
}
