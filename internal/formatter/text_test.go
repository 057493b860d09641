package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pvcheck/internal/models"
)

func TestTextFormatterInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewTextFormatter(&buf, LevelInfo, 4, false))
	out := buf.String()

	for _, want := range []string{
		"TEST: sum\nCOMMAND LINE: ./prog\nINPUT: 1 2\nSUM: OK\n",
		strings.Repeat("-", 60) + "\nTEST: product\n",
		"COMMAND LINE: ./prog <temp.file>\n",
		"TEMPORARY FILE: data\n",
		"PRODUCT: line 2 is wrong  (expected '6', got '7')\n",
		"EXTRA: missing section\n",
		strings.Repeat("=", 60),
		"SUMMARY\n",
		"<program>",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "uncolored output has no escapes")
	assert.NotContains(t, out, "wrong number of lines")
}

func TestTextFormatterVerbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		contains  []string
		excludes  []string
	}{
		{
			name:      "errors only",
			verbosity: LevelError,
			contains:  []string{"PRODUCT: line 2 is wrong"},
			excludes:  []string{"TEST:", "SUM: OK", "missing section", "SUMMARY"},
		},
		{
			name:      "warnings",
			verbosity: LevelWarning,
			contains:  []string{"PRODUCT: line 2 is wrong", "EXTRA: missing section"},
			excludes:  []string{"SUM: OK", "TEST:"},
		},
		{
			name:      "successes",
			verbosity: LevelSuccess,
			contains:  []string{"SUM: OK", "EXTRA: missing section"},
			excludes:  []string{"TEST:", "SUMMARY"},
		},
		{
			name:      "debug",
			verbosity: LevelDebug,
			contains: []string{
				"OUTPUT:\n> [PRODUCT]\n> 2\n> 7\n",
				"PRODUCT: detailed comparison",
				"EXPECTED OUTPUT               | ACTUAL OUTPUT",
				"6                             | 7",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			runSample(t, NewTextFormatter(&buf, tt.verbosity, 4, false))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestTextFormatterMaxErrors(t *testing.T) {
	suite := "[.TEST]\nmany\n[R]\n1\n2\n3\n4\n5\n"
	results := []*models.ExecutionResult{{Kind: models.KindOk, Stdout: "[R]\n9\n9\n9\n9\n9\n"}}

	tests := []struct {
		maxErrors int
		listed    int
		extra     string
	}{
		{maxErrors: 0, listed: 5},
		{maxErrors: 6, listed: 5},
		{maxErrors: 5, listed: 4, extra: "(... plus other 1 errors ...)"},
		{maxErrors: 2, listed: 1, extra: "(... plus other 4 errors ...)"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, runSession(t, NewTextFormatter(&buf, LevelError, tt.maxErrors, false), suite, results))
		out := buf.String()
		assert.Equal(t, tt.listed, strings.Count(out, "is wrong"), "max errors %d", tt.maxErrors)
		if tt.extra != "" {
			assert.Contains(t, out, tt.extra)
		} else {
			assert.NotContains(t, out, "plus other")
		}
	}
}

func TestTextFormatterLineCountMessages(t *testing.T) {
	suite := "[.TEST]\nshort\n[R]\n1\n2\n3\n[.TEST]\nlong\n[R]\n1\n"
	results := []*models.ExecutionResult{
		{Kind: models.KindOk, Stdout: "[R]\n1\n2\n"},
		{Kind: models.KindOk, Stdout: "[R]\n1\nextra\n"},
	}
	var buf bytes.Buffer
	require.NoError(t, runSession(t, NewTextFormatter(&buf, LevelWarning, 10, false), suite, results))
	out := buf.String()

	assert.Contains(t, out, "R: wrong number of lines (expected 3, got 2)\n")
	assert.Contains(t, out, "R: missing line (expected '3')\n")
	assert.Contains(t, out, "R: The first 2 lines matched correctly\n")
	assert.Contains(t, out, "R: wrong number of lines (expected 1, got 2)\n")
	assert.Contains(t, out, "R: unexpected line 'extra'\n")
}

func TestTextFormatterExecutionFailure(t *testing.T) {
	suite := "[.TEST]\nt\n[R]\n1\n"
	results := []*models.ExecutionResult{{Kind: models.KindNonZeroExit, ExitStatus: 2}}
	var buf bytes.Buffer
	require.NoError(t, runSession(t, NewTextFormatter(&buf, LevelError, 4, false), suite, results))
	assert.Equal(t, "PROCESS ENDED WITH A FAILURE (ERROR CODE 2)\n", buf.String())
}

func TestTextFormatterColored(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewTextFormatter(&buf, LevelInfo, 4, true))
	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "TEST: sum\n", "info messages are never colored")
}

func TestTextFormatterSingleTestHasNoSummary(t *testing.T) {
	var buf bytes.Buffer
	suite := "[.TEST]\nonly\n[A]\n1\n"
	require.NoError(t, runSession(t, NewTextFormatter(&buf, LevelInfo, 4, false), suite,
		[]*models.ExecutionResult{{Kind: models.KindOk, Stdout: "[A]\n1\n"}}))
	assert.NotContains(t, buf.String(), "SUMMARY")
	assert.NotContains(t, buf.String(), strings.Repeat("-", 60))
}

func TestFormatSection(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxLines int
		want     string
	}{
		{"empty", "", 5, "T: <empty>"},
		{"single line", "abc  \n", 5, "T: abc"},
		{"block", "a\nb\n", 5, "T:\na\nb"},
		{"cut", "1\n2\n3\n4\n5\n6\n7\n", 5, "T:\n1\n2\n3\n4\n(... plus other 3 lines ...)"},
		{"exact", "1\n2\n3\n4\n5\n", 5, "T:\n1\n2\n3\n4\n5"},
		{"unlimited", "1\n2\n3\n4\n5\n6\n", 0, "T:\n1\n2\n3\n4\n5\n6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSection("T", tt.content, tt.maxLines))
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short  "))
	assert.Equal(t, strings.Repeat("x", 26)+"...", clip(strings.Repeat("x", 31)))
	assert.Equal(t, strings.Repeat("è", 30), clip(strings.Repeat("è", 30)))
}

func TestSummaryTable(t *testing.T) {
	summary := models.NewSessionSummary("r", "", nil)
	summary.StartCase(0, "a")
	summary.Cases[0].Kind = models.KindOk
	summary.RecordSection("SUM", models.SectionOK)
	summary.StartCase(1, "b")
	summary.Cases[1].Kind = models.KindOk
	summary.RecordSection("SUM", models.SectionWarning)

	out := SummaryTable(summary)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, out, "SUCCESSES")
	assert.Regexp(t, `SUM\s+│\s+1\s+│\s+1\s+│\s+0`, out)
	assert.Regexp(t, `<program>\s+│\s+1\s+│\s+1\s+│\s+0`, out)
}
