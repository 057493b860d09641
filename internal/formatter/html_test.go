package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/pvcheck/internal/models"
)

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewHTMLFormatter(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
	assert.Contains(t, out, "<h1>PvCheck</h1>")
	assert.Contains(t, out, "<h2>Test Result</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>PRODUCT</th>")
	assert.Contains(t, out, "<td>missing</td>")
	assert.Contains(t, out, "./prog &lt;temp.file&gt;", "placeholders are escaped, not dropped as raw HTML")
	assert.Contains(t, out, "<td>&lt;program&gt;</td>")
	assert.NotContains(t, out, "raw HTML omitted")
	assert.Contains(t, out, "<pre><code>1 2\n</code></pre>")
}

func TestMarkdown(t *testing.T) {
	rec := NewRecorder()
	var summary *models.SessionSummary
	sink := NewCombined(rec, &summaryCapture{dst: &summary})
	runSample(t, sink)

	md := Markdown(rec.Report(), summary)
	assert.Contains(t, md, "| TEST | CODE | SUM | PRODUCT | EXTRA |\n|---|---|---|---|---|\n")
	assert.Contains(t, md, "| sum | 0 | ok |  |  |\n")
	assert.Contains(t, md, "| product | 0 |  | error | missing |\n")
	assert.Contains(t, md, "Wrong lines in PRODUCT:")
	assert.Contains(t, md, "| 2 | 6 | 7 |\n")
	assert.Contains(t, md, "| \\<program\\> | 1 | 0 | 1 |\n")
}

func TestWriteCodeBlockFence(t *testing.T) {
	var b strings.Builder
	writeCodeBlock(&b, "a ``` b")
	assert.Equal(t, "````\na ``` b\n````\n\n", b.String())
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\|b \<x\> \*y\* line`, escapeMarkdown("a|b <x> *y*\nline"))
}

type summaryCapture struct {
	Base
	dst **models.SessionSummary
}

func (s *summaryCapture) EndSession(summary *models.SessionSummary) error {
	*s.dst = summary
	return nil
}
