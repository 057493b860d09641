package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/pvcheck/internal/models"
)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>PvCheck Result</title>
<style>
html { font-family: sans-serif; }
h1 { text-align: center; }
table { border-collapse: collapse; border: 2px solid rgb(200,200,200); font-size: 0.8rem; }
td, th { border: 1px solid rgb(190,190,190); padding: 6px 16px; }
th { background-color: rgb(235,235,235); }
td { text-align: center; }
</style>
</head>
<body>
`

const htmlTail = `</body>
</html>
`

// HTMLFormatter writes a standalone HTML page with a results table, the
// details of every test and a per-section summary.
type HTMLFormatter struct {
	*Recorder
	w  io.Writer
	md goldmark.Markdown
}

// NewHTMLFormatter creates an HTML formatter writing to w.
func NewHTMLFormatter(w io.Writer) *HTMLFormatter {
	return &HTMLFormatter{
		Recorder: NewRecorder(),
		w:        w,
		md:       goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

func (f *HTMLFormatter) EndSession(summary *models.SessionSummary) error {
	if err := f.Recorder.EndSession(summary); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := f.md.Convert([]byte(Markdown(f.Report(), summary)), &body); err != nil {
		return fmt.Errorf("render HTML report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString(htmlHead)
	page.Write(body.Bytes())
	page.WriteString(htmlTail)
	if _, err := f.w.Write(page.Bytes()); err != nil {
		return fmt.Errorf("write HTML report: %w", err)
	}
	return nil
}

// Markdown renders the report as a Markdown document with GFM tables.
func Markdown(r *Report, summary *models.SessionSummary) string {
	var b strings.Builder
	tags := sectionTags(r.Tests)

	b.WriteString("# PvCheck\n\n")
	fmt.Fprintf(&b, "Test file: %s\n\n", escapeMarkdown(r.TestFile))

	b.WriteString("## Test Result\n\n")
	header := append([]string{"TEST", "CODE"}, tags...)
	writeTableRow(&b, header)
	writeTableRule(&b, len(header))
	for _, t := range r.Tests {
		row := []string{testTitle(t), ResultCode(t.Kind())}
		for _, tag := range tags {
			if s, ok := t.Sections.Get(tag); ok {
				row = append(row, s.Status)
			} else {
				row = append(row, "")
			}
		}
		writeTableRow(&b, row)
	}
	b.WriteString("\n")

	b.WriteString("## Info\n\n")
	for i, t := range r.Tests {
		writeTestDetails(&b, i, t)
	}

	b.WriteString("## Summary\n\n")
	writeTableRow(&b, []string{"SECTION", "SUCCESSES", "WARNINGS", "ERRORS"})
	writeTableRule(&b, 4)
	for _, tag := range append(summary.Tags(), models.ProgramTag) {
		c := summary.Counts(tag)
		writeTableRow(&b, []string{tag, fmt.Sprint(c.OK), fmt.Sprint(c.Warning), fmt.Sprint(c.Error)})
	}
	return b.String()
}

func writeTestDetails(b *strings.Builder, i int, t *TestReport) {
	fmt.Fprintf(b, "### Test %d: %s\n\n", i+1, escapeMarkdown(testTitle(t)))
	fmt.Fprintf(b, "Command line: %s\n\n", escapeMarkdown(strings.Join(t.CommandLine, " ")))
	if strings.TrimSpace(t.InputText) != "" {
		b.WriteString("Input:\n\n")
		writeCodeBlock(b, t.InputText)
	}
	if t.FileText != nil {
		b.WriteString("Temporary file:\n\n")
		writeCodeBlock(b, *t.FileText)
	}
	if t.ErrorMessage != "" {
		fmt.Fprintf(b, "Result: %s (return code %d)\n\n", escapeMarkdown(t.ErrorMessage), t.ReturnCode)
	}

	for _, s := range t.Sections {
		if s.Report.ComparisonDetail == nil || len(s.Report.WrongLines) == 0 {
			continue
		}
		fmt.Fprintf(b, "Wrong lines in %s:\n\n", escapeMarkdown(s.Tag))
		writeTableRow(b, []string{"LINE", "EXPECTED", "GENERATED"})
		writeTableRule(b, 3)
		for _, w := range s.Report.WrongLines {
			writeTableRow(b, []string{fmt.Sprint(w.Index + 1), optional(w.Expected), optional(w.Actual)})
		}
		b.WriteString("\n")
	}
}

func testTitle(t *TestReport) string {
	if t.Title == "" {
		return "NoName"
	}
	return t.Title
}

func optional(s *string) string {
	if s == nil {
		return "<nothing>"
	}
	return *s
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeMarkdown(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func writeTableRule(b *strings.Builder, n int) {
	b.WriteString("|")
	for range n {
		b.WriteString("---|")
	}
	b.WriteString("\n")
}

// writeCodeBlock emits a fenced block whose fence is longer than any
// backtick run in text.
func writeCodeBlock(b *strings.Builder, text string) {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	b.WriteString(fence + "\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence + "\n\n")
}

// escapeMarkdown makes text safe for inline Markdown and table cells.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '|', '#', '!', '&', '~':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
