package formatter

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/harrison/pvcheck/internal/executor"
	"github.com/harrison/pvcheck/internal/models"
)

// Message levels; a message is written when the verbosity is at least its level.
const (
	LevelError   = 0
	LevelWarning = 1
	LevelSuccess = 2
	LevelInfo    = 3
	LevelDebug   = 4
)

const (
	sectionMaxLines = 5
	cellWidth       = 30
)

var levelAttributes = map[int][]color.Attribute{
	LevelError:   {color.Bold, color.FgHiRed},
	LevelWarning: {color.Bold, color.FgYellow},
	LevelSuccess: {color.Bold, color.FgHiGreen},
	LevelDebug:   {color.FgHiBlue},
}

// TextFormatter writes human readable results, optionally colored by level.
type TextFormatter struct {
	w         io.Writer
	verbosity int
	maxErrors int
	colors    map[int]*color.Color
	testCount int
}

// NewTextFormatter creates a text formatter. verbosity ranges from
// LevelError to LevelDebug; maxErrors caps the wrong lines listed per
// section (0 lists them all).
func NewTextFormatter(w io.Writer, verbosity, maxErrors int, colored bool) *TextFormatter {
	f := &TextFormatter{
		w:         w,
		verbosity: verbosity,
		maxErrors: maxErrors,
	}
	if colored {
		f.colors = make(map[int]*color.Color, len(levelAttributes))
		for level, attrs := range levelAttributes {
			c := color.New(attrs...)
			c.EnableColor()
			f.colors[level] = c
		}
	}
	return f
}

func (f *TextFormatter) enabled(level int) bool {
	return f.verbosity >= level
}

func (f *TextFormatter) message(level int, msg string) {
	if !f.enabled(level) {
		return
	}
	if c, ok := f.colors[level]; ok {
		msg = c.Sprint(msg)
	}
	fmt.Fprintln(f.w, msg)
}

func (f *TextFormatter) BeginSession(*models.SessionSummary) {
	f.testCount = 0
}

func (f *TextFormatter) BeginTest(start models.TestStart) {
	if f.testCount > 0 {
		f.message(LevelInfo, strings.Repeat("-", 60))
	}
	f.testCount++

	maxLines := sectionMaxLines
	if f.enabled(LevelDebug) {
		maxLines = 0
	}
	if start.Description != "" {
		f.message(LevelInfo, formatSection("TEST", start.Description, maxLines))
	}
	f.message(LevelInfo, formatSection("COMMAND LINE", strings.Join(executor.DisplayArgs(start.Args), " "), maxLines))
	if strings.TrimSpace(start.Input) != "" {
		f.message(LevelInfo, formatSection("INPUT", start.Input, maxLines))
	}
	if start.TempFile != nil {
		f.message(LevelInfo, formatSection("TEMPORARY FILE", *start.TempFile, maxLines))
	}
}

func (f *TextFormatter) ExecutionResult(start models.TestStart, result *models.ExecutionResult, _ *models.TestCase) {
	if result.Kind != models.KindOk {
		f.message(LevelError, ResultMessage(result.Kind, result.ExitStatus, programName(start.Args)))
	}
	if result.Stdout != "" && f.enabled(LevelDebug) {
		var quoted []string
		for _, line := range splitLines(result.Stdout) {
			quoted = append(quoted, "> "+line)
		}
		f.message(LevelDebug, formatSection("OUTPUT", strings.Join(quoted, "\n"), 0))
	}
}

func (f *TextFormatter) ComparisonResult(cmp models.SectionComparison) {
	tag := cmp.Expected.Tag
	expected, actual := cmp.Expected.Content, cmp.Actual.Content
	outcome := cmp.Outcome

	if outcome.Passed() {
		f.message(LevelSuccess, tag+": OK")
	} else {
		if len(expected) != len(actual) {
			f.message(LevelError, fmt.Sprintf("%s: wrong number of lines (expected %d, got %d)", tag, len(expected), len(actual)))
		}

		var lines []string
		for i, d := range outcome.Differences {
			if d <= 0 {
				continue
			}
			var msg string
			switch {
			case !outcome.Aligned[i].Present:
				msg = fmt.Sprintf("unexpected line '%s'", actual[i])
			case i >= len(actual):
				msg = fmt.Sprintf("missing line (expected '%s')", outcome.Aligned[i].Text)
			default:
				msg = fmt.Sprintf("line %d is wrong  (expected '%s', got '%s')", i+1, outcome.Aligned[i].Text, actual[i])
			}
			lines = append(lines, tag+": "+msg)
		}

		shown := len(lines)
		if f.maxErrors > 0 && shown >= f.maxErrors {
			shown = f.maxErrors - 1
		}
		for _, line := range lines[:shown] {
			f.message(LevelError, line)
		}
		if extra := len(lines) - shown; extra > 0 {
			f.message(LevelError, fmt.Sprintf("(... plus other %d errors ...)", extra))
		}

		if n := len(actual); n > 0 && n <= len(outcome.Differences) && slices.Max(outcome.Differences[:n]) == 0 {
			f.message(LevelWarning, fmt.Sprintf("%s: The first %d lines matched correctly", tag, n))
		}
	}

	if f.enabled(LevelDebug) {
		f.detailedComparison(tag, outcome.Aligned, actual)
	}
}

// detailedComparison prints expected and actual lines side by side.
func (f *TextFormatter) detailedComparison(tag string, aligned []models.AlignedLine, actual []string) {
	row := func(left, right string) string {
		return fmt.Sprintf("%-*s| %-*s", cellWidth, left, cellWidth, right)
	}
	f.message(LevelDebug, tag+": detailed comparison")
	f.message(LevelDebug, row("EXPECTED OUTPUT", "ACTUAL OUTPUT"))

	for i := range max(len(aligned), len(actual)) {
		left, right := "<nothing>", "<nothing>"
		if i < len(aligned) && aligned[i].Present {
			left = clip(aligned[i].Text)
		}
		if i < len(actual) {
			right = clip(actual[i])
		}
		f.message(LevelDebug, row(left, right))
	}
}

func (f *TextFormatter) MissingSection(expected models.Section) {
	f.message(LevelWarning, expected.Tag+": missing section")
}

func (f *TextFormatter) EndTest() {}

// EndSession prints a per-tag summary when more than one test ran.
func (f *TextFormatter) EndSession(summary *models.SessionSummary) error {
	if f.testCount < 2 {
		return nil
	}
	f.testCount = 0

	f.message(LevelInfo, "")
	f.message(LevelInfo, strings.Repeat("=", 60))
	f.message(LevelInfo, "")
	f.message(LevelInfo, "SUMMARY")
	f.message(LevelInfo, SummaryTable(summary))
	f.message(LevelInfo, "")
	return nil
}

// SummaryTable renders the success, warning and error counts of every
// section tag plus the whole-program row.
func SummaryTable(summary *models.SessionSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Section", "Successes", "Warnings", "Errors"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Successes", Align: text.AlignRight},
		{Name: "Warnings", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
	})
	for _, tag := range summary.Tags() {
		c := summary.Counts(tag)
		t.AppendRow(table.Row{tag, c.OK, c.Warning, c.Error})
	}
	t.AppendSeparator()
	c := summary.Counts(models.ProgramTag)
	t.AppendRow(table.Row{models.ProgramTag, c.OK, c.Warning, c.Error})
	return t.Render()
}

// formatSection renders a titled block. Single lines stay on the title line
// and blocks longer than maxLines are cut (0 disables the cut).
func formatSection(title, content string, maxLines int) string {
	lines := splitLines(content)
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	switch n := len(lines); {
	case n == 0:
		return title + ": <empty>"
	case n == 1:
		return title + ": " + lines[0]
	case maxLines > 0 && n > maxLines:
		lines = lines[:maxLines]
		lines[maxLines-1] = fmt.Sprintf("(... plus other %d lines ...)", n-maxLines+1)
	}
	return title + ":\n" + strings.Join(lines, "\n")
}

func splitLines(s string) []string {
	var lines []string
	for line := range strings.Lines(s) {
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines
}

func clip(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	r := []rune(s)
	if len(r) <= cellWidth {
		return s
	}
	return string(r[:cellWidth-4]) + "..."
}

var _ executor.ResultSink = (*TextFormatter)(nil)
