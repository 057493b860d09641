package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acarl005/stripansi"

	"github.com/harrison/pvcheck/internal/executor"
	"github.com/harrison/pvcheck/internal/models"
)

// ReportVersion is the version of the JSON report layout.
const ReportVersion = "2.2.0"

// DefaultTestFile is reported when the session has no test file name.
const DefaultTestFile = "pvcheck.test"

const timestampLayout = "2006-01-02 15:04:05.000"

// Section statuses as written in reports
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusMissing   = "missing"
	StatusExecError = "exec_error"
)

// Report is the structured record of a whole session.
type Report struct {
	CreatedAt        string        `json:"created_at"`
	Version          string        `json:"version"`
	WorkingDirectory string        `json:"working_directory"`
	TestFile         string        `json:"test_file"`
	RunID            string        `json:"run_id"`
	Tests            []*TestReport `json:"tests"`
}

// TestReport is the record of one test case.
type TestReport struct {
	Title         string         `json:"title"`
	CommandLine   []string       `json:"command_line"`
	InputText     string         `json:"input_text"`
	FileText      *string        `json:"file_text"`
	InputFileName *string        `json:"input_file_name"`
	ReturnCode    int            `json:"return_code"`
	ErrorMessage  string         `json:"error_message"`
	Output        string         `json:"output"`
	Sections      SectionReports `json:"sections"`

	kind models.ExecutionKind
}

// Kind returns how the program run ended; empty when it never ran.
func (t *TestReport) Kind() models.ExecutionKind {
	return t.kind
}

// SectionReport is the verdict for one expected section. Comparison details
// are present only when the section was actually compared.
type SectionReport struct {
	Status string `json:"section status"`
	*ComparisonDetail

	equality string
}

// Equality is the percentage of correct lines formatted with two decimals,
// "MISS" for a missing section or "0" when the program failed to run.
func (s SectionReport) Equality() string {
	return s.equality
}

// ComparisonDetail carries the lines of a compared section.
type ComparisonDetail struct {
	Expected   []string    `json:"expected"`
	Generated  []string    `json:"generated"`
	WrongLines []WrongLine `json:"wrong_lines"`
	Difference float64     `json:"difference"`
}

// WrongLine is a mismatching position. Actual is nil past the end of the
// output and Expected is nil for an unexpected line.
type WrongLine struct {
	Index    int
	Actual   *string
	Expected *string
}

// MarshalJSON encodes the line as [index, actual, expected].
func (w WrongLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Index, w.Actual, w.Expected})
}

// NamedSection pairs a tag with its report.
type NamedSection struct {
	Tag    string
	Report SectionReport
}

// SectionReports keeps section reports in the order they were produced.
type SectionReports []NamedSection

// Get returns the report for tag.
func (s SectionReports) Get(tag string) (SectionReport, bool) {
	for _, ns := range s {
		if ns.Tag == tag {
			return ns.Report, true
		}
	}
	return SectionReport{}, false
}

func (s *SectionReports) set(tag string, r SectionReport) {
	for i := range *s {
		if (*s)[i].Tag == tag {
			(*s)[i].Report = r
			return
		}
	}
	*s = append(*s, NamedSection{Tag: tag, Report: r})
}

// MarshalJSON encodes the sections as an object preserving their order.
func (s SectionReports) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ns := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ns.Tag)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(ns.Report)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", ns.Tag, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Recorder is a sink that builds a Report from session events.
// Structured formatters embed it and render the report at session end.
type Recorder struct {
	report  *Report
	current *TestReport
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report returns the report built so far, or nil before BeginSession.
func (r *Recorder) Report() *Report {
	return r.report
}

func (r *Recorder) BeginSession(summary *models.SessionSummary) {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	testFile := summary.TestFile
	if testFile == "" {
		testFile = DefaultTestFile
	}
	if !filepath.IsAbs(testFile) && wd != "" {
		testFile = filepath.Join(wd, testFile)
	}

	r.report = &Report{
		CreatedAt:        summary.StartedAt.Format(timestampLayout),
		Version:          ReportVersion,
		WorkingDirectory: wd,
		TestFile:         testFile,
		RunID:            summary.RunID,
		Tests:            []*TestReport{},
	}
	r.current = nil
}

func (r *Recorder) BeginTest(start models.TestStart) {
	t := &TestReport{
		Title:       start.Description,
		CommandLine: executor.DisplayArgs(start.Args),
		InputText:   start.Input,
		Sections:    SectionReports{},
	}
	if start.TempFile != nil {
		text := *start.TempFile
		name := executor.TempFileDisplayName
		t.FileText = &text
		t.InputFileName = &name
	}
	r.report.Tests = append(r.report.Tests, t)
	r.current = t
}

func (r *Recorder) ExecutionResult(start models.TestStart, result *models.ExecutionResult, tc *models.TestCase) {
	t := r.current
	t.kind = result.Kind
	t.ReturnCode = result.ExitStatus
	t.ErrorMessage = ResultMessage(result.Kind, result.ExitStatus, programName(start.Args))
	t.Output = stripansi.Strip(result.Stdout)

	if result.Kind != models.KindOk {
		for _, s := range tc.DataSections() {
			t.Sections.set(s.Tag, SectionReport{Status: StatusExecError, equality: "0"})
		}
	}
}

func (r *Recorder) ComparisonResult(cmp models.SectionComparison) {
	diffs := cmp.Outcome.Differences
	status := StatusOK
	if !cmp.Outcome.Passed() {
		status = StatusError
	}

	detail := &ComparisonDetail{
		Expected:   nonNil(cmp.Expected.Content),
		Generated:  nonNil(cmp.Actual.Content),
		WrongLines: []WrongLine{},
		Difference: cmp.Outcome.TotalDifference(),
	}
	for i, d := range diffs {
		if d <= 0 {
			continue
		}
		w := WrongLine{Index: i}
		if i < len(cmp.Actual.Content) {
			w.Actual = &cmp.Actual.Content[i]
		}
		if i < len(cmp.Outcome.Aligned) && cmp.Outcome.Aligned[i].Present {
			w.Expected = &cmp.Outcome.Aligned[i].Text
		}
		detail.WrongLines = append(detail.WrongLines, w)
	}

	r.current.Sections.set(cmp.Expected.Tag, SectionReport{
		Status:           status,
		ComparisonDetail: detail,
		equality:         equality(cmp.Outcome),
	})
}

func (r *Recorder) MissingSection(expected models.Section) {
	r.current.Sections.set(expected.Tag, SectionReport{Status: StatusMissing, equality: "MISS"})
}

func (r *Recorder) EndTest() {
	r.current = nil
}

// EndSession attaches infrastructure errors to the tests they interrupted.
func (r *Recorder) EndSession(summary *models.SessionSummary) error {
	if r.report == nil {
		return nil
	}
	for i, c := range summary.Cases {
		if c.Err != nil && i < len(r.report.Tests) {
			r.report.Tests[i].ErrorMessage = c.Err.Error()
		}
	}
	return nil
}

// equality is the percentage of correct positions.
func equality(o models.MatchOutcome) string {
	n := len(o.Differences)
	if n == 0 {
		return "100.00"
	}
	return fmt.Sprintf("%.2f", (float64(n)-o.TotalDifference())*100/float64(n))
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

var _ executor.ResultSink = (*Recorder)(nil)
