package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harrison/pvcheck/internal/models"
)

// CSVFormatter writes one row per test with the outcome code and the
// percentage of correct lines of every section, followed by a TOTAL row.
type CSVFormatter struct {
	*Recorder
	w io.Writer
}

// NewCSVFormatter creates a CSV formatter writing to w.
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{Recorder: NewRecorder(), w: w}
}

func (f *CSVFormatter) EndSession(summary *models.SessionSummary) error {
	if err := f.Recorder.EndSession(summary); err != nil {
		return err
	}
	tests := f.Report().Tests
	tags := sectionTags(tests)

	cw := csv.NewWriter(f.w)
	header := append([]string{"TEST", "CODE"}, tags...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, t := range tests {
		row := []string{t.Title, ResultCode(t.Kind())}
		for _, tag := range tags {
			s, ok := t.Sections.Get(tag)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, s.Equality())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	if err := cw.Write(totalRow(tests, tags)); err != nil {
		return fmt.Errorf("write CSV totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// totalRow averages every column over the tests that have the section.
// Missing sections count as zero.
func totalRow(tests []*TestReport, tags []string) []string {
	row := []string{"TOTAL", ""}
	for _, tag := range tags {
		sum, n := 0.0, 0
		for _, t := range tests {
			s, ok := t.Sections.Get(tag)
			if !ok {
				continue
			}
			n++
			if v, err := strconv.ParseFloat(s.Equality(), 64); err == nil {
				sum += v
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		row = append(row, fmt.Sprintf("%.2f", mean))
	}
	return row
}

// sectionTags lists the section tags of all tests in first-seen order.
func sectionTags(tests []*TestReport) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, t := range tests {
		for _, s := range t.Sections {
			if !seen[s.Tag] {
				seen[s.Tag] = true
				tags = append(tags, s.Tag)
			}
		}
	}
	return tags
}
