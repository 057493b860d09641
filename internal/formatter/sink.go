// Package formatter turns the events of a pvcheck session into reports:
// plain or colored text, JSON, CSV and HTML, plus the persistent JSON log.
package formatter

import (
	"errors"

	"github.com/harrison/pvcheck/internal/executor"
	"github.com/harrison/pvcheck/internal/models"
)

// Base implements every ResultSink method as a no-op.
// Embed it in sinks that only care about some events.
type Base struct{}

func (Base) BeginSession(*models.SessionSummary) {}

func (Base) BeginTest(models.TestStart) {}

func (Base) ExecutionResult(models.TestStart, *models.ExecutionResult, *models.TestCase) {}

func (Base) ComparisonResult(models.SectionComparison) {}

func (Base) MissingSection(models.Section) {}

func (Base) EndTest() {}

func (Base) EndSession(*models.SessionSummary) error { return nil }

// Combined forwards every event to each of its sinks in order.
type Combined struct {
	sinks []executor.ResultSink
}

// NewCombined creates a sink broadcasting to sinks. Nil sinks are ignored.
func NewCombined(sinks ...executor.ResultSink) *Combined {
	c := &Combined{}
	for _, s := range sinks {
		c.Add(s)
	}
	return c
}

// Add appends a sink to the broadcast list.
func (c *Combined) Add(s executor.ResultSink) {
	if s != nil {
		c.sinks = append(c.sinks, s)
	}
}

// Len returns the number of sinks.
func (c *Combined) Len() int {
	return len(c.sinks)
}

func (c *Combined) BeginSession(summary *models.SessionSummary) {
	for _, s := range c.sinks {
		s.BeginSession(summary)
	}
}

func (c *Combined) BeginTest(start models.TestStart) {
	for _, s := range c.sinks {
		s.BeginTest(start)
	}
}

func (c *Combined) ExecutionResult(start models.TestStart, result *models.ExecutionResult, tc *models.TestCase) {
	for _, s := range c.sinks {
		s.ExecutionResult(start, result, tc)
	}
}

func (c *Combined) ComparisonResult(cmp models.SectionComparison) {
	for _, s := range c.sinks {
		s.ComparisonResult(cmp)
	}
}

func (c *Combined) MissingSection(expected models.Section) {
	for _, s := range c.sinks {
		s.MissingSection(expected)
	}
}

func (c *Combined) EndTest() {
	for _, s := range c.sinks {
		s.EndTest()
	}
}

// EndSession ends the session on every sink, even after failures,
// and returns the joined errors.
func (c *Combined) EndSession(summary *models.SessionSummary) error {
	var errs []error
	for _, s := range c.sinks {
		if err := s.EndSession(summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ executor.ResultSink = Base{}
	_ executor.ResultSink = (*Combined)(nil)
)
