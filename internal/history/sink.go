package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/pvcheck/internal/formatter"
	"github.com/harrison/pvcheck/internal/models"
)

// Sink records every finished session in a Store.
type Sink struct {
	formatter.Base
	store *Store
}

// NewSink creates a sink writing to store.
func NewSink(store *Store) *Sink {
	return &Sink{store: store}
}

func (s *Sink) EndSession(summary *models.SessionSummary) error {
	if err := s.store.RecordRun(context.Background(), RunFromSummary(summary)); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// RunFromSummary converts a session summary into a storable run.
func RunFromSummary(summary *models.SessionSummary) *Run {
	run := &Run{
		RunID:      summary.RunID,
		TestFile:   summary.TestFile,
		Program:    strings.Join(summary.Program, " "),
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Total:      summary.Total(),
		Failed:     summary.Failed(),
	}
	for _, c := range summary.Cases {
		rec := CaseRecord{
			Index:       c.Index,
			Description: c.Description,
			Kind:        string(c.Kind),
			ExitStatus:  c.ExitStatus,
			Passed:      c.Passed,
			Duration:    c.Duration,
		}
		if c.Err != nil {
			rec.ErrorMessage = c.Err.Error()
		}
		run.Cases = append(run.Cases, rec)
	}
	return run
}
