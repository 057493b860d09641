package models

import (
	"slices"
	"time"
)

// SectionStatus is the per-section verdict recorded in a session summary.
type SectionStatus string

// Section verdicts
const (
	SectionOK        SectionStatus = "ok"
	SectionWarning   SectionStatus = "warning" // Expected section missing from the output
	SectionError     SectionStatus = "error"
	SectionExecError SectionStatus = "exec_error" // Program did not run to a clean exit
)

// ProgramTag is the pseudo-tag under which whole-case verdicts are counted.
const ProgramTag = "<program>"

// CaseOutcome is the recorded result of one test case.
type CaseOutcome struct {
	Index       int
	Description string
	Kind        ExecutionKind
	ExitStatus  int
	Duration    time.Duration
	Passed      bool
	Sections    map[string]SectionStatus
	Err         error // Infrastructure error that interrupted the case
}

// Status returns the case-level verdict: error when the run failed or any
// section mismatched, warning when only sections were missing, ok otherwise.
func (c CaseOutcome) Status() SectionStatus {
	if c.Err != nil || c.Kind != KindOk {
		return SectionError
	}
	status := SectionOK
	for _, s := range c.Sections {
		switch s {
		case SectionError, SectionExecError:
			return SectionError
		case SectionWarning:
			status = SectionWarning
		}
	}
	return status
}

// TagCounts tallies verdicts for one tag.
type TagCounts struct {
	OK      int
	Warning int
	Error   int
}

// SessionSummary accumulates results across a session. It is owned by the
// orchestrator and handed to sinks at session begin and end.
type SessionSummary struct {
	RunID      string
	TestFile   string
	Program    []string
	StartedAt  time.Time
	FinishedAt time.Time
	Cases      []CaseOutcome

	tags []string
}

// NewSessionSummary creates an empty summary.
func NewSessionSummary(runID, testFile string, program []string) *SessionSummary {
	return &SessionSummary{
		RunID:     runID,
		TestFile:  testFile,
		Program:   append([]string(nil), program...),
		StartedAt: time.Now(),
	}
}

// StartCase opens a new case record and returns it for in-place updates.
func (s *SessionSummary) StartCase(index int, description string) *CaseOutcome {
	s.Cases = append(s.Cases, CaseOutcome{
		Index:       index,
		Description: description,
		Sections:    make(map[string]SectionStatus),
	})
	return &s.Cases[len(s.Cases)-1]
}

// RecordSection stores a section verdict on the most recent case.
func (s *SessionSummary) RecordSection(tag string, status SectionStatus) {
	if len(s.Cases) == 0 {
		return
	}
	s.Cases[len(s.Cases)-1].Sections[tag] = status
	s.addTag(tag)
}

func (s *SessionSummary) addTag(tag string) {
	if slices.Contains(s.tags, tag) {
		return
	}
	s.tags = append(s.tags, tag)
}

// Tags returns the section tags seen so far in first-seen order.
func (s *SessionSummary) Tags() []string {
	return append([]string(nil), s.tags...)
}

// Counts tallies the verdicts of one tag across all cases.
// ProgramTag tallies the case-level verdicts. Execution errors count as errors.
func (s *SessionSummary) Counts(tag string) TagCounts {
	var c TagCounts
	for _, cs := range s.Cases {
		var st SectionStatus
		if tag == ProgramTag {
			st = cs.Status()
		} else {
			var ok bool
			if st, ok = cs.Sections[tag]; !ok {
				continue
			}
		}
		switch st {
		case SectionOK:
			c.OK++
		case SectionWarning:
			c.Warning++
		default:
			c.Error++
		}
	}
	return c
}

// Total returns the number of recorded cases.
func (s *SessionSummary) Total() int {
	return len(s.Cases)
}

// Failed returns the number of cases that did not pass.
func (s *SessionSummary) Failed() int {
	n := 0
	for _, c := range s.Cases {
		if !c.Passed {
			n++
		}
	}
	return n
}
