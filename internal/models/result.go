package models

import (
	"slices"
	"time"
)

// ExecutionKind classifies how a program run ended.
type ExecutionKind string

// Execution outcome kinds
const (
	KindOk                  ExecutionKind = "ok"                    // Exited with status 0
	KindTimeout             ExecutionKind = "timeout"               // Killed after the time limit
	KindOutputLimitExceeded ExecutionKind = "output_limit_exceeded" // A stream exceeded the line limit
	KindCrashedWithSignal   ExecutionKind = "crashed"               // Terminated by SIGSEGV
	KindNonZeroExit         ExecutionKind = "non_zero_exit"         // Any other failure status
	KindExecutableNotFound  ExecutionKind = "executable_not_found"  // Could not be started
)

// ExecutionResult is the outcome of one run of the program under test.
type ExecutionResult struct {
	Kind       ExecutionKind // How the process ended
	ExitStatus int           // Exit code, or -signal for signal-terminated processes
	Stdout     string        // Captured standard output (possibly truncated)
	Stderr     string        // Captured standard error (possibly truncated)
	Duration   time.Duration // Wall-clock time of the run
}

// AlignedLine is an expected line aligned to a position in the actual output.
// Present is false where no expected line corresponds to the actual line.
type AlignedLine struct {
	Text    string
	Present bool
}

// MatchOutcome holds one difference score and one alignment per position.
// A difference of 0 means a perfect match and 1 means no acceptable match.
type MatchOutcome struct {
	Differences []float64
	Aligned     []AlignedLine
}

// MaxDifference returns the worst score, or 0 for an empty outcome.
func (m MatchOutcome) MaxDifference() float64 {
	if len(m.Differences) == 0 {
		return 0
	}
	return slices.Max(m.Differences)
}

// Passed reports whether every position matched perfectly.
func (m MatchOutcome) Passed() bool {
	return m.MaxDifference() == 0
}

// TotalDifference returns the sum of all scores.
func (m MatchOutcome) TotalDifference() float64 {
	total := 0.0
	for _, d := range m.Differences {
		total += d
	}
	return total
}

// TestStart describes a test case as it is about to be executed.
type TestStart struct {
	Index       int      // 0-based position in the suite
	Description string   // Case description ("" for the synthetic unnamed case)
	Args        []string // Command line; the temp file placeholder is left unexpanded
	Input       string   // Text fed to stdin
	TempFile    *string  // Content of the temporary file, nil when the case has none
}

// SectionComparison reports the comparison of one expected section.
type SectionComparison struct {
	Expected Section
	Actual   Section
	Ordered  bool
	Outcome  MatchOutcome
}
