package executor

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for infrastructure failures. Failures of the program under
// test are never errors; they are reported through ExecutionResult kinds.
var (
	// ErrTempFile indicates the temporary input file could not be prepared.
	ErrTempFile = errors.New("temporary file error")
	// ErrSpawn indicates the child process could not be set up or reaped.
	ErrSpawn = errors.New("process setup error")
	// ErrEmptyCommand indicates an execution request without a program.
	ErrEmptyCommand = errors.New("empty command line")
)

// CaseError reports an infrastructure error that interrupted one test case.
type CaseError struct {
	Index       int    // 0-based case index
	Description string // Case description
	Err         error  // Underlying error
}

// Error implements the error interface for CaseError.
func (e *CaseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "test %d", e.Index+1)
	if e.Description != "" {
		fmt.Fprintf(&sb, " (%s)", e.Description)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *CaseError) Unwrap() error {
	return e.Err
}

// IsCaseError checks if the error is or wraps a CaseError.
func IsCaseError(err error) bool {
	if err == nil {
		return false
	}
	var ce *CaseError
	return errors.As(err, &ce)
}
