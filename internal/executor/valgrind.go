package executor

import (
	"context"
	"strconv"
	"strings"

	"github.com/harrison/pvcheck/internal/models"
)

// ValgrindTag is the section synthesized from the memory checker report.
const ValgrindTag = "VALGRIND"

// ValgrindExecutor runs the program under valgrind and turns the relevant
// parts of its report into a [VALGRIND] section appended to stdout. A clean
// run produces an empty section.
type ValgrindExecutor struct {
	inner  Executor
	binary string
}

// NewValgrindExecutor wraps inner so every program runs under valgrind.
func NewValgrindExecutor(inner Executor) *ValgrindExecutor {
	if inner == nil {
		panic("inner executor cannot be nil")
	}
	return &ValgrindExecutor{inner: inner, binary: "valgrind"}
}

// Execute implements Executor.
func (v *ValgrindExecutor) Execute(ctx context.Context, req Request) (*models.ExecutionResult, error) {
	req.Args = append([]string{v.binary}, req.Args...)
	res, err := v.inner.Execute(ctx, req)
	if err != nil || res == nil {
		return res, err
	}
	res.Stdout, res.Stderr = splitValgrindReport(res.Stdout, res.Stderr)
	return res, nil
}

// splitValgrindReport moves the valgrind lines out of stderr and appends the
// ones reporting a problem to stdout under a [VALGRIND] header.
func splitValgrindReport(stdout, stderr string) (string, string) {
	var report, rest strings.Builder
	for line := range strings.Lines(stderr) {
		if !strings.HasPrefix(line, "==") {
			rest.WriteString(line)
			continue
		}
		if valgrindProblem(line) {
			report.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				report.WriteByte('\n')
			}
		}
	}

	var out strings.Builder
	out.WriteString(stdout)
	out.WriteString("\n[" + ValgrindTag + "]\n")
	out.WriteString(report.String())
	return out.String(), rest.String()
}

// valgrindProblem reports whether a valgrind summary line signals leaked
// memory, unbalanced allocations or detected errors.
//
//	==1== in use at exit: 40 bytes in 1 blocks
//	==1== total heap usage: 2 allocs, 1 frees, 1,064 bytes allocated
//	==1== ERROR SUMMARY: 3 errors from 3 contexts (suppressed: 0 from 0)
func valgrindProblem(line string) bool {
	f := strings.Fields(line)
	switch {
	case strings.Contains(line, "in use at exit"):
		return fieldNumber(f, 5) > 0
	case strings.Contains(line, "total heap usage"):
		return fieldNumber(f, 4) != fieldNumber(f, 6)
	case strings.Contains(line, "ERROR SUMMARY"):
		return fieldNumber(f, 3) > 0
	}
	return false
}

// fieldNumber parses a comma-grouped number at position i, or returns 0.
func fieldNumber(fields []string, i int) int64 {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(fields[i], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
