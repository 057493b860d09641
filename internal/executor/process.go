// Package executor runs the program under test and drives test cases through
// execution, output parsing and matching.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/harrison/pvcheck/internal/models"
)

// TempFilePlaceholder marks the argument replaced by the temporary file path.
// It contains NUL bytes so it can never collide with a real argument.
const TempFilePlaceholder = "\x00pvcheck:tempfile\x00"

// TempFileDisplayName is how the placeholder is shown to users.
const TempFileDisplayName = "<temp.file>"

// tempFilePattern names temporary input files.
const tempFilePattern = "*.pvcheck.tmp"

// waitDelay bounds how long Wait keeps draining pipes held open by
// descendants after the child itself has exited.
const waitDelay = 2 * time.Second

// Request describes one execution of the program under test.
type Request struct {
	Args        []string      // Program and arguments; may contain TempFilePlaceholder
	Input       string        // Text written to stdin
	TempFile    *string       // Content of the temporary file; nil for none
	Timeout     time.Duration // Wall-clock limit; 0 disables it
	OutputLimit int           // Maximum lines per stream; 0 disables it
}

// Executor runs a program and classifies how it ended.
type Executor interface {
	Execute(ctx context.Context, req Request) (*models.ExecutionResult, error)
}

// DisplayArgs returns args with the placeholder replaced by its display name.
func DisplayArgs(args []string) []string {
	out := slices.Clone(args)
	for i, a := range out {
		if a == TempFilePlaceholder {
			out[i] = TempFileDisplayName
		}
	}
	return out
}

// ProcessExecutor runs the program as a local child process.
type ProcessExecutor struct {
	tempDir string
}

// NewProcessExecutor creates an executor that writes temporary files to
// tempDir, or to the system temporary directory when tempDir is empty.
func NewProcessExecutor(tempDir string) *ProcessExecutor {
	return &ProcessExecutor{tempDir: tempDir}
}

// Execute runs the request and returns its classified outcome.
//
// Program failures (missing executable, timeout, crash, non-zero exit, too
// much output) are reported through the result kind. An error is returned
// only when the temporary file or the process plumbing fails, or when ctx is
// canceled; in the latter case the child has been killed and reaped.
func (e *ProcessExecutor) Execute(ctx context.Context, req Request) (*models.ExecutionResult, error) {
	if len(req.Args) == 0 {
		return nil, ErrEmptyCommand
	}

	args := slices.Clone(req.Args)
	if req.TempFile != nil {
		path, err := writeTempFile(e.tempDir, *req.TempFile)
		if err != nil {
			return nil, err
		}
		defer os.Remove(path)

		for i, a := range args {
			if a == TempFilePlaceholder {
				args[i] = path
			}
		}
	}

	stdout := newLineBuffer(req.OutputLimit)
	stderr := newLineBuffer(req.OutputLimit)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(req.Input)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			return &models.ExecutionResult{
				Kind:     models.KindExecutableNotFound,
				Duration: time.Since(start),
			}, nil
		}
		return nil, fmt.Errorf("%w: failed to start %s: %w", ErrSpawn, args[0], err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var expired <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	timedOut := false
	var waitErr error
	select {
	case waitErr = <-done:
	case <-expired:
		timedOut = true
		killProcessGroup(cmd)
		waitErr = <-done
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return nil, ctx.Err()
	}

	state := cmd.ProcessState
	if state == nil {
		return nil, fmt.Errorf("%w: failed to wait for %s: %w", ErrSpawn, args[0], waitErr)
	}

	result := &models.ExecutionResult{
		ExitStatus: state.ExitCode(),
		Stdout:     decodeOutput(stdout.Bytes()),
		Stderr:     decodeOutput(stderr.Bytes()),
		Duration:   time.Since(start),
	}
	sig, signaled := terminationSignal(state)
	if signaled {
		result.ExitStatus = -sig
	}

	switch {
	case timedOut:
		result.Kind = models.KindTimeout
	case state.Success():
		result.Kind = models.KindOk
	case signaled && isSegfault(sig):
		result.Kind = models.KindCrashedWithSignal
	default:
		result.Kind = models.KindNonZeroExit
	}

	if stdout.Truncated() || stderr.Truncated() {
		result.Kind = models.KindOutputLimitExceeded
	}
	return result, nil
}

// writeTempFile stores content in a new uniquely named file and returns its path.
func writeTempFile(dir, content string) (string, error) {
	f, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTempFile, err)
	}
	path := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to write %s: %w", ErrTempFile, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: failed to close %s: %w", ErrTempFile, path, err)
	}
	return path, nil
}

// isNotFound reports whether a start error means the program is missing or
// cannot be executed.
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

// decodeOutput converts captured bytes to text, dropping invalid UTF-8.
func decodeOutput(b []byte) string {
	return strings.ToValidUTF8(string(b), "")
}
