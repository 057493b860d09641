package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// Exit codes outside the failed-test range
const (
	MaxFailureCode = 254 // Failed test counts are capped here
	ExitInfraError = 255 // Bad settings, unreadable files, unknown tests
)

// ExitError carries the process exit code of a failed command.
// Err is nil when the only failure is the tests themselves.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// infraError wraps err as an infrastructure failure.
func infraError(err error) error {
	return &ExitError{Code: ExitInfraError, Err: err}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitInfraError
}

// NewRootCommand creates and returns the root cobra command for pvcheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pvcheck",
		Short: "Automatic verification of program output",
		Long: `pvcheck runs a program against the test cases of a test file and
checks every tagged section of its output against the expected answers.

The exit status is the number of failed tests (at most 254), or 255 when
the tests could not be run.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewInfoCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
