package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harrison/pvcheck/internal/exporter"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <N> <file>",
		Short: "Save the input data of a test to a file",
		Long: `Write the .INPUT and .FILE sections of test N (as numbered by info)
to <test name>.dat, so the program can be run by hand on the same data.

Exits with status 1 when the test has no input data.`,
		Args: cobra.ExactArgs(2),
		RunE: exportCommand,
	}
	cmd.Flags().StringSliceP("config", "c", nil, "Sections file prepended to the test file (repeatable)")
	cmd.Flags().String("dir", ".", "Directory receiving the exported file")
	return cmd
}

func exportCommand(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return infraError(fmt.Errorf("invalid test number %q", args[0]))
	}
	prefixFiles, _ := cmd.Flags().GetStringSlice("config")
	dir, _ := cmd.Flags().GetString("dir")

	suite, err := loadSuite(prefixFiles, args[1])
	if err != nil {
		return infraError(err)
	}
	tc, err := suite.Case(n - 1)
	if err != nil {
		return infraError(fmt.Errorf("test %d: %w", n, err))
	}

	path, err := exporter.Export(tc, n-1, dir)
	if errors.Is(err, exporter.ErrNoInputData) {
		return &ExitError{Code: 1, Err: err}
	}
	if err != nil {
		return infraError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
