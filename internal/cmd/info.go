package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "List the tests of a test file",
		Long: `List the tests defined in a test file together with the number
used to select them with run -T and export.`,
		Args: cobra.ExactArgs(1),
		RunE: infoCommand,
	}
	cmd.Flags().StringSliceP("config", "c", nil, "Sections file prepended to the test file (repeatable)")
	return cmd
}

func infoCommand(cmd *cobra.Command, args []string) error {
	prefixFiles, _ := cmd.Flags().GetStringSlice("config")
	suite, err := loadSuite(prefixFiles, args[0])
	if err != nil {
		return infraError(err)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Test"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	for i, tc := range suite.Cases() {
		t.AppendRow(table.Row{i + 1, caseName(tc)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
