package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/harrison/pvcheck/internal/config"
	"github.com/harrison/pvcheck/internal/models"
	"github.com/harrison/pvcheck/internal/parser"
)

// loadSuite parses the prefix files followed by the test file.
// extra sections are inserted between the two.
func loadSuite(prefixFiles []string, testFile string, extra ...models.Section) (*models.TestSuite, error) {
	sections, err := parser.ParseFiles(prefixFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	sections = append(sections, extra...)

	tests, err := parser.ParseFile(testFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load test file: %w", err)
	}
	sections = append(sections, tests...)

	return models.BuildSuite(slices.Values(sections)), nil
}

// loadSettings reads the YAML settings named by --settings, or
// .pvcheck/config.yaml in the working directory.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("settings")
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return cfg, nil
}

func caseName(tc *models.TestCase) string {
	if tc.Description == "" {
		return "NoName"
	}
	return tc.Description
}
