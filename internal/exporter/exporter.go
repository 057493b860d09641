// Package exporter saves the input data of a test case to a file, so the
// program can be run by hand on the same data.
package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/pvcheck/internal/filelock"
	"github.com/harrison/pvcheck/internal/models"
)

// ErrNoInputData is returned for cases without .INPUT and .FILE sections.
var ErrNoInputData = errors.New("test has no input data")

// FileName builds the export file name from a case description.
func FileName(description string) string {
	if description == "" {
		return "NoName.dat"
	}
	return strings.ReplaceAll(description+".dat", " ", "_")
}

// Export writes the .INPUT content followed by the .FILE content of tc to a
// file in dir and returns its path. index is the 0-based case position.
func Export(tc *models.TestCase, index int, dir string) (string, error) {
	input, hasInput := tc.SectionContent(models.TagInput)
	file, hasFile := tc.SectionContent(models.TagFile)
	if !hasInput && !hasFile {
		return "", fmt.Errorf("can't export test number %d: %w", index+1, ErrNoInputData)
	}

	path := filepath.Join(dir, FileName(tc.Description))
	if err := filelock.AtomicWrite(path, []byte(input+file)); err != nil {
		return "", fmt.Errorf("export test number %d: %w", index+1, err)
	}
	return path, nil
}
