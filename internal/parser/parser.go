// Package parser implements the section grammar shared by test description
// files and the output of the program under test.
//
// A header line looks like "[TAG]", optionally preceded by text without '['
// and followed by any trailing text. Blank lines and lines whose first
// non-blank character is '#' are dropped everywhere. Every other line is
// content of the most recent header.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/harrison/pvcheck/internal/models"
)

// headerPattern matches a section header anywhere after leading junk that
// contains no '['. Programs that print a prompt without a newline can emit
// the header on the same physical line as the prompt.
var headerPattern = regexp.MustCompile(`^[^\[]*\[\s*([A-Za-z._][A-Za-z0-9._-]*)\s*\]`)

// ParseSections converts a sequence of raw lines into a lazy sequence of sections.
// Line terminators are removed from content. The returned sequence can be
// iterated again whenever the input sequence can.
func ParseSections(lines iter.Seq[string]) iter.Seq[models.Section] {
	return func(yield func(models.Section) bool) {
		tag := ""
		var content []string

		for line := range lines {
			line = strings.TrimRight(line, "\r\n")
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if m := headerPattern.FindStringSubmatch(line); m != nil {
				if tag != "" || len(content) > 0 {
					if !yield(models.Section{Tag: tag, Content: content}) {
						return
					}
				}
				tag = m[1]
				content = nil
				continue
			}
			content = append(content, line)
		}

		if tag != "" || len(content) > 0 {
			yield(models.Section{Tag: tag, Content: content})
		}
	}
}

// ParseString parses sections from in-memory text.
func ParseString(text string) iter.Seq[models.Section] {
	return ParseSections(strings.Lines(text))
}

// ParseReader reads all of r and returns its sections.
func ParseReader(r io.Reader) ([]models.Section, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sections: %w", err)
		}
	}
	return slices.Collect(ParseSections(slices.Values(lines))), nil
}

// ParseFile reads and parses the sections of a file.
func ParseFile(path string) ([]models.Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sections, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sections, nil
}

// ParseFiles parses several files in order and concatenates their sections.
func ParseFiles(paths ...string) ([]models.Section, error) {
	var all []models.Section
	for _, p := range paths {
		sections, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, sections...)
	}
	return all, nil
}

// Format serializes sections back into the grammar. An untagged section is
// written without a header and is only meaningful in first position.
func Format(sections []models.Section) string {
	var sb strings.Builder
	for _, s := range sections {
		if s.Tag != "" {
			fmt.Fprintf(&sb, "[%s]\n", s.Tag)
		}
		for _, line := range s.Content {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
