// Package models holds the plain data types shared across pvcheck: sections,
// test cases, suites, execution results and match outcomes.
package models

import "strings"

// Reserved directive tags
const (
	TagTest     = ".TEST"     // Starts a new test case; first line is its description
	TagInput    = ".INPUT"    // Text written to the program's stdin
	TagFile     = ".FILE"     // Content of the temporary input file
	TagArgs     = ".ARGS"     // Extra command line arguments, one per line
	TagSections = ".SECTIONS" // Per-section matching options
)

// OptionUnordered makes a section match as a multiset of lines.
const OptionUnordered = "unordered"

// Section is a tagged block of text lines.
// Tag is empty only for the implicit untagged block that precedes the first header.
type Section struct {
	Tag     string
	Content []string
}

// NewSection creates a section holding a copy of the given lines.
func NewSection(tag string, lines ...string) Section {
	return Section{Tag: tag, Content: append([]string(nil), lines...)}
}

// IsSpecial reports whether the section is a directive (tag starting with '.').
func (s Section) IsSpecial() bool {
	return strings.HasPrefix(s.Tag, ".")
}

// IsData reports whether the section takes part in output matching.
func (s Section) IsData() bool {
	return s.Tag != "" && !s.IsSpecial()
}

// Copy returns a section that shares no storage with s.
func (s Section) Copy() Section {
	return NewSection(s.Tag, s.Content...)
}

// Text renders the content as newline-terminated lines.
// An empty section renders as the empty string.
func (s Section) Text() string {
	if len(s.Content) == 0 {
		return ""
	}
	return strings.Join(s.Content, "\n") + "\n"
}
