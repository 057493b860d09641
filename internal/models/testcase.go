package models

import (
	"slices"
	"strings"
)

// TestCase is a named collection of merged sections plus per-section options.
// Sections keep their first-insertion order; a tag appears at most once.
type TestCase struct {
	Description string

	sections []Section
	index    map[string]int
	options  map[string]map[string]bool
}

// NewTestCase creates an empty test case with the given description.
func NewTestCase(description string) *TestCase {
	return &TestCase{
		Description: description,
		index:       make(map[string]int),
		options:     make(map[string]map[string]bool),
	}
}

// AddSection merges a section into the test case.
//
// A .SECTIONS block is not stored: each of its lines is split on whitespace,
// the first token names the target tag and the rest become that tag's option set.
// Any other section is appended to an existing section with the same tag, or
// stored as a new section.
func (tc *TestCase) AddSection(s Section) {
	if s.Tag == TagSections {
		for _, line := range s.Content {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			opts := make(map[string]bool, len(fields)-1)
			for _, opt := range fields[1:] {
				opts[opt] = true
			}
			tc.options[fields[0]] = opts
		}
		return
	}

	if i, ok := tc.index[s.Tag]; ok {
		tc.sections[i].Content = append(tc.sections[i].Content, s.Content...)
		return
	}
	tc.index[s.Tag] = len(tc.sections)
	tc.sections = append(tc.sections, s.Copy())
}

// FindSection returns the merged section with the given tag.
func (tc *TestCase) FindSection(tag string) (Section, bool) {
	i, ok := tc.index[tag]
	if !ok {
		return Section{}, false
	}
	return tc.sections[i], true
}

// SectionContent returns the text of the section with the given tag.
// The boolean is false when the section does not exist, which is distinct
// from an existing but empty section.
func (tc *TestCase) SectionContent(tag string) (string, bool) {
	s, ok := tc.FindSection(tag)
	if !ok {
		return "", false
	}
	return s.Text(), true
}

// Sections returns all sections in insertion order, directives included.
func (tc *TestCase) Sections() []Section {
	return append([]Section(nil), tc.sections...)
}

// DataSections returns the sections subject to matching: tagged and not special.
func (tc *TestCase) DataSections() []Section {
	var out []Section
	for _, s := range tc.sections {
		if s.IsData() {
			out = append(out, s)
		}
	}
	return out
}

// SectionOptions returns the option names declared for a tag, sorted by name.
func (tc *TestCase) SectionOptions(tag string) []string {
	opts := tc.options[tag]
	out := make([]string, 0, len(opts))
	for o := range opts {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// HasOption reports whether the given option was declared for a tag.
func (tc *TestCase) HasOption(tag, option string) bool {
	return tc.options[tag][option]
}
