package models

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrIndexOutOfRange is returned when a test case index does not exist.
var ErrIndexOutOfRange = errors.New("test case index out of range")

// TestSuite is an ordered list of test cases built from a section stream.
// Sections preceding the first .TEST form the prefix shared by every case.
type TestSuite struct {
	prefix []Section
	cases  []*TestCase
}

// BuildSuite groups a section stream into test cases.
//
// Every .TEST section starts a new case described by its first trimmed line,
// or "Test-N" when it has no content. Each case receives the prefix sections
// followed by its own, merged tag by tag. When the stream holds no .TEST at
// all, the prefix becomes a single unnamed case.
func BuildSuite(sections iter.Seq[Section]) *TestSuite {
	suite := &TestSuite{}

	var current []Section
	var description string
	inCase := false
	count := 0

	flush := func() {
		if !inCase {
			suite.prefix = current
			return
		}
		tc := NewTestCase(description)
		for _, s := range suite.prefix {
			tc.AddSection(s)
		}
		for _, s := range current {
			tc.AddSection(s)
		}
		suite.cases = append(suite.cases, tc)
	}

	for s := range sections {
		if s.Tag != TagTest {
			current = append(current, s.Copy())
			continue
		}
		flush()
		count++
		inCase = true
		current = []Section{s.Copy()}
		if len(s.Content) > 0 {
			description = strings.TrimSpace(s.Content[0])
		} else {
			description = fmt.Sprintf("Test-%d", count)
		}
	}
	flush()

	if len(suite.cases) == 0 {
		tc := NewTestCase("")
		for _, s := range suite.prefix {
			tc.AddSection(s)
		}
		suite.cases = append(suite.cases, tc)
	}
	return suite
}

// Len returns the number of test cases (always at least one).
func (ts *TestSuite) Len() int {
	return len(ts.cases)
}

// Cases returns the test cases in order.
func (ts *TestSuite) Cases() []*TestCase {
	return append([]*TestCase(nil), ts.cases...)
}

// Prefix returns the sections shared by all cases.
func (ts *TestSuite) Prefix() []Section {
	return append([]Section(nil), ts.prefix...)
}

// Case returns the i-th test case (0-based).
func (ts *TestSuite) Case(i int) (*TestCase, error) {
	if i < 0 || i >= len(ts.cases) {
		return nil, fmt.Errorf("%w: %d (suite has %d tests)", ErrIndexOutOfRange, i, len(ts.cases))
	}
	return ts.cases[i], nil
}
