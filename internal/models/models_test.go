package models

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionText(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		want    string
	}{
		{"empty", NewSection("A"), ""},
		{"single line", NewSection("A", "x"), "x\n"},
		{"multiple lines", NewSection("A", "x", "", "y"), "x\n\ny\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.section.Text())
		})
	}
}

func TestSectionKinds(t *testing.T) {
	assert.True(t, NewSection(".INPUT").IsSpecial())
	assert.False(t, NewSection(".INPUT").IsData())
	assert.False(t, NewSection("").IsData())
	assert.True(t, NewSection("OUT").IsData())
}

func TestSectionCopyIsIndependent(t *testing.T) {
	orig := NewSection("A", "1", "2")
	cp := orig.Copy()
	cp.Content[0] = "changed"
	assert.Equal(t, "1", orig.Content[0])
}

func TestTestCaseMergesSameTag(t *testing.T) {
	tc := NewTestCase("merge")
	tc.AddSection(NewSection("OUT", "a"))
	tc.AddSection(NewSection("IN", "x"))
	tc.AddSection(NewSection("OUT", "b", "c"))

	out, ok := tc.FindSection("OUT")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, out.Content)

	var tags []string
	for _, s := range tc.Sections() {
		tags = append(tags, s.Tag)
	}
	assert.Equal(t, []string{"OUT", "IN"}, tags)
}

func TestTestCaseSectionsDirective(t *testing.T) {
	tc := NewTestCase("opts")
	tc.AddSection(NewSection(TagSections, "NUMBERS unordered", "  ", "WORDS foo bar"))

	_, stored := tc.FindSection(TagSections)
	assert.False(t, stored, ".SECTIONS must not be stored as a section")
	assert.True(t, tc.HasOption("NUMBERS", OptionUnordered))
	assert.False(t, tc.HasOption("WORDS", OptionUnordered))
	assert.Equal(t, []string{"bar", "foo"}, tc.SectionOptions("WORDS"))
	assert.Empty(t, tc.SectionOptions("MISSING"))
}

func TestTestCaseSectionContent(t *testing.T) {
	tc := NewTestCase("content")
	tc.AddSection(NewSection(TagInput))
	tc.AddSection(NewSection(TagFile, "l1", "l2"))

	text, ok := tc.SectionContent(TagInput)
	assert.True(t, ok)
	assert.Equal(t, "", text)

	text, ok = tc.SectionContent(TagFile)
	assert.True(t, ok)
	assert.Equal(t, "l1\nl2\n", text)

	_, ok = tc.SectionContent(TagArgs)
	assert.False(t, ok)
}

func TestTestCaseDataSections(t *testing.T) {
	tc := NewTestCase("data")
	tc.AddSection(NewSection("", "junk"))
	tc.AddSection(NewSection(TagInput, "1"))
	tc.AddSection(NewSection("A", "x"))
	tc.AddSection(NewSection("B"))

	var tags []string
	for _, s := range tc.DataSections() {
		tags = append(tags, s.Tag)
	}
	assert.Equal(t, []string{"A", "B"}, tags)
}

func TestBuildSuite(t *testing.T) {
	tests := []struct {
		name         string
		sections     []Section
		descriptions []string
		prefixTags   []string
	}{
		{
			name:         "no test directive yields one unnamed case",
			sections:     []Section{NewSection("OUT", "1")},
			descriptions: []string{""},
			prefixTags:   []string{"OUT"},
		},
		{
			name:         "empty stream still yields one case",
			sections:     nil,
			descriptions: []string{""},
		},
		{
			name: "named and anonymous tests",
			sections: []Section{
				NewSection(TagArgs, "-v"),
				NewSection(TagTest, "  first  ", "ignored"),
				NewSection("OUT", "1"),
				NewSection(TagTest),
				NewSection("OUT", "2"),
			},
			descriptions: []string{"first", "Test-2"},
			prefixTags:   []string{TagArgs},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := BuildSuite(slices.Values(tt.sections))
			require.Equal(t, len(tt.descriptions), suite.Len())
			for i, want := range tt.descriptions {
				tc, err := suite.Case(i)
				require.NoError(t, err)
				assert.Equal(t, want, tc.Description)
			}
			var tags []string
			for _, s := range suite.Prefix() {
				tags = append(tags, s.Tag)
			}
			assert.Equal(t, tt.prefixTags, tags)
		})
	}
}

func TestBuildSuitePrefixMergedIntoEachCase(t *testing.T) {
	suite := BuildSuite(slices.Values([]Section{
		NewSection("OUT", "shared"),
		NewSection(TagTest, "one"),
		NewSection("OUT", "own1"),
		NewSection(TagTest, "two"),
	}))
	require.Equal(t, 2, suite.Len())

	first, _ := suite.Case(0)
	out, ok := first.FindSection("OUT")
	require.True(t, ok)
	assert.Equal(t, []string{"shared", "own1"}, out.Content)

	second, _ := suite.Case(1)
	out, ok = second.FindSection("OUT")
	require.True(t, ok)
	assert.Equal(t, []string{"shared"}, out.Content)

	// The shared prefix must not be mutated by merging.
	assert.Equal(t, []string{"shared"}, suite.Prefix()[0].Content)
}

func TestSuiteCaseOutOfRange(t *testing.T) {
	suite := BuildSuite(slices.Values([]Section{NewSection(TagTest, "only")}))
	for _, i := range []int{-1, 1, 7} {
		_, err := suite.Case(i)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	}
}

func TestMatchOutcome(t *testing.T) {
	assert.Equal(t, 0.0, MatchOutcome{}.MaxDifference())
	assert.True(t, MatchOutcome{}.Passed())

	m := MatchOutcome{Differences: []float64{0, 0.5, 1}}
	assert.Equal(t, 1.0, m.MaxDifference())
	assert.Equal(t, 1.5, m.TotalDifference())
	assert.False(t, m.Passed())
}

func TestSessionSummaryCounts(t *testing.T) {
	s := NewSessionSummary("run", "pvcheck.test", []string{"./prog"})

	c := s.StartCase(0, "a")
	c.Kind = KindOk
	s.RecordSection("OUT", SectionOK)
	s.RecordSection("ERR", SectionWarning)
	s.Cases[0].Passed = false

	c = s.StartCase(1, "b")
	c.Kind = KindTimeout
	s.RecordSection("OUT", SectionExecError)
	s.RecordSection("ERR", SectionExecError)

	c = s.StartCase(2, "c")
	c.Kind = KindOk
	c.Passed = true
	s.RecordSection("OUT", SectionOK)

	assert.Equal(t, []string{"OUT", "ERR"}, s.Tags())
	assert.Equal(t, TagCounts{OK: 2, Error: 1}, s.Counts("OUT"))
	assert.Equal(t, TagCounts{Warning: 1, Error: 1}, s.Counts("ERR"))
	assert.Equal(t, TagCounts{OK: 1, Warning: 1, Error: 1}, s.Counts(ProgramTag))
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, 2, s.Failed())
}
