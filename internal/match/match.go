// Package match compares the actual output lines of a section with the
// expected ones, producing a difference score per line.
//
// Tokens are compared according to the shape of the expected token: a
// fractional number is compared after rounding the actual value to the same
// number of decimals, an integer is compared by value, anything else must be
// identical.
package match

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/pvcheck/internal/models"
)

var (
	realPattern = regexp.MustCompile(`^[-+]?[0-9]+\.([0-9]*)$`)
	intPattern  = regexp.MustCompile(`^[-+]?[0-9]+$`)
)

// CompareElements reports whether an actual token matches an expected token.
func CompareElements(value, expected string) bool {
	if m := realPattern.FindStringSubmatch(expected); m != nil {
		return compareReal(value, expected, len(m[1]))
	}
	if intPattern.MatchString(expected) {
		return compareInt(value, expected)
	}
	return value == expected
}

// compareReal rounds value to the given number of decimals and compares it
// with expected. Formatting with a fixed precision rounds the exact binary
// value half to even, which is the rounding applied to the actual value.
func compareReal(value, expected string, digits int) bool {
	want, err := strconv.ParseFloat(expected, 64)
	if err != nil {
		return false
	}
	got, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(got, 'f', digits, 64), 64)
	if err != nil {
		return false
	}
	return rounded == want
}

func compareInt(value, expected string) bool {
	want, ok := new(big.Int).SetString(expected, 10)
	if !ok {
		return false
	}
	got, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return false
	}
	return got.Cmp(want) == 0
}

// CompareLines returns the difference between two lines in [0, 1].
// Lines are split on whitespace and tokens are paired by position; the score
// is the fraction of positions (over the longer line) that do not match.
func CompareLines(actual, expected string) float64 {
	act := strings.Fields(actual)
	exp := strings.Fields(expected)

	matched := 0
	for i := 0; i < len(act) && i < len(exp); i++ {
		if CompareElements(act[i], exp[i]) {
			matched++
		}
	}
	den := max(len(act), len(exp))
	return float64(den-matched) / float64(max(den, 1))
}

// CompareSections compares the actual lines of a section with the expected ones.
//
// With ordered set, lines are paired by position and a line missing on either
// side scores 1. The alignment is the expected lines padded with absent
// entries up to the length of the actual lines.
//
// Without ordering, each actual line takes the first still-unmatched expected
// line that matches it exactly. Actual lines without such a match score 1 and
// have no alignment. Expected lines left over are appended with score 1, in
// their original order.
func CompareSections(actual, expected []string, ordered bool) models.MatchOutcome {
	if ordered {
		return compareOrdered(actual, expected)
	}
	return compareUnordered(actual, expected)
}

func compareOrdered(actual, expected []string) models.MatchOutcome {
	n := max(len(actual), len(expected))
	out := models.MatchOutcome{
		Differences: make([]float64, n),
		Aligned:     make([]models.AlignedLine, n),
	}
	for i := range n {
		if i < len(expected) {
			out.Aligned[i] = models.AlignedLine{Text: expected[i], Present: true}
		}
		if i >= len(actual) || i >= len(expected) {
			out.Differences[i] = 1
			continue
		}
		out.Differences[i] = CompareLines(actual[i], expected[i])
	}
	return out
}

func compareUnordered(actual, expected []string) models.MatchOutcome {
	used := make([]bool, len(expected))
	out := models.MatchOutcome{
		Differences: make([]float64, 0, len(actual)+len(expected)),
		Aligned:     make([]models.AlignedLine, 0, len(actual)+len(expected)),
	}

	for _, line := range actual {
		found := -1
		for j, exp := range expected {
			if !used[j] && CompareLines(line, exp) == 0 {
				found = j
				break
			}
		}
		if found < 0 {
			out.Differences = append(out.Differences, 1)
			out.Aligned = append(out.Aligned, models.AlignedLine{})
			continue
		}
		used[found] = true
		out.Differences = append(out.Differences, 0)
		out.Aligned = append(out.Aligned, models.AlignedLine{Text: expected[found], Present: true})
	}

	for j, exp := range expected {
		if used[j] {
			continue
		}
		out.Differences = append(out.Differences, 1)
		out.Aligned = append(out.Aligned, models.AlignedLine{Text: exp, Present: true})
	}
	return out
}
