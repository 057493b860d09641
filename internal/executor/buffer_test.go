package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineBuffer(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		writes    []string
		want      string
		truncated bool
	}{
		{"unlimited", 0, []string{"a\nb\n", "c"}, "a\nb\nc", false},
		{"under limit", 3, []string{"a\n", "b\n"}, "a\nb\n", false},
		{"exactly at limit", 2, []string{"a\nb\n"}, "a\nb\n", false},
		{"partial last line counts", 2, []string{"a\nb"}, "a\nb", false},
		{"over limit in one write", 2, []string{"a\nb\nc\nd\n"}, "a\nb\n", true},
		{"over limit across writes", 2, []string{"a", "\nb", "\n", "c"}, "a\nb\n", true},
		{"partial line continues", 1, []string{"ab", "cd\n"}, "abcd\n", false},
		{"empty lines count", 2, []string{"\n\n\n"}, "\n\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newLineBuffer(tt.limit)
			for _, w := range tt.writes {
				n, err := b.Write([]byte(w))
				assert.NoError(t, err)
				assert.Equal(t, len(w), n)
			}
			assert.Equal(t, tt.want, string(b.Bytes()))
			assert.Equal(t, tt.truncated, b.Truncated())
		})
	}
}
