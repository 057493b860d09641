package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pvcheck/internal/models"
)

func TestValgrindExecutorPrefixesCommand(t *testing.T) {
	inner := &fakeExecutor{results: []*models.ExecutionResult{{Kind: models.KindOk, Stdout: "[OUT]\n1\n"}}}
	v := NewValgrindExecutor(inner)

	res, err := v.Execute(context.Background(), Request{Args: []string{"./prog", "-x"}})
	require.NoError(t, err)
	require.Len(t, inner.requests, 1)
	assert.Equal(t, []string{"valgrind", "./prog", "-x"}, inner.requests[0].Args)
	assert.Equal(t, "[OUT]\n1\n\n[VALGRIND]\n", res.Stdout)
}

func TestSplitValgrindReport(t *testing.T) {
	stderr := "warning from program\n" +
		"==42== Memcheck, a memory error detector\n" +
		"==42==     in use at exit: 40 bytes in 1 blocks\n" +
		"==42==   total heap usage: 2 allocs, 1 frees, 1,064 bytes allocated\n" +
		"==42== ERROR SUMMARY: 0 errors from 0 contexts (suppressed: 0 from 0)\n" +
		"another program line\n"

	out, rest := splitValgrindReport("[OUT]\n1\n", stderr)
	assert.Equal(t, "[OUT]\n1\n\n[VALGRIND]\n"+
		"==42==     in use at exit: 40 bytes in 1 blocks\n"+
		"==42==   total heap usage: 2 allocs, 1 frees, 1,064 bytes allocated\n", out)
	assert.Equal(t, "warning from program\nanother program line\n", rest)
}

func TestValgrindProblem(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"==1==     in use at exit: 0 bytes in 0 blocks", false},
		{"==1==     in use at exit: 1,024 bytes in 2 blocks", true},
		{"==1==   total heap usage: 3 allocs, 3 frees, 80 bytes allocated", false},
		{"==1==   total heap usage: 1,001 allocs, 1,000 frees, 80 bytes allocated", true},
		{"==1== ERROR SUMMARY: 2 errors from 1 contexts", true},
		{"==1== ERROR SUMMARY: 0 errors from 0 contexts", false},
		{"==1== Command: ./prog", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, valgrindProblem(tt.line))
		})
	}
}
