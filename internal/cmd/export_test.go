package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportTests = `[.TEST]
with input
[.INPUT]
1 2
[.FILE]
a b c
[.TEST]
no input
[A]
1
`

func TestExportWritesInputData(t *testing.T) {
	testFile := writeFile(t, "suite.test", exportTests)
	dir := t.TempDir()

	out, _, err := executeCommand(t, "export", "--dir", dir, "1", testFile)
	require.NoError(t, err)

	want := filepath.Join(dir, "with_input.dat")
	assert.Equal(t, want, strings.TrimSpace(out))
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "1 2\na b c\n", string(data))
}

func TestExportWithoutInputExitsOne(t *testing.T) {
	testFile := writeFile(t, "suite.test", exportTests)
	dir := t.TempDir()

	_, _, err := executeCommand(t, "export", "--dir", dir, "2", testFile)
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "can't export test number 2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportInvalidTestNumber(t *testing.T) {
	testFile := writeFile(t, "suite.test", exportTests)

	for _, n := range []string{"x", "0", "3"} {
		_, _, err := executeCommand(t, "export", "--dir", t.TempDir(), n, testFile)
		require.Error(t, err, n)
		assert.Equal(t, ExitInfraError, ExitCode(err), n)
	}
}
