package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))
	require.NoError(t, lock.Lock())
	require.NoError(t, lock.Unlock())
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.dat")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dat")
	require.NoError(t, LockAndWrite(path, []byte("data")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestLockAndAppendConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := fmt.Sprintf("{\"writer\":%d,\"pad\":%q}\n", i, strings.Repeat("x", 4096))
			assert.NoError(t, LockAndAppend(path, []byte(record)))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, writers)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{\"writer\":"), "records must not interleave")
		assert.True(t, strings.HasSuffix(line, "\"}"))
	}
}
