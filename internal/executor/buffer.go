package executor

import (
	"bytes"
	"sync"
)

// lineBuffer keeps the first limit lines written to it and drops the rest,
// so a program flooding its output cannot exhaust memory. A trailing line
// without terminator counts as a line. A limit of 0 keeps everything.
type lineBuffer struct {
	limit int

	mu       sync.Mutex
	contents []byte
	lines    int
	overflow bool
}

func newLineBuffer(limit int) *lineBuffer {
	return &lineBuffer{limit: limit}
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if b.limit <= 0 {
		b.contents = append(b.contents, p...)
		return n, nil
	}

	for len(p) > 0 && !b.overflow {
		if b.atLineStart() {
			if b.lines == b.limit {
				b.overflow = true
				break
			}
			b.lines++
		}
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			b.contents = append(b.contents, p...)
			break
		}
		b.contents = append(b.contents, p[:i+1]...)
		p = p[i+1:]
	}
	return n, nil
}

func (b *lineBuffer) atLineStart() bool {
	return len(b.contents) == 0 || b.contents[len(b.contents)-1] == '\n'
}

func (b *lineBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(b.contents))
	copy(cp, b.contents)
	return cp
}

// Truncated reports whether lines beyond the limit were dropped.
func (b *lineBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}
