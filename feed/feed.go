// Package feed supplies the payload lines the emulator transmits.
//
// A feed is a fixed set of text lines walked cyclically: after the last line
// the next request yields the first again. The engine polls the feed from
// both its scheduler and its receiver tasks, so sources are safe for
// concurrent use.
package feed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Source yields successive payload lines.
type Source interface {
	// NextLine returns the next payload line with ok=true, cycling back to
	// the first line after the last. ok is false when the source holds no
	// usable lines; an empty source keeps reporting false.
	NextLine() (line string, ok bool)
}

// Reader is a cyclic Source over an io.ReadSeeker.
//
// Lines are terminated by LF or CRLF; the terminator is stripped.
// Whitespace-only lines are skipped (payloads are never blank). A trailing
// line without a terminator is still yielded. Safe for concurrent use.
type Reader struct {
	mu sync.Mutex
	rs io.ReadSeeker
	br *bufio.Reader
}

// NewReader creates a cyclic Reader over rs. The Reader assumes sole
// ownership of the read position.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{rs: rs, br: bufio.NewReader(rs)}
}

// Lines creates an in-memory cyclic Reader over the given lines.
func Lines(lines ...string) *Reader {
	return NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

// NextLine implements Source. A call scans at most one full cycle, so an
// empty source reports itself instead of spinning.
func (r *Reader) NextLine() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pass := 0; pass < 2; pass++ {
		for {
			raw, err := r.br.ReadString('\n')
			if line := strings.TrimRight(raw, "\r\n"); strings.TrimSpace(line) != "" {
				return line, true
			}
			if err != nil {
				break
			}
		}

		if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
			return "", false
		}
		r.br.Reset(r.rs)
	}

	return "", false
}

// File is a file-backed cyclic Source. Close releases the underlying file.
type File struct {
	*Reader
	f *os.File
}

// Open creates a cyclic Source over the file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}

	return &File{Reader: NewReader(f), f: f}, nil
}

// Close closes the underlying file. NextLine must not be called afterwards.
func (f *File) Close() error {
	return f.f.Close()
}
