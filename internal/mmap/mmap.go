// Package mmap maps regular files into memory for shared read/write
// access, growing them to the requested size first if needed. It is built
// directly on golang.org/x/sys/unix rather than a C library.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CreateRW opens (creating if necessary) the file at path, grows it to at
// least size bytes, and maps it PROT_READ|PROT_WRITE, MAP_SHARED. The
// returned slice aliases the file; writes through it are visible to every
// other process mapping the same file, with no locking of any kind.
func CreateRW(path string, size int) ([]byte, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mmap: open %q: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmap: stat %q: %w", path, err)
	}
	if fi.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("mmap: truncate %q to %d: %w", path, size, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: mmap %q (%d bytes): %w", path, size, err)
	}
	return data, nil
}

// Unmap releases a mapping returned by CreateRW. The log engine never
// unmaps on a crash path; this exists for orderly shutdown and tests.
func Unmap(data []byte) error {
	if data == nil {
		return nil
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("mmap: munmap: %w", err)
	}
	return nil
}

// ReadAll reads the entire file at path into a heap buffer, decoupling the
// returned copy from any process still writing to the same path. The
// reader side of the format loads such a private snapshot rather than
// mapping the file read-only.
func ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mmap: read %q: %w", path, err)
	}
	return data, nil
}
