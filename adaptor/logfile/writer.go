// Package logfile provides a size-capped log file for slog handlers. When the
// file would grow past its limit it is shifted to path.1, older copies move
// up one number, and copies beyond the retention count are dropped.
package logfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer is a goroutine-safe io.WriteCloser over a rotating file.
type Writer struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	file     *os.File
	size     int64
}

// Open creates the parent directory if needed and opens path for appending.
// The existing size counts toward maxBytes, so a restarted probe continues
// the same file.
//
//	w, err := logfile.Open("/var/log/collatz-probe/collatz-probe.log", 16<<20, 4)
//	if err != nil { ... }
//	defer w.Close()
func Open(path string, maxBytes int64, keep int) (*Writer, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("logfile: maxBytes must be > 0, got %d", maxBytes)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logfile: mkdir %s: %w", filepath.Dir(path), err)
	}

	w := &Writer{path: path, maxBytes: maxBytes, keep: max(keep, 0)}
	if err := w.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rotating first if p would push the file past maxBytes.
// An oversized p still lands whole in a fresh file.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, errors.New("logfile: write to closed writer")
	}
	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the underlying file. Further writes fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// open opens w.path with the extra flag (O_APPEND or O_TRUNC) and records
// its size. Caller must hold w.mu or own w exclusively.
func (w *Writer) open(flag int) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|flag, 0o644)
	if err != nil {
		return fmt.Errorf("logfile: open %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("logfile: stat %s: %w", w.path, err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotate shifts path.N-1 -> path.N down to path -> path.1, dropping anything
// past keep, then starts an empty file. Caller must hold w.mu.
func (w *Writer) rotate() error {
	_ = w.file.Close()
	w.file = nil

	if w.keep == 0 {
		return w.open(os.O_TRUNC)
	}

	_ = os.Remove(w.numbered(w.keep))
	for i := w.keep - 1; i >= 1; i-- {
		_ = os.Rename(w.numbered(i), w.numbered(i+1))
	}
	_ = os.Rename(w.path, w.numbered(1))

	return w.open(os.O_TRUNC)
}

func (w *Writer) numbered(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}
