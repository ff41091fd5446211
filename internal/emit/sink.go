package emit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// OutputError reports a failure on a generated file.
type OutputError struct {
	Path string
	Op   string // "create", "write" or "commit"
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// FileSink writes to a temporary file next to its destination and renames it
// into place on Commit. Until then the destination is untouched; Abort
// removes the temporary file. Abort after Commit is a no-op, so callers can
// defer it right after Create.
type FileSink struct {
	dest string
	tmp  *os.File
	bw   *bufio.Writer
	done bool
}

// Create opens a sink for dest, creating parent directories as needed.
func Create(dest string) (*FileSink, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &OutputError{Path: dest, Op: "create", Err: err}
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return nil, &OutputError{Path: dest, Op: "create", Err: err}
	}
	return &FileSink{
		dest: dest,
		tmp:  f,
		bw:   bufio.NewWriterSize(f, 64*1024),
	}, nil
}

// Path returns the destination path.
func (s *FileSink) Path() string {
	return s.dest
}

func (s *FileSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, &OutputError{Path: s.dest, Op: "write", Err: os.ErrClosed}
	}
	n, err := s.bw.Write(p)
	if err != nil {
		return n, &OutputError{Path: s.dest, Op: "write", Err: err}
	}
	return n, nil
}

// Commit flushes the data and moves it to the destination.
func (s *FileSink) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	tmpPath := s.tmp.Name()

	if err := s.bw.Flush(); err != nil {
		_ = s.tmp.Close()
		_ = os.Remove(tmpPath)
		return &OutputError{Path: s.dest, Op: "write", Err: err}
	}
	if err := s.tmp.Chmod(0o644); err != nil {
		_ = s.tmp.Close()
		_ = os.Remove(tmpPath)
		return &OutputError{Path: s.dest, Op: "commit", Err: err}
	}
	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &OutputError{Path: s.dest, Op: "commit", Err: err}
	}
	if err := os.Rename(tmpPath, s.dest); err != nil {
		_ = os.Remove(tmpPath)
		return &OutputError{Path: s.dest, Op: "commit", Err: err}
	}
	return nil
}

// Abort discards everything written so far.
func (s *FileSink) Abort() {
	if s == nil || s.done {
		return
	}
	s.done = true
	_ = s.tmp.Close()
	_ = os.Remove(s.tmp.Name())
}
