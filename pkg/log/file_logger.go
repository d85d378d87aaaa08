package log

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileExtension is the conventional capture file extension.
const FileExtension = ".plog"

// FileLogger appends events to a capture file as a stream of CBOR records.
// A record is encoded in full before anything reaches the file, so an
// event that fails to encode leaves no partial bytes behind.
//
// Write failures never reach the caller of Log. They are counted and the
// most recent one is kept for Err.
type FileLogger struct {
	path string

	mu      sync.Mutex
	f       *os.File
	events  int
	size    int64
	dropped int
	err     error
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}
	return &FileLogger{path: path, f: f}, nil
}

// Log appends event. It is ignored after Close.
func (l *FileLogger) Log(event Event) {
	rec, encErr := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return
	}
	if encErr != nil {
		l.drop(fmt.Errorf("encode event: %w", encErr))
		return
	}
	n, err := l.f.Write(rec)
	l.size += int64(n)
	if err != nil {
		l.drop(fmt.Errorf("write %s: %w", l.path, err))
		return
	}
	l.events++
}

func (l *FileLogger) drop(err error) {
	l.dropped++
	l.err = err
}

// Path returns the capture file path.
func (l *FileLogger) Path() string {
	return l.path
}

// Count returns the number of events written.
func (l *FileLogger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

// Size returns the number of bytes this logger has appended.
func (l *FileLogger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Dropped returns the number of events that could not be written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Err returns the most recent write failure, or nil.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close flushes the capture to disk and closes it. Later calls are no-ops.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f := l.f
	if f == nil {
		return nil
	}
	l.f = nil
	return errors.Join(f.Sync(), f.Close())
}

var _ Logger = (*FileLogger)(nil)
