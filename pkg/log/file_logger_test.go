package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerWritesAndCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session"+FileExtension)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	if logger.Path() != path {
		t.Errorf("Path() = %q, want %q", logger.Path(), path)
	}

	logger.Log(Event{Timestamp: time.Now(), Frame: NewFrameEvent("", []byte{0x08})})
	logger.Log(Event{Timestamp: time.Now(), PDU: &PDUEvent{Opcode: 8, Name: "COMPLETE"}})
	if got := logger.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("capture file is empty")
	}

	events, err := ReadAll(path, Filter{})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 || events[1].PDU == nil || events[1].PDU.Name != "COMPLETE" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.plog")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatal(err)
		}
		logger.Log(Event{Timestamp: time.Now(), ConnectionID: "c"})
		logger.Close()
	}

	events, err := ReadAll(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "x.plog"))
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}

	logger.Log(Event{})
	if logger.Count() != 0 {
		t.Error("Log after Close was recorded")
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), Frame: NewFrameEvent("", []byte{byte(j)})})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	events, err := ReadAll(path, Filter{})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 200 {
		t.Errorf("got %d events, want 200", len(events))
	}
}

func TestNewFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.plog")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileLoggerSizeMatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "size.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(Event{Timestamp: time.Now(), PDU: &PDUEvent{Opcode: 1, Name: "CAPABILITIES"}})
	logger.Log(Event{Timestamp: time.Now(), ConnectionID: "c"})
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if logger.Size() != info.Size() {
		t.Errorf("Size() = %d, file is %d bytes", logger.Size(), info.Size())
	}
}

func TestFileLoggerCountsDroppedWrites(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "dropped.plog"))
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(Event{Timestamp: time.Now()})

	// Close the descriptor underneath the logger.
	logger.f.Close()
	logger.Log(Event{Timestamp: time.Now()})
	logger.Log(Event{Timestamp: time.Now()})

	if got := logger.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
	if got := logger.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if logger.Err() == nil {
		t.Error("Err() = nil after failed writes")
	}
	if err := logger.Close(); err == nil {
		t.Error("Close() on a closed descriptor returned nil")
	}
}
