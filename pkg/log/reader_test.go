package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test capture: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func TestReaderIteratesEvents(t *testing.T) {
	path := createTestLogFile(t, []Event{
		{Timestamp: time.Now(), ConnectionID: "conn-1", Layer: LayerGATT},
		{Timestamp: time.Now(), ConnectionID: "conn-2", Layer: LayerPDU},
		{Timestamp: time.Now(), ConnectionID: "conn-3", Layer: LayerSession, Category: CategoryState},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].ConnectionID != "conn-1" || read[2].ConnectionID != "conn-3" {
		t.Errorf("order: %q ... %q", read[0].ConnectionID, read[2].ConnectionID)
	}
}

func TestReaderEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.plog")); err == nil {
		t.Error("expected error")
	}
}

func TestFilterMatches(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	in, out := DirectionIn, DirectionOut
	pduLayer := LayerPDU
	state := CategoryState
	before, after := base.Add(-time.Minute), base.Add(time.Minute)

	event := Event{
		Timestamp:    base,
		ConnectionID: "c1",
		RemoteAddr:   "AA:BB",
		Direction:    DirectionIn,
		Layer:        LayerPDU,
		Category:     CategoryMessage,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"conn match", Filter{ConnectionID: "c1"}, true},
		{"conn mismatch", Filter{ConnectionID: "c2"}, false},
		{"remote mismatch", Filter{RemoteAddr: "CC:DD"}, false},
		{"direction match", Filter{Direction: &in}, true},
		{"direction mismatch", Filter{Direction: &out}, false},
		{"layer match", Filter{Layer: &pduLayer}, true},
		{"category mismatch", Filter{Category: &state}, false},
		{"time window", Filter{TimeStart: &before, TimeEnd: &after}, true},
		{"start after", Filter{TimeStart: &after}, false},
		{"end exclusive", Filter{TimeEnd: &base}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.matches(event); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadAllFiltered(t *testing.T) {
	errCat := CategoryError
	path := createTestLogFile(t, []Event{
		{Timestamp: time.Now(), Category: CategoryMessage},
		{Timestamp: time.Now(), Category: CategoryError, Error: &ErrorEventData{Message: "a"}},
		{Timestamp: time.Now(), Category: CategoryError, Error: &ErrorEventData{Message: "b"}},
	})

	events, err := ReadAll(path, Filter{Category: &errCat})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Error.Message != "a" {
		t.Errorf("unexpected events: %+v", events)
	}
}
