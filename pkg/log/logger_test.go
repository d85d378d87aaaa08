package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{})
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := NewRecorder(0)
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return its argument")
	}
}

func TestMultiLogger(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{ConnectionID: "x"})
	m.Log(Event{ConnectionID: "y"})

	if a.Len() != 2 || b.Len() != 2 {
		t.Errorf("got %d and %d events, want 2 each", a.Len(), b.Len())
	}
}

func TestRecorderLimit(t *testing.T) {
	r := NewRecorder(2)
	r.Log(Event{ConnectionID: "1"})
	r.Log(Event{ConnectionID: "2"})
	r.Log(Event{ConnectionID: "3"})

	events := r.Events(Filter{})
	if len(events) != 2 || events[0].ConnectionID != "2" || events[1].ConnectionID != "3" {
		t.Errorf("unexpected events: %+v", events)
	}
	if got := r.Events(Filter{ConnectionID: "3"}); len(got) != 1 {
		t.Errorf("filtered: got %d events", len(got))
	}
}

func TestSlogAdapter(t *testing.T) {
	reason := uint8(4)

	tests := []struct {
		name  string
		event Event
		keys  map[string]any
	}{
		{
			name:  "frame",
			event: Event{Direction: DirectionOut, Layer: LayerGATT, Frame: NewFrameEvent("", []byte{0x00, 0x00, 0x0A})},
			keys:  map[string]any{"direction": "OUT", "layer": "GATT", "frame": "00000a", "frame_size": float64(3)},
		},
		{
			name:  "pdu",
			event: Event{Layer: LayerPDU, RemoteAddr: "AA:BB", PDU: &PDUEvent{Opcode: 9, Name: "FAILED", Reason: &reason}},
			keys:  map[string]any{"opcode": "FAILED", "reason": float64(4), "remote": "AA:BB"},
		},
		{
			name:  "state",
			event: Event{Category: CategoryState, StateChange: &StateChangeEvent{Entity: StateEntityLink, OldState: "connecting", NewState: "discovering"}},
			keys:  map[string]any{"entity": "LINK", "new_state": "discovering", "category": "STATE"},
		},
		{
			name:  "discovery",
			event: Event{Category: CategoryDiscovery, Discovery: &DiscoveryEvent{Outcome: DiscoveryTimeout, Attempt: 2, MaxAttempts: 5}},
			keys:  map[string]any{"outcome": "TIMEOUT", "attempt": float64(2)},
		},
		{
			name:  "error",
			event: Event{Category: CategoryError, Error: &ErrorEventData{Layer: LayerSession, Message: "lost", Context: "write"}},
			keys:  map[string]any{"error_msg": "lost", "error_context": "write", "error_layer": "SESSION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			tt.event.Timestamp = time.Now()
			tt.event.ConnectionID = "conn-1"
			NewSlogAdapter(logger).Log(tt.event)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if entry["msg"] != "protocol" || entry["conn_id"] != "conn-1" {
				t.Errorf("header: %v", entry)
			}
			for k, want := range tt.keys {
				if entry[k] != want {
					t.Errorf("%s: got %v, want %v", k, entry[k], want)
				}
			}
		})
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewSlogAdapter(logger).Log(Event{Frame: NewFrameEvent("", []byte{1})})

	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}
