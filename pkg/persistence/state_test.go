package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "nested", "state.json"))
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		state := &ProvisionerState{Nodes: []NodeRecord{
			{Address: "C0:FF:EE:00:00:01", Name: "Mesh Light", Elements: 2, Algorithms: 0x0001, ProvisionedAt: at},
		}}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if len(got.Nodes) != 1 {
			t.Fatalf("got %d nodes, want 1", len(got.Nodes))
		}
		n := got.Nodes[0]
		if n.Name != "Mesh Light" || n.Elements != 2 || n.Algorithms != 1 || !n.ProvisionedAt.Equal(at) {
			t.Errorf("node = %+v", n)
		}
	})

	t.Run("Record", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		if err := store.Record(NodeRecord{Address: "C0:FF:EE:00:00:01", Elements: 1}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if err := store.Record(NodeRecord{Address: "C0:FF:EE:00:00:02", Elements: 1}); err != nil {
			t.Fatal(err)
		}
		// Same address, different case: replaces.
		if err := store.Record(NodeRecord{Address: "c0:ff:ee:00:00:01", Elements: 3}); err != nil {
			t.Fatal(err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != 2 {
			t.Fatalf("got %d nodes, want 2", len(got.Nodes))
		}
		n, ok := got.Node("C0:FF:EE:00:00:01")
		if !ok || n.Elements != 3 {
			t.Errorf("Node() = %+v, %v", n, ok)
		}
	})

	t.Run("Forget", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		ok, err := store.Forget("C0:FF:EE:00:00:01")
		if err != nil || ok {
			t.Errorf("Forget() on empty store = %v, %v", ok, err)
		}

		if err := store.Record(NodeRecord{Address: "C0:FF:EE:00:00:01"}); err != nil {
			t.Fatal(err)
		}
		ok, err = store.Forget("C0:FF:EE:00:00:01")
		if err != nil || !ok {
			t.Fatalf("Forget() = %v, %v", ok, err)
		}
		ok, err = store.Forget("C0:FF:EE:00:00:01")
		if err != nil || ok {
			t.Errorf("second Forget() = %v, %v", ok, err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != 0 {
			t.Errorf("nodes remain: %+v", got.Nodes)
		}
	})

	t.Run("LoadCorrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("expected error for corrupt file")
		}
		if err := NewStateStore(path).Record(NodeRecord{Address: "x"}); err == nil {
			t.Error("Record should fail on corrupt file")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		store := NewStateStore(path)

		if err := store.Clear(); err != nil {
			t.Errorf("Clear() on missing file = %v", err)
		}
		if err := store.Save(&ProvisionerState{}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("state file still exists")
		}
	})
}

func TestProvisionerStateRemove(t *testing.T) {
	s := &ProvisionerState{Nodes: []NodeRecord{{Address: "A"}, {Address: "B"}, {Address: "C"}}}

	if !s.Remove("b") {
		t.Fatal("Remove(b) = false")
	}
	if len(s.Nodes) != 2 || s.Nodes[0].Address != "A" || s.Nodes[1].Address != "C" {
		t.Errorf("nodes = %+v", s.Nodes)
	}
	if s.Remove("missing") {
		t.Error("Remove(missing) = true")
	}
}
