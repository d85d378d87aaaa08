package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ProvisionerState contains the provisioner's persistent state.
type ProvisionerState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Nodes contains one record per provisioned device address.
	Nodes []NodeRecord `json:"nodes,omitempty"`
}

// NodeRecord describes a device that completed provisioning.
type NodeRecord struct {
	// Address is the device's Bluetooth address.
	Address string `json:"address"`

	// Name is the advertised name, if one was seen.
	Name string `json:"name,omitempty"`

	// Elements is the element count from the device's capabilities.
	Elements uint8 `json:"elements,omitempty"`

	// Algorithms is the algorithm bitmask from the device's capabilities.
	Algorithms uint16 `json:"algorithms,omitempty"`

	// ProvisionedAt is when the device reported completion.
	ProvisionedAt time.Time `json:"provisioned_at"`
}

// Node returns the record for addr.
func (s *ProvisionerState) Node(addr string) (NodeRecord, bool) {
	for _, n := range s.Nodes {
		if strings.EqualFold(n.Address, addr) {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// Put adds rec, replacing any record with the same address.
func (s *ProvisionerState) Put(rec NodeRecord) {
	for i, n := range s.Nodes {
		if strings.EqualFold(n.Address, rec.Address) {
			s.Nodes[i] = rec
			return
		}
	}
	s.Nodes = append(s.Nodes, rec)
}

// Remove deletes the record for addr. It reports whether one existed.
func (s *ProvisionerState) Remove(addr string) bool {
	for i, n := range s.Nodes {
		if strings.EqualFold(n.Address, addr) {
			s.Nodes = append(s.Nodes[:i], s.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// StateStore manages persistence of provisioner state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the state to disk.
func (s *StateStore) Save(state *ProvisionerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

func (s *StateStore) save(state *ProvisionerState) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*ProvisionerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *StateStore) load() (*ProvisionerState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ProvisionerState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Record loads the state, stores rec and saves it again.
func (s *StateStore) Record(rec NodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if state == nil {
		state = &ProvisionerState{}
	}
	state.Put(rec)
	return s.save(state)
}

// Forget removes the record for addr. It reports whether one existed.
func (s *StateStore) Forget(addr string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil || state == nil {
		return false, err
	}
	if !state.Remove(addr) {
		return false, nil
	}
	return true, s.save(state)
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
