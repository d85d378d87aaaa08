package session

import (
	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/meshprov/meshprov-go/pkg/dispatch"
	"github.com/meshprov/meshprov-go/pkg/gatt"
)

// Session is the binding between one device address and one connection.
// It is owned by the Manager and must only be read on its scheduler.
type Session struct {
	id   string
	gen  uint64
	addr gatt.Address
	conn gatt.Conn

	connected         bool
	discoveryComplete bool
	attempts          int
	discoveryTimer    dispatch.Timer

	catalog *gatt.Catalog
	service uuid.UUID
	char    uuid.UUID

	pending []*deferredWrite
	link    *fsm.FSM
}

type deferredWrite struct {
	data  []byte
	timer dispatch.Timer
	done  bool
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Address returns the device address.
func (s *Session) Address() gatt.Address { return s.addr }

// Connected reports whether the transport reported the link as up.
func (s *Session) Connected() bool { return s.connected }

// DiscoveryComplete reports whether the provisioning service and
// characteristic have been resolved.
func (s *Session) DiscoveryComplete() bool { return s.discoveryComplete }

// DiscoveryAttempts returns the attempts made since the last success.
func (s *Session) DiscoveryAttempts() int { return s.attempts }

// Catalog returns the latest discovered catalog, or nil.
func (s *Session) Catalog() *gatt.Catalog { return s.catalog }

// Resolved returns the resolved service and characteristic.
func (s *Session) Resolved() (service, char uuid.UUID, ok bool) {
	return s.service, s.char, s.discoveryComplete
}

// PendingWrites returns the number of deferred writes not yet issued.
func (s *Session) PendingWrites() int {
	n := 0
	for _, w := range s.pending {
		if !w.done {
			n++
		}
	}
	return n
}

// LinkState returns the link lifecycle state.
func (s *Session) LinkState() string { return s.link.Current() }
