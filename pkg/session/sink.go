package session

import (
	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/gatt"
)

// sink marshals transport events for one session onto the scheduler.
// Events for a session that is no longer live are dropped there.
type sink struct {
	m   *Manager
	gen uint64
}

func (k sink) post(fn func(s *Session)) {
	k.m.sched.Post(func() {
		if s := k.m.live(k.gen); s != nil {
			fn(s)
		} else {
			k.m.logger.Debug("session: dropping stale transport event", "generation", k.gen)
		}
	})
}

func (k sink) ConnectionStateChanged(state gatt.ConnectionState, err error) {
	k.post(func(s *Session) { k.m.handleConnectionState(s, state, err) })
}

func (k sink) ServicesDiscovered(status gatt.Status, catalog *gatt.Catalog) {
	k.post(func(s *Session) { k.m.handleServicesDiscovered(s, status, catalog) })
}

func (k sink) CharacteristicWritten(char uuid.UUID, status gatt.Status) {
	k.post(func(s *Session) { k.m.handleCharacteristicWritten(s, char, status) })
}

func (k sink) CharacteristicRead(char uuid.UUID, value []byte, status gatt.Status) {
	v := clone(value)
	k.post(func(s *Session) { k.m.handleCharacteristicRead(s, char, v, status) })
}

func (k sink) CharacteristicChanged(char uuid.UUID, value []byte) {
	v := clone(value)
	k.post(func(s *Session) { k.m.handleCharacteristicChanged(s, char, v) })
}

var _ gatt.EventSink = sink{}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
