package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/dispatch"
	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/log"
)

// Listener receives session events. Methods are called on the scheduler.
type Listener interface {
	// ConnectionStateChanged reports that the session's link came up or
	// the session ended.
	ConnectionStateChanged(addr gatt.Address, state gatt.ConnectionState)

	// ProvisioningServiceFound reports that discovery resolved the
	// provisioning service and characteristic.
	ProvisioningServiceFound(addr gatt.Address)

	// Notification delivers a value received on the provisioning
	// characteristic.
	Notification(value []byte)

	// CharacteristicWritten reports the outcome of an issued write.
	CharacteristicWritten(err error)

	// CharacteristicRead reports the outcome of a characteristic read.
	CharacteristicRead(char uuid.UUID, value []byte, err error)

	// Error reports a failure that has no synchronous caller.
	Error(message string, err error)
}

// Manager owns the single live Session.
//
// Manager methods must be called on the scheduler passed to NewManager.
type Manager struct {
	config    Config
	transport gatt.Transport
	sched     dispatch.Scheduler
	listener  Listener
	logger    *slog.Logger
	plog      log.Logger

	gen     uint64
	session *Session
}

// NewManager creates a manager.
func NewManager(config Config, transport gatt.Transport, sched dispatch.Scheduler, listener Listener) *Manager {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if listener == nil {
		listener = NopListener{}
	}
	return &Manager{
		config:    config,
		transport: transport,
		sched:     sched,
		listener:  listener,
		logger:    logger,
		plog:      log.OrNoop(config.ProtocolLogger),
	}
}

// Current returns the live session, or nil.
func (m *Manager) Current() *Session {
	return m.session
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Connect tears down any live session and opens a connection to addr. The
// returned session is connecting; the transport reports the outcome later.
func (m *Manager) Connect(ctx context.Context, addr gatt.Address) (*Session, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty address", gatt.ErrDeviceNotFound)
	}
	m.Disconnect()

	m.gen++
	s := &Session{
		id:   uuid.NewString(),
		gen:  m.gen,
		addr: addr,
	}
	s.link = newLink(func(from, to, event string) {
		m.captureState(s, log.StateEntityLink, from, to, event)
	})
	fire(s.link, linkConnect)

	conn, err := m.transport.Connect(ctx, addr, sink{m: m, gen: s.gen})
	if err != nil {
		fire(s.link, linkDrop)
		m.captureError(s, "connect", err)
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	s.conn = conn
	m.session = s
	m.logger.Info("session: connecting", "address", addr, "session", s.id)
	return s, nil
}

// Disconnect tears down the live session. It is a no-op without one.
func (m *Manager) Disconnect() {
	if s := m.session; s != nil {
		m.teardown(s, "local disconnect", nil)
	}
}

// Write sends a PDU on the provisioning characteristic. Before discovery
// completes the write is deferred and nil is returned; the outcome is then
// reported through the Listener.
func (m *Manager) Write(b []byte) error {
	s := m.session
	if s == nil {
		return ErrNoSession
	}

	if !s.connected || !s.discoveryComplete {
		m.deferWrite(s, b)
		return nil
	}

	if err := m.checkResolved(s); err != nil {
		m.logger.Warn("session: resolved attribute missing, rediscovering", "error", err)
		m.captureError(s, "write", err)
		fire(s.link, linkRediscover)
		m.startDiscovery(s)
		return err
	}
	return m.writeNow(s, b)
}

func (m *Manager) live(gen uint64) *Session {
	if m.session != nil && m.session.gen == gen {
		return m.session
	}
	return nil
}

func (m *Manager) handleConnectionState(s *Session, state gatt.ConnectionState, err error) {
	if state == gatt.StateConnected {
		if s.connected {
			return
		}
		s.connected = true
		s.discoveryComplete = false
		s.attempts = 0
		fire(s.link, linkConnected)
		m.captureState(s, log.StateEntityConnection, "connecting", "connected", "")
		m.logger.Info("session: connected", "address", s.addr, "session", s.id)

		m.listener.ConnectionStateChanged(s.addr, gatt.StateConnected)
		if m.live(s.gen) == nil {
			return
		}
		m.startDiscovery(s)
		return
	}

	if err != nil {
		msg := "Connection lost"
		if !s.connected {
			msg = "Connection failed"
		}
		m.captureError(s, "connection", err)
		m.listener.Error(msg, err)
		if m.live(s.gen) == nil {
			return
		}
	}
	m.teardown(s, "remote disconnect", err)
}

func (m *Manager) handleServicesDiscovered(s *Session, status gatt.Status, catalog *gatt.Catalog) {
	m.stopDiscoveryTimer(s)

	if !status.OK() {
		m.logger.Warn("session: service discovery failed", "status", int(status), "attempt", s.attempts)
		m.captureDiscovery(s, log.DiscoveryFailed, nil)
		m.startDiscovery(s)
		return
	}

	s.catalog = catalog
	names := m.logCatalog(catalog)

	svc, ok := catalog.MeshService()
	var char gatt.Characteristic
	if ok {
		char, ok = svc.Characteristic(gatt.ProvisioningDataInUUID)
	}
	if !ok {
		m.captureDiscovery(s, log.DiscoveryIncomplete, names)
		fire(s.link, linkRediscover)
		m.listener.Error("Required service or characteristic not found", ErrRequiredServiceNotFound)
		if m.live(s.gen) == nil {
			return
		}
		m.startDiscovery(s)
		return
	}

	wasComplete := s.discoveryComplete
	s.service = svc.UUID
	s.char = char.UUID
	s.discoveryComplete = true
	s.attempts = 0
	fire(s.link, linkDiscovered)
	m.captureDiscovery(s, log.DiscoveryComplete, names)
	if !wasComplete {
		m.captureState(s, log.StateEntityDiscovery, "incomplete", "complete", svc.Type().String())
	}
	m.logger.Info("session: provisioning service found",
		"address", s.addr, "service", svc.Type(), "characteristic", char.UUID, "properties", char.Properties)

	m.listener.ProvisioningServiceFound(s.addr)
	if m.live(s.gen) == nil {
		return
	}
	m.flushPending(s)
}

func (m *Manager) handleCharacteristicWritten(s *Session, char uuid.UUID, status gatt.Status) {
	if status.OK() {
		m.listener.CharacteristicWritten(nil)
		return
	}
	err := fmt.Errorf("%w: status %#x", gatt.ErrWriteFailed, int(status))
	m.captureError(s, "write", err)
	m.listener.CharacteristicWritten(err)
	m.listener.Error("Characteristic write failed", err)
}

func (m *Manager) handleCharacteristicRead(s *Session, char uuid.UUID, value []byte, status gatt.Status) {
	if !status.OK() {
		m.listener.CharacteristicRead(char, nil, fmt.Errorf("characteristic read failed: status %#x", int(status)))
		return
	}
	m.captureFrame(s, log.DirectionIn, char, value)
	m.listener.CharacteristicRead(char, value, nil)
}

func (m *Manager) handleCharacteristicChanged(s *Session, char uuid.UUID, value []byte) {
	want := gatt.ProvisioningDataInUUID
	if s.discoveryComplete {
		want = s.char
	}
	if char != want {
		m.logger.Debug("session: ignoring notification", "characteristic", char)
		return
	}
	m.captureFrame(s, log.DirectionIn, char, value)
	m.listener.Notification(value)
}

// startDiscovery issues the next discovery attempt unless one is in flight.
// When the budget is spent the session is torn down.
func (m *Manager) startDiscovery(s *Session) {
	if !s.connected || s.discoveryTimer != nil {
		return
	}
	if s.attempts >= m.config.MaxDiscoveryAttempts {
		m.exhaust(s)
		return
	}

	s.attempts++
	gen := s.gen
	s.discoveryTimer = m.sched.AfterFunc(m.config.DiscoveryTimeout, func() {
		m.onDiscoveryTimeout(gen)
	})
	m.captureDiscovery(s, log.DiscoveryStarted, nil)
	m.logger.Debug("session: discovering services", "attempt", s.attempts, "max", m.config.MaxDiscoveryAttempts)

	if err := s.conn.DiscoverServices(); err != nil {
		// The attempt still counts; its timeout drives the retry.
		m.logger.Warn("session: discovery request rejected", "attempt", s.attempts, "error", err)
	}
}

func (m *Manager) onDiscoveryTimeout(gen uint64) {
	s := m.live(gen)
	if s == nil {
		return
	}
	s.discoveryTimer = nil

	m.logger.Warn("session: discovery attempt timed out", "attempt", s.attempts, "timeout", m.config.DiscoveryTimeout)
	m.captureDiscovery(s, log.DiscoveryTimeout, nil)
	m.captureError(s, "discovery", fmt.Errorf("%w: attempt %d of %d after %s",
		ErrDiscoveryTimeout, s.attempts, m.config.MaxDiscoveryAttempts, m.config.DiscoveryTimeout))
	m.startDiscovery(s)
}

func (m *Manager) exhaust(s *Session) {
	m.logger.Error("session: service discovery failed", "address", s.addr, "attempts", s.attempts)
	m.captureDiscovery(s, log.DiscoveryExhausted, nil)

	m.listener.Error("Service discovery failed after multiple attempts", ErrServiceDiscoveryFailed)
	if m.live(s.gen) == nil {
		return
	}
	m.teardown(s, "discovery exhausted", ErrServiceDiscoveryFailed)
}

func (m *Manager) stopDiscoveryTimer(s *Session) {
	if s.discoveryTimer != nil {
		s.discoveryTimer.Stop()
		s.discoveryTimer = nil
	}
}

func (m *Manager) deferWrite(s *Session, b []byte) {
	w := &deferredWrite{data: clone(b)}
	s.pending = append(s.pending, w)
	m.logger.Debug("session: deferring write until discovery completes", "len", len(b), "pending", s.PendingWrites())

	m.startDiscovery(s)
	if m.live(s.gen) == nil {
		return
	}
	m.armDeferred(s, w)
}

func (m *Manager) armDeferred(s *Session, w *deferredWrite) {
	gen := s.gen
	w.timer = m.sched.AfterFunc(m.config.DiscoveryTimeout, func() {
		m.retryDeferred(gen, w)
	})
}

func (m *Manager) retryDeferred(gen uint64, w *deferredWrite) {
	s := m.live(gen)
	if s == nil || w.done {
		return
	}
	w.timer = nil

	if s.connected && s.discoveryComplete {
		m.flushPending(s)
		return
	}

	m.startDiscovery(s)
	if m.live(gen) == nil {
		return
	}
	m.armDeferred(s, w)
}

// flushPending issues deferred writes in the order they were made.
func (m *Manager) flushPending(s *Session) {
	pending := s.pending
	s.pending = nil

	for i, w := range pending {
		if w.done {
			continue
		}
		if m.live(s.gen) == nil {
			s.pending = append(s.pending, pending[i:]...)
			return
		}
		w.done = true
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if err := m.checkResolved(s); err != nil {
			m.listener.Error("Characteristic write failed", err)
			continue
		}
		_ = m.writeNow(s, w.data)
	}
}

func (m *Manager) checkResolved(s *Session) error {
	svc, ok := s.catalog.Service(s.service)
	if !ok {
		return fmt.Errorf("%w: %s", gatt.ErrServiceNotFound, s.service)
	}
	if _, ok := svc.Characteristic(s.char); !ok {
		return fmt.Errorf("%w: %s", gatt.ErrCharacteristicNotFound, s.char)
	}
	return nil
}

func (m *Manager) writeNow(s *Session, b []byte) error {
	if err := s.conn.WriteCharacteristic(s.service, s.char, b); err != nil {
		err = fmt.Errorf("%w: %w", gatt.ErrWriteFailed, err)
		m.captureError(s, "write", err)
		m.listener.Error("Characteristic write failed", err)
		return err
	}
	m.captureFrame(s, log.DirectionOut, s.char, b)
	return nil
}

func (m *Manager) teardown(s *Session, reason string, cause error) {
	if m.session == s {
		m.session = nil
	}
	m.stopDiscoveryTimer(s)

	abandoned := 0
	for _, w := range s.pending {
		if w.done {
			continue
		}
		w.done = true
		if w.timer != nil {
			w.timer.Stop()
		}
		abandoned++
	}
	s.pending = nil

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			m.logger.Debug("session: close failed", "error", err)
		}
	}

	old := "connecting"
	if s.connected {
		old = "connected"
	}
	s.connected = false
	s.discoveryComplete = false
	s.catalog = nil
	fire(s.link, linkDrop)
	m.captureState(s, log.StateEntityConnection, old, "disconnected", reason)
	m.logger.Info("session: closed", "address", s.addr, "session", s.id, "reason", reason)

	if abandoned > 0 {
		err := ErrWriteAbandoned
		if cause != nil {
			err = fmt.Errorf("%w: %w", ErrWriteAbandoned, cause)
		}
		m.listener.Error(fmt.Sprintf("%d pending write(s) abandoned", abandoned), err)
	}
	m.listener.ConnectionStateChanged(s.addr, gatt.StateDisconnected)
}

func (m *Manager) logCatalog(catalog *gatt.Catalog) []string {
	services := catalog.Services()
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.UUID.String())
		m.logger.Debug("session: service", "uuid", svc.UUID, "type", svc.Type())
		for _, c := range svc.Characteristics {
			m.logger.Debug("session: characteristic", "uuid", c.UUID, "properties", c.Properties)
		}
	}
	return names
}

func (m *Manager) event(s *Session) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		RemoteAddr:   string(s.addr),
		LocalRole:    log.RoleProvisioner,
	}
}

func (m *Manager) captureFrame(s *Session, dir log.Direction, char uuid.UUID, b []byte) {
	e := m.event(s)
	e.Direction = dir
	e.Layer = log.LayerGATT
	e.Category = log.CategoryMessage
	e.Frame = log.NewFrameEvent(char.String(), b)
	m.plog.Log(e)
}

func (m *Manager) captureDiscovery(s *Session, outcome log.DiscoveryOutcome, services []string) {
	e := m.event(s)
	e.Layer = log.LayerSession
	e.Category = log.CategoryDiscovery
	e.Discovery = &log.DiscoveryEvent{
		Outcome:     outcome,
		Attempt:     s.attempts,
		MaxAttempts: m.config.MaxDiscoveryAttempts,
		Services:    services,
	}
	m.plog.Log(e)
}

func (m *Manager) captureState(s *Session, entity log.StateEntity, from, to, reason string) {
	e := m.event(s)
	e.Layer = log.LayerSession
	e.Category = log.CategoryState
	e.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: from,
		NewState: to,
		Reason:   reason,
	}
	m.plog.Log(e)
}

func (m *Manager) captureError(s *Session, op string, err error) {
	e := m.event(s)
	e.Layer = log.LayerSession
	e.Category = log.CategoryError
	e.Error = &log.ErrorEventData{
		Layer:   log.LayerSession,
		Message: err.Error(),
		Context: op,
	}
	m.plog.Log(e)
}

// NopListener ignores all session events.
type NopListener struct{}

func (NopListener) ConnectionStateChanged(gatt.Address, gatt.ConnectionState) {}
func (NopListener) ProvisioningServiceFound(gatt.Address)                     {}
func (NopListener) Notification([]byte)                                       {}
func (NopListener) CharacteristicWritten(error)                               {}
func (NopListener) CharacteristicRead(uuid.UUID, []byte, error)               {}
func (NopListener) Error(string, error)                                       {}

var _ Listener = NopListener{}
