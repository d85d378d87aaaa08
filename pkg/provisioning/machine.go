package provisioning

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/pdu"
)

// Writer sends encoded PDU bytes to the device.
type Writer interface {
	Write(b []byte) error
}

// Machine enforces provisioning step ordering and translates between
// commands, PDUs and events.
//
// The authoritative state is set only by Begin, AdvanceToData and PDUs
// received from the device. SendStart records PUBLIC_KEY_EXCHANGE as the
// expected next state; a send is accepted when either the authoritative
// state or the expected state matches the state it requires. The expected
// state is cleared whenever the authoritative state changes.
//
// Machine is not safe for concurrent use. It is meant to be driven from a
// single dispatch loop.
type Machine struct {
	config Config
	writer Writer
	logger *slog.Logger
	plog   log.Logger

	state    State
	expected State
	hasNext  bool

	connID string
	remote string

	onEvent       EventHandler
	onStateChange func(old, new State)
}

// NewMachine creates a machine in IDLE that writes through w.
func NewMachine(config Config, w Writer) *Machine {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		config: config,
		writer: w,
		logger: logger,
		plog:   log.OrNoop(config.ProtocolLogger),
	}
}

// OnEvent sets the handler for inbound events.
func (m *Machine) OnEvent(h EventHandler) {
	m.onEvent = h
}

// OnStateChange sets a callback for authoritative state changes.
func (m *Machine) OnStateChange(fn func(old, new State)) {
	m.onStateChange = fn
}

// SetConnection tags protocol capture events with the session's
// connection ID and remote address.
func (m *Machine) SetConnection(connID, remote string) {
	m.connID = connID
	m.remote = remote
}

// State returns the authoritative state.
func (m *Machine) State() State {
	return m.state
}

// Expected returns the expected next state recorded by SendStart.
func (m *Machine) Expected() (State, bool) {
	return m.expected, m.hasNext
}

// ExpectedDataSize returns the length SendData accepts.
func (m *Machine) ExpectedDataSize() int {
	return m.config.ExpectedDataSize
}

// Begin starts a provisioning run, moving to INVITE from any state.
func (m *Machine) Begin() {
	m.setState(StateInvite, "begin")
}

// Reset returns to IDLE.
func (m *Machine) Reset() {
	m.setState(StateIdle, "reset")
}

// SendInvite sends the invite with an attention duration in seconds.
func (m *Machine) SendInvite(attentionDuration int) error {
	if err := m.require("invite", StateInvite); err != nil {
		return err
	}
	if attentionDuration < 0 || attentionDuration > 255 {
		return fmt.Errorf("%w: attention duration %d out of range [0,255]", ErrInvalidParameter, attentionDuration)
	}
	return m.send(pdu.Invite{AttentionDuration: uint8(attentionDuration)})
}

// SendStart sends the configured Start parameters.
func (m *Machine) SendStart() error {
	if err := m.require("start", StateStart); err != nil {
		return err
	}
	if err := m.send(m.config.Start); err != nil {
		return err
	}

	if m.config.OptimisticStart {
		m.setState(StatePublicKeyExchange, "start sent")
		return nil
	}
	m.expected = StatePublicKeyExchange
	m.hasNext = true
	m.logger.Debug("provisioning: awaiting device public key", "expected", m.expected)
	return nil
}

// SendPublicKey sends the provisioner's 64-byte public key.
func (m *Machine) SendPublicKey(key []byte) error {
	if err := m.require("public key", StatePublicKeyExchange); err != nil {
		return err
	}
	if len(key) != pdu.PublicKeySize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), pdu.PublicKeySize)
	}
	return m.send(pdu.PublicKey{Key: key})
}

// SendConfirmation sends the provisioner's 16-byte confirmation.
func (m *Machine) SendConfirmation(confirmation []byte) error {
	if err := m.require("confirmation", StateConfirmation); err != nil {
		return err
	}
	if len(confirmation) != pdu.ConfirmationSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidConfirmationSize, len(confirmation), pdu.ConfirmationSize)
	}
	return m.send(pdu.Confirmation{Value: confirmation})
}

// SendRandom sends the provisioner's 16-byte random.
func (m *Machine) SendRandom(random []byte) error {
	if err := m.require("random", StateRandom); err != nil {
		return err
	}
	if len(random) != pdu.RandomSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidRandomSize, len(random), pdu.RandomSize)
	}
	return m.send(pdu.Random{Value: random})
}

// AdvanceToData moves from RANDOM to DATA once the caller has verified the
// device's confirmation against its random.
func (m *Machine) AdvanceToData() error {
	if err := m.require("advance to data", StateRandom); err != nil {
		return err
	}
	m.setState(StateData, "random verified")
	return nil
}

// SendData sends the encrypted provisioning data and MIC.
func (m *Machine) SendData(data []byte) error {
	if err := m.require("data", StateData); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrInvalidData
	}
	if len(data) != m.config.ExpectedDataSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDataSize, len(data), m.config.ExpectedDataSize)
	}
	return m.send(pdu.Data{Payload: data})
}

// HandleNotification processes bytes received from the device. Empty
// values and opcodes the provisioner does not act on are ignored.
func (m *Machine) HandleNotification(value []byte) {
	if len(value) == 0 {
		return
	}

	p, err := pdu.Decode(value)
	if err != nil {
		if op := pdu.Opcode(value[0]); op.Known() {
			m.logger.Warn("provisioning: malformed notification", "opcode", op, "error", err)
		} else {
			m.logger.Debug("provisioning: ignoring unknown opcode", "opcode", op)
		}
		return
	}
	m.capturePDU(log.DirectionIn, p)

	switch msg := p.(type) {
	case pdu.Capabilities:
		ev := Event{Type: EventCapabilities, Payload: clone(msg.Raw)}
		if caps, err := msg.Parse(); err == nil {
			ev.Capabilities = &caps
		} else {
			m.logger.Warn("provisioning: short capabilities", "len", len(msg.Raw))
		}
		m.setState(StateStart, "capabilities received")
		m.emit(ev)

	case pdu.PeerPublicKey:
		m.setState(StatePublicKeyExchange, "device public key received")
		m.emit(Event{Type: EventPublicKey, Payload: clone(msg.Key)})

	case pdu.Confirmation:
		m.setState(StateConfirmation, "device confirmation received")
		m.emit(Event{Type: EventConfirmation, Payload: clone(msg.Value)})

	case pdu.Random:
		m.setState(StateRandom, "device random received")
		m.emit(Event{Type: EventRandom, Payload: clone(msg.Value)})

	case pdu.Complete:
		m.setState(StateComplete, "device reported complete")
		m.emit(Event{Type: EventComplete})

	case pdu.Failed:
		m.setState(StateFailed, fmt.Sprintf("device reported %s", msg.Code))
		m.emit(Event{Type: EventFailed, Payload: []byte{byte(msg.Code)}, Reason: msg.Code})

	default:
		m.logger.Debug("provisioning: unhandled opcode", "opcode", p.Opcode())
	}
}

func (m *Machine) require(op string, want State) error {
	if m.state == want || (m.hasNext && m.expected == want) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s, current %s", ErrInvalidState, op, want, m.state)
}

func (m *Machine) send(p pdu.PDU) error {
	b, err := pdu.Encode(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if err := m.writer.Write(b); err != nil {
		return fmt.Errorf("failed to send %s: %w", p.Opcode(), err)
	}
	m.capturePDU(log.DirectionOut, p)
	return nil
}

func (m *Machine) setState(s State, reason string) {
	old := m.state
	m.state = s
	m.hasNext = false
	if old == s {
		return
	}

	m.logger.Debug("provisioning: state change", "from", old, "to", s, "reason", reason)
	m.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: m.connID,
		RemoteAddr:   m.remote,
		Layer:        log.LayerPDU,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityProvisioning,
			OldState: old.String(),
			NewState: s.String(),
			Reason:   reason,
		},
	})
	if m.onStateChange != nil {
		m.onStateChange(old, s)
	}
}

func (m *Machine) capturePDU(dir log.Direction, p pdu.PDU) {
	ev := &log.PDUEvent{
		Opcode:  uint8(p.Opcode()),
		Name:    p.Opcode().String(),
		Payload: clone(pdu.Payload(p)),
	}
	if f, ok := p.(pdu.Failed); ok {
		code := uint8(f.Code)
		ev.Reason = &code
	}
	m.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: m.connID,
		RemoteAddr:   m.remote,
		Direction:    dir,
		Layer:        log.LayerPDU,
		Category:     log.CategoryMessage,
		PDU:          ev,
	})
}

func (m *Machine) emit(ev Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
