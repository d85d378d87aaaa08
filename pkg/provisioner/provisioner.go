package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/dispatch"
	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/provisioning"
	"github.com/meshprov/meshprov-go/pkg/session"
)

// Provisioner errors.
var (
	// ErrClosed is returned by commands after Close.
	ErrClosed = errors.New("provisioner closed")

	// ErrInternal is reported when a command or callback panicked.
	ErrInternal = errors.New("internal error")

	// ErrHandlerPanic is reported when an event handler panicked.
	ErrHandlerPanic = errors.New("event handler panicked")
)

// closeTimeout bounds how long Close waits for the loop and for pending
// event deliveries.
const closeTimeout = 2 * time.Second

// Status is a snapshot of the provisioner.
type Status struct {
	State             provisioning.State
	Address           gatt.Address
	SessionID         string
	Connected         bool
	DiscoveryComplete bool
	DiscoveryAttempts int
	PendingWrites     int
	LinkState         string
	Scanning          bool
}

// Provisioner drives a single device through provisioning.
type Provisioner struct {
	config Config
	logger *slog.Logger

	scanner gatt.Scanner

	loop     *dispatch.Loop
	delivery *dispatch.Loop

	// Owned by loop.
	sessions *session.Manager
	machine  *provisioning.Machine

	state atomic.Uint32

	mu         sync.Mutex
	handlers   []EventHandler
	scanCancel context.CancelFunc
	closed     bool
}

// New creates a Provisioner using transport. Scanning is available when
// transport also implements gatt.Scanner.
func New(config Config, transport gatt.Transport) (*Provisioner, error) {
	if transport == nil {
		return nil, errors.New("provisioner: transport is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withLoggers()

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Provisioner{
		config: config,
		logger: logger,
	}
	p.scanner, _ = transport.(gatt.Scanner)
	p.loop = dispatch.NewLoop(dispatch.Config{Logger: logger, OnPanic: p.loopPanicked})
	p.delivery = dispatch.NewLoop(dispatch.Config{Logger: logger})

	p.sessions = session.NewManager(config.Session, transport, p.loop, sessionEvents{p})
	p.machine = provisioning.NewMachine(config.Machine, p.sessions)
	p.machine.OnEvent(p.handleMachineEvent)
	p.machine.OnStateChange(func(_, s provisioning.State) {
		p.state.Store(uint32(s))
	})

	go p.loop.Run(context.Background())
	go p.delivery.Run(context.Background())
	return p, nil
}

// OnEvent registers an event handler.
func (p *Provisioner) OnEvent(handler EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// StartScan starts reporting advertisements as EventDeviceFound. Calling it
// while a scan is running is a no-op.
func (p *Provisioner) StartScan(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.scanner == nil {
		return fmt.Errorf("%w: transport cannot scan", gatt.ErrScanFailed)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.scanCancel != nil {
		p.mu.Unlock()
		return nil
	}
	scanCtx, cancel := context.WithCancel(context.Background())
	p.scanCancel = cancel
	p.mu.Unlock()

	filter := p.config.Filter
	err := p.scanner.Scan(scanCtx, func(adv gatt.Advertisement) {
		if !filter.Match(adv) {
			return
		}
		p.emit(Event{Type: EventDeviceFound, Device: deviceFromAdvertisement(adv), Address: adv.Address})
	})
	if err != nil {
		cancel()
		p.mu.Lock()
		p.scanCancel = nil
		p.mu.Unlock()

		p.logger.Warn("provisioner: scan failed", "error", err)
		if errors.Is(err, gatt.ErrPermissionDenied) || errors.Is(err, gatt.ErrScanFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", gatt.ErrScanFailed, err)
	}

	p.logger.Info("provisioner: scanning")
	return nil
}

// StopScan stops a running scan. It is a no-op when not scanning.
func (p *Provisioner) StopScan() error {
	p.mu.Lock()
	cancel := p.scanCancel
	p.scanCancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if err := p.scanner.StopScan(); err != nil {
		return fmt.Errorf("%w: %w", gatt.ErrScanFailed, err)
	}
	p.logger.Info("provisioner: scan stopped")
	return nil
}

// Scanning reports whether a scan is running.
func (p *Provisioner) Scanning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scanCancel != nil
}

// Connect opens a session to addr, replacing any live session. The outcome
// is reported through EventConnectionStateChange.
func (p *Provisioner) Connect(ctx context.Context, addr gatt.Address) error {
	return p.do(ctx, func() error {
		return p.connect(ctx, addr)
	})
}

// Disconnect tears down the live session.
func (p *Provisioner) Disconnect(ctx context.Context) error {
	return p.do(ctx, func() error {
		p.sessions.Disconnect()
		return nil
	})
}

// StartProvisioning opens a fresh session to addr, tearing down any live
// one even when it targets the same device, and moves the state machine
// to INVITE.
func (p *Provisioner) StartProvisioning(ctx context.Context, addr gatt.Address) error {
	return p.do(ctx, func() error {
		if err := p.connect(ctx, addr); err != nil {
			return err
		}
		p.machine.Begin()
		return nil
	})
}

// SendInvite sends the invite with an attention duration in seconds.
func (p *Provisioner) SendInvite(ctx context.Context, attentionDuration int) error {
	return p.do(ctx, func() error {
		return p.machine.SendInvite(attentionDuration)
	})
}

// SendStart sends the configured Start parameters.
func (p *Provisioner) SendStart(ctx context.Context) error {
	return p.do(ctx, p.machine.SendStart)
}

// SendPublicKey sends the provisioner's 64-byte public key.
func (p *Provisioner) SendPublicKey(ctx context.Context, key []byte) error {
	return p.do(ctx, func() error {
		return p.machine.SendPublicKey(key)
	})
}

// SendConfirmation sends the provisioner's 16-byte confirmation.
func (p *Provisioner) SendConfirmation(ctx context.Context, confirmation []byte) error {
	return p.do(ctx, func() error {
		return p.machine.SendConfirmation(confirmation)
	})
}

// SendRandom sends the provisioner's 16-byte random.
func (p *Provisioner) SendRandom(ctx context.Context, random []byte) error {
	return p.do(ctx, func() error {
		return p.machine.SendRandom(random)
	})
}

// AdvanceToData moves from RANDOM to DATA.
func (p *Provisioner) AdvanceToData(ctx context.Context) error {
	return p.do(ctx, p.machine.AdvanceToData)
}

// SendData sends the encrypted provisioning data.
func (p *Provisioner) SendData(ctx context.Context, data []byte) error {
	return p.do(ctx, func() error {
		return p.machine.SendData(data)
	})
}

// State returns the provisioning state.
func (p *Provisioner) State() provisioning.State {
	return provisioning.State(p.state.Load())
}

// Status returns a snapshot of the session and state machine.
func (p *Provisioner) Status(ctx context.Context) (Status, error) {
	var st Status
	err := p.do(ctx, func() error {
		st.State = p.machine.State()
		if s := p.sessions.Current(); s != nil {
			st.Address = s.Address()
			st.SessionID = s.ID()
			st.Connected = s.Connected()
			st.DiscoveryComplete = s.DiscoveryComplete()
			st.DiscoveryAttempts = s.DiscoveryAttempts()
			st.PendingWrites = s.PendingWrites()
			st.LinkState = s.LinkState()
		} else {
			st.LinkState = session.LinkDisconnected
		}
		return nil
	})
	st.Scanning = p.Scanning()
	return st, err
}

// Close stops scanning, tears down the session and stops both goroutines.
// Events produced before Close are delivered first. Close must not be
// called from an event handler.
func (p *Provisioner) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	if err := p.StopScan(); err != nil {
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := p.loop.Do(ctx, p.sessions.Disconnect); err != nil {
		errs = append(errs, fmt.Errorf("disconnect: %w", err))
	}
	p.loop.Close()

	if err := p.delivery.Do(ctx, func() {}); err != nil {
		p.logger.Warn("provisioner: pending events dropped", "error", err)
	}
	p.delivery.Close()

	p.logger.Info("provisioner: closed")
	return errors.Join(errs...)
}

func (p *Provisioner) do(ctx context.Context, fn func() error) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := ErrInternal
	if derr := p.loop.Do(ctx, func() { err = fn() }); derr != nil {
		if errors.Is(derr, dispatch.ErrClosed) {
			return ErrClosed
		}
		return derr
	}
	return err
}

func (p *Provisioner) connect(ctx context.Context, addr gatt.Address) error {
	s, err := p.sessions.Connect(ctx, addr)
	if err != nil {
		return err
	}
	p.machine.SetConnection(s.ID(), string(addr))
	return nil
}

func (p *Provisioner) handleMachineEvent(ev provisioning.Event) {
	out := Event{Payload: ev.Payload}
	if s := p.sessions.Current(); s != nil {
		out.Address = s.Address()
	}

	switch ev.Type {
	case provisioning.EventCapabilities:
		out.Type = EventCapabilities
		out.Capabilities = ev.Capabilities
	case provisioning.EventPublicKey:
		out.Type = EventPublicKey
	case provisioning.EventConfirmation:
		out.Type = EventConfirmation
	case provisioning.EventRandom:
		out.Type = EventRandom
	case provisioning.EventComplete:
		out.Type = EventComplete
		p.logger.Info("provisioner: provisioning complete", "address", out.Address)
	case provisioning.EventFailed:
		out.Type = EventFailed
		out.Code = ev.Reason
		out.Err = &provisioning.PeerFailureError{Code: ev.Reason}
		p.logger.Warn("provisioner: device reported failure", "address", out.Address, "reason", ev.Reason)
	default:
		return
	}
	p.emit(out)
}

func (p *Provisioner) emit(ev Event) {
	p.delivery.Post(func() { p.deliver(ev) })
}

func (p *Provisioner) deliver(ev Event) {
	p.mu.Lock()
	handlers := make([]EventHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	for _, h := range handlers {
		p.invoke(h, ev)
	}
}

func (p *Provisioner) invoke(h EventHandler, ev Event) {
	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("provisioner: event handler panicked", "event", ev.Type, "panic", fmt.Sprint(v))
			if ev.Type == EventError && errors.Is(ev.Err, ErrHandlerPanic) {
				return
			}
			p.emit(Event{
				Type:    EventError,
				Message: "Event handler panicked",
				Err:     fmt.Errorf("%w: %v", ErrHandlerPanic, v),
			})
		}
	}()
	h(ev)
}

func (p *Provisioner) loopPanicked(v any) {
	p.emit(Event{
		Type:    EventError,
		Message: "Internal error",
		Err:     fmt.Errorf("%w: %v", ErrInternal, v),
	})
}

// sessionEvents adapts session callbacks to provisioner events. It runs on
// the loop.
type sessionEvents struct {
	p *Provisioner
}

func (l sessionEvents) ConnectionStateChanged(addr gatt.Address, state gatt.ConnectionState) {
	p := l.p
	if state == gatt.StateDisconnected && !p.machine.State().Terminal() {
		p.machine.Reset()
	}
	p.emit(Event{Type: EventConnectionStateChange, Address: addr, ConnectionState: state.String()})
}

func (l sessionEvents) ProvisioningServiceFound(addr gatt.Address) {
	l.p.emit(Event{Type: EventProvisioningServiceFound, Address: addr})
}

func (l sessionEvents) Notification(value []byte) {
	l.p.machine.HandleNotification(value)
}

func (l sessionEvents) CharacteristicWritten(err error) {
	l.p.emit(Event{Type: EventCharacteristicWrite, Success: err == nil, Err: err})
}

func (l sessionEvents) CharacteristicRead(_ uuid.UUID, value []byte, err error) {
	l.p.emit(Event{Type: EventCharacteristicRead, Payload: value, Success: err == nil, Err: err})
}

func (l sessionEvents) Error(message string, err error) {
	l.p.emit(Event{Type: EventError, Message: message, Err: err})
}

var _ session.Listener = sessionEvents{}
