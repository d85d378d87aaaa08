package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/log"
)

// ErrLinkLost is reported by DropLink.
var ErrLinkLost = fmt.Errorf("simulated %w", gatt.ErrLinkLost)

// DefaultAdvertiseInterval is how often each device advertises while
// scanning.
const DefaultAdvertiseInterval = 200 * time.Millisecond

// Config configures a Transport.
type Config struct {
	// Latency delays every callback. Zero delivers them as soon as the
	// connection's event goroutine runs.
	Latency time.Duration

	// AdvertiseInterval is the advertising period while scanning.
	AdvertiseInterval time.Duration

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives the device side of every exchange.
	ProtocolLogger log.Logger
}

// Transport is an in-memory gatt.Transport and gatt.Scanner.
type Transport struct {
	config Config
	logger *slog.Logger
	plog   log.Logger

	mu         sync.Mutex
	devices    map[gatt.Address]*Device
	order      []gatt.Address
	conns      map[gatt.Address]*conn
	scanCancel context.CancelFunc
	scanErr    error
	connectErr error
}

// NewTransport creates a transport with the given devices.
func NewTransport(config Config, devices ...*Device) *Transport {
	if config.AdvertiseInterval <= 0 {
		config.AdvertiseInterval = DefaultAdvertiseInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Transport{
		config:  config,
		logger:  logger,
		plog:    log.OrNoop(config.ProtocolLogger),
		devices: make(map[gatt.Address]*Device),
		conns:   make(map[gatt.Address]*conn),
	}
	for _, d := range devices {
		t.AddDevice(d)
	}
	return t
}

// AddDevice registers d, replacing any device with the same address.
func (t *Transport) AddDevice(d *Device) {
	d.init()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.devices[d.Address]; !ok {
		t.order = append(t.order, d.Address)
	}
	t.devices[d.Address] = d
}

// Device returns the device registered at addr.
func (t *Transport) Device(addr gatt.Address) (*Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.devices[addr]
	return d, ok
}

// SetScanError makes the next Scan calls fail with err.
func (t *Transport) SetScanError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanErr = err
}

// SetConnectError makes the next Connect calls fail with err.
func (t *Transport) SetConnectError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectErr = err
}

// Connect implements gatt.Transport.
func (t *Transport) Connect(ctx context.Context, addr gatt.Address, sink gatt.EventSink) (gatt.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connectErr != nil {
		return nil, t.connectErr
	}
	d, ok := t.devices[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gatt.ErrDeviceNotFound, addr)
	}
	if old, ok := t.conns[addr]; ok {
		old.shutdown()
	}

	c := newConn(t, d, sink)
	t.conns[addr] = c
	t.logger.Debug("sim: connect", "address", addr)
	c.post(func() { sink.ConnectionStateChanged(gatt.StateConnected, nil) })
	return c, nil
}

// DropLink simulates the device going out of range. It reports whether a
// connection to addr was open.
func (t *Transport) DropLink(addr gatt.Address) bool {
	t.mu.Lock()
	c, ok := t.conns[addr]
	if ok {
		delete(t.conns, addr)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}

	c.post(func() { c.sink.ConnectionStateChanged(gatt.StateDisconnected, ErrLinkLost) })
	c.closeAfterQueue()
	return true
}

// Notify sends an unsolicited notification from the device at addr.
func (t *Transport) Notify(addr gatt.Address, char uuid.UUID, value []byte) bool {
	t.mu.Lock()
	c, ok := t.conns[addr]
	t.mu.Unlock()
	if !ok {
		return false
	}
	v := append([]byte(nil), value...)
	c.capture(log.DirectionOut, char, v)
	c.post(func() { c.sink.CharacteristicChanged(char, v) })
	return true
}

// Scan implements gatt.Scanner. Every device advertises immediately and
// then once per AdvertiseInterval.
func (t *Transport) Scan(ctx context.Context, fn func(gatt.Advertisement)) error {
	t.mu.Lock()
	if t.scanErr != nil {
		err := t.scanErr
		t.mu.Unlock()
		return err
	}
	if t.scanCancel != nil {
		t.scanCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	t.scanCancel = cancel
	t.mu.Unlock()

	go t.advertise(ctx, fn)
	return nil
}

// StopScan implements gatt.Scanner.
func (t *Transport) StopScan() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scanCancel != nil {
		t.scanCancel()
		t.scanCancel = nil
	}
	return nil
}

func (t *Transport) advertise(ctx context.Context, fn func(gatt.Advertisement)) {
	ticker := time.NewTicker(t.config.AdvertiseInterval)
	defer ticker.Stop()

	for {
		t.mu.Lock()
		ads := make([]gatt.Advertisement, 0, len(t.order))
		for _, addr := range t.order {
			ads = append(ads, t.devices[addr].advertisement())
		}
		t.mu.Unlock()

		for _, adv := range ads {
			if ctx.Err() != nil {
				return
			}
			fn(adv)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Transport) release(c *conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns[c.dev.Address] == c {
		delete(t.conns, c.dev.Address)
	}
}

var (
	_ gatt.Transport = (*Transport)(nil)
	_ gatt.Scanner   = (*Transport)(nil)
)
