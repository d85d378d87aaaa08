// Package blue implements gatt.Transport and gatt.Scanner on the host's
// Bluetooth LE adapter using tinygo.org/x/bluetooth.
//
// Devices must be seen by a scan before they can be connected; the
// adapter resolves addresses from scan results.
package blue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/meshprov/meshprov-go/pkg/gatt"
)

// scanStartWindow is how long Scan waits for the adapter to reject a scan
// before reporting it as started.
const scanStartWindow = 250 * time.Millisecond

// Config configures an Adapter.
type Config struct {
	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Adapter wraps a host Bluetooth adapter.
type Adapter struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger

	mu       sync.Mutex
	seen     map[gatt.Address]bluetooth.Address
	conns    map[gatt.Address]*conn
	scanning bool
}

// New enables the default host adapter.
func New(config Config) (*Adapter, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", mapError(err))
	}
	a := &Adapter{
		adapter: adapter,
		logger:  logger,
		seen:    make(map[gatt.Address]bluetooth.Address),
		conns:   make(map[gatt.Address]*conn),
	}
	// Must be installed before the first Connect.
	adapter.SetConnectHandler(a.handleConnect)
	return a, nil
}

// Scan implements gatt.Scanner.
func (a *Adapter) Scan(ctx context.Context, fn func(gatt.Advertisement)) error {
	a.mu.Lock()
	if a.scanning {
		a.mu.Unlock()
		return nil
	}
	a.scanning = true
	a.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		errc <- a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			adv := a.remember(result)
			fn(adv)
		})
		a.mu.Lock()
		a.scanning = false
		a.mu.Unlock()
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("%w: %w", gatt.ErrScanFailed, mapError(err))
		}
		return nil
	case <-time.After(scanStartWindow):
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = a.StopScan()
		case err := <-errc:
			if err != nil {
				a.logger.Warn("blue: scan ended", "error", err)
			}
		}
	}()
	return nil
}

// StopScan implements gatt.Scanner.
func (a *Adapter) StopScan() error {
	a.mu.Lock()
	scanning := a.scanning
	a.mu.Unlock()
	if !scanning {
		return nil
	}
	if err := a.adapter.StopScan(); err != nil {
		return fmt.Errorf("%w: %w", gatt.ErrScanFailed, mapError(err))
	}
	return nil
}

func (a *Adapter) remember(result bluetooth.ScanResult) gatt.Advertisement {
	addr := gatt.Address(strings.ToUpper(result.Address.String()))

	a.mu.Lock()
	a.seen[addr] = result.Address
	a.mu.Unlock()

	return advertisement(addr, result.LocalName(), int(result.RSSI), result.HasServiceUUID)
}

// advertisement builds an Advertisement listing the mesh services has
// reports.
func advertisement(addr gatt.Address, name string, rssi int, has func(bluetooth.UUID) bool) gatt.Advertisement {
	adv := gatt.Advertisement{Name: name, Address: addr, RSSI: rssi}
	for _, id := range []uuid.UUID{gatt.ProvisioningServiceUUID, gatt.ProxyServiceUUID} {
		if has(toBluetooth(id)) {
			adv.ServiceUUIDs = append(adv.ServiceUUIDs, id)
		}
	}
	return adv
}

// Connect implements gatt.Transport. The connection is established in the
// background and reported through sink.
func (a *Adapter) Connect(ctx context.Context, addr gatt.Address, sink gatt.EventSink) (gatt.Conn, error) {
	a.mu.Lock()
	target, ok := a.seen[gatt.Address(strings.ToUpper(string(addr)))]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s has not been seen by a scan", gatt.ErrDeviceNotFound, addr)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ctx only bounds initiation; the link outlives the call.
	c := newConn(addr, sink, a.logger)
	key := gatt.Address(strings.ToUpper(string(addr)))
	c.release = func() { a.untrack(key, c) }
	go func() {
		device, err := a.adapter.Connect(target, bluetooth.ConnectionParams{})
		if err != nil {
			a.logger.Warn("blue: connect failed", "address", addr, "error", err)
			c.fail(mapError(err))
			return
		}
		a.track(key, c)
		c.connected(device)
	}()
	return c, nil
}

func (a *Adapter) track(addr gatt.Address, c *conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conns[addr] = c
}

func (a *Adapter) untrack(addr gatt.Address, c *conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conns[addr] == c {
		delete(a.conns, addr)
	}
}

// handleConnect receives the adapter's link callbacks. Only drops matter;
// successful connects are reported by Connect.
func (a *Adapter) handleConnect(device bluetooth.Device, connected bool) {
	if connected {
		return
	}
	a.linkDown(gatt.Address(strings.ToUpper(device.Address.String())))
}

// linkDown reports a remote drop to the connection open to addr, if any.
// Links closed locally are untracked before they disconnect.
func (a *Adapter) linkDown(addr gatt.Address) {
	a.mu.Lock()
	c, ok := a.conns[addr]
	delete(a.conns, addr)
	a.mu.Unlock()

	if ok && c.lost() {
		a.logger.Warn("blue: link lost", "address", addr)
	}
}

// mapError translates adapter errors into gatt errors where possible.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "notpermitted"), strings.Contains(msg, "notauthorized"),
		strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %w", gatt.ErrPermissionDenied, err)
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %w", gatt.ErrDeviceNotFound, err)
	default:
		return err
	}
}

func toBluetooth(id uuid.UUID) bluetooth.UUID {
	// Canonical uuid strings always parse.
	u, _ := bluetooth.ParseUUID(id.String())
	return u
}

func fromBluetooth(u bluetooth.UUID) (uuid.UUID, error) {
	return uuid.Parse(u.String())
}

var (
	_ gatt.Transport = (*Adapter)(nil)
	_ gatt.Scanner   = (*Adapter)(nil)
)
