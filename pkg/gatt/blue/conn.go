package blue

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/meshprov/meshprov-go/pkg/gatt"
)

// conn runs adapter requests one at a time on a worker goroutine, so
// callbacks reach the sink in request order.
type conn struct {
	addr   gatt.Address
	sink   gatt.EventSink
	logger *slog.Logger

	// release untracks the conn from its adapter. It may be nil.
	release func()

	mu     sync.Mutex
	device *bluetooth.Device
	chars  map[uuid.UUID]bluetooth.DeviceCharacteristic
	closed bool

	ops  chan func()
	done chan struct{}
}

func newConn(addr gatt.Address, sink gatt.EventSink, logger *slog.Logger) *conn {
	c := &conn{
		addr:   addr,
		sink:   sink,
		logger: logger,
		chars:  make(map[uuid.UUID]bluetooth.DeviceCharacteristic),
		ops:    make(chan func(), 32),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *conn) run() {
	for {
		select {
		case <-c.done:
			return
		case op := <-c.ops:
			op()
		}
	}
}

func (c *conn) enqueue(op func()) error {
	select {
	case <-c.done:
		return gatt.ErrNotConnected
	case c.ops <- op:
		return nil
	}
}

func (c *conn) connected(device bluetooth.Device) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = device.Disconnect()
		return
	}
	c.device = &device
	c.mu.Unlock()

	c.logger.Info("blue: connected", "address", c.addr)
	c.sink.ConnectionStateChanged(gatt.StateConnected, nil)
}

func (c *conn) fail(err error) {
	c.sink.ConnectionStateChanged(gatt.StateDisconnected, err)
}

// lost shuts the conn down after the remote side dropped the link and
// reports the loss. It returns false if the conn was already closed or
// never connected.
func (c *conn) lost() bool {
	c.mu.Lock()
	if c.closed || c.device == nil {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.device = nil
	close(c.done)
	c.mu.Unlock()

	c.sink.ConnectionStateChanged(gatt.StateDisconnected, gatt.ErrLinkLost)
	return true
}

func (c *conn) Address() gatt.Address { return c.addr }

func (c *conn) DiscoverServices() error {
	device, err := c.current()
	if err != nil {
		return err
	}
	return c.enqueue(func() {
		catalog, err := c.discover(device)
		if err != nil {
			c.logger.Warn("blue: discovery failed", "address", c.addr, "error", err)
			c.sink.ServicesDiscovered(gatt.StatusFailure, nil)
			return
		}
		c.sink.ServicesDiscovered(gatt.StatusSuccess, catalog)
	})
}

func (c *conn) discover(device *bluetooth.Device) (*gatt.Catalog, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, err
	}

	chars := make(map[uuid.UUID]bluetooth.DeviceCharacteristic)
	out := make([]gatt.Service, 0, len(services))
	for _, svc := range services {
		id, err := fromBluetooth(svc.UUID())
		if err != nil {
			continue
		}
		entry := gatt.Service{UUID: id}

		found, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			c.logger.Debug("blue: characteristic discovery failed", "service", id, "error", err)
			out = append(out, entry)
			continue
		}
		for _, ch := range found {
			cid, err := fromBluetooth(ch.UUID())
			if err != nil {
				continue
			}
			entry.Characteristics = append(entry.Characteristics, gatt.Characteristic{UUID: cid})
			if entry.Type() != gatt.ServiceUnknown {
				chars[cid] = ch
			}
		}
		out = append(out, entry)
	}

	for id, ch := range chars {
		char := id
		if err := ch.EnableNotifications(func(buf []byte) {
			v := make([]byte, len(buf))
			copy(v, buf)
			c.sink.CharacteristicChanged(char, v)
		}); err != nil {
			c.logger.Debug("blue: notifications unavailable", "characteristic", id, "error", err)
		}
	}

	c.mu.Lock()
	c.chars = chars
	c.mu.Unlock()
	return gatt.NewCatalog(out...), nil
}

func (c *conn) WriteCharacteristic(service, char uuid.UUID, value []byte) error {
	if _, err := c.current(); err != nil {
		return err
	}

	c.mu.Lock()
	ch, ok := c.chars[char]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", gatt.ErrCharacteristicNotFound, char)
	}

	v := make([]byte, len(value))
	copy(v, value)
	return c.enqueue(func() {
		status := gatt.StatusSuccess
		if _, err := ch.WriteWithoutResponse(v); err != nil {
			c.logger.Warn("blue: write failed", "characteristic", char, "error", err)
			status = gatt.StatusFailure
		}
		c.sink.CharacteristicWritten(char, status)
	})
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	device := c.device
	c.device = nil
	close(c.done)
	c.mu.Unlock()

	if c.release != nil {
		c.release()
	}
	if device == nil {
		return nil
	}
	if err := device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", c.addr, err)
	}
	return nil
}

func (c *conn) current() (*bluetooth.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.device == nil {
		return nil, gatt.ErrNotConnected
	}
	return c.device, nil
}
