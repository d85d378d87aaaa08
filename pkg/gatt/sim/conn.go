package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/log"
)

// conn delivers callbacks in order on its own goroutine.
type conn struct {
	t    *Transport
	dev  *Device
	sink gatt.EventSink
	id   string

	mu      sync.Mutex
	queue   []func()
	closed  bool
	drain   bool
	wake    chan struct{}
	done    chan struct{}
	catalog *gatt.Catalog
}

func newConn(t *Transport, d *Device, sink gatt.EventSink) *conn {
	c := &conn{
		t:       t,
		dev:     d,
		sink:    sink,
		id:      uuid.NewString(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		catalog: gatt.NewCatalog(d.Services...),
	}
	go c.run()
	return c
}

func (c *conn) Address() gatt.Address { return c.dev.Address }

func (c *conn) DiscoverServices() error {
	if c.isClosed() {
		return gatt.ErrNotConnected
	}
	if !c.dev.discover() {
		c.t.logger.Debug("sim: dropping discovery request", "address", c.dev.Address)
		return nil
	}
	catalog := c.catalog
	c.post(func() { c.sink.ServicesDiscovered(gatt.StatusSuccess, catalog) })
	return nil
}

func (c *conn) WriteCharacteristic(service, char uuid.UUID, value []byte) error {
	if c.isClosed() {
		return gatt.ErrNotConnected
	}
	if !c.catalog.HasCharacteristic(service, char) {
		return fmt.Errorf("%w: %s/%s", gatt.ErrCharacteristicNotFound, service, char)
	}

	v := append([]byte(nil), value...)
	c.capture(log.DirectionIn, char, v)
	c.post(func() {
		c.sink.CharacteristicWritten(char, gatt.StatusSuccess)
		for _, resp := range c.dev.handle(v) {
			c.capture(log.DirectionOut, char, resp)
			c.sink.CharacteristicChanged(char, resp)
		}
	})
	return nil
}

func (c *conn) Close() error {
	c.shutdown()
	c.t.release(c)
	return nil
}

func (c *conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.drain
}

func (c *conn) post(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, fn)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// shutdown drops queued callbacks and stops the goroutine.
func (c *conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.queue = nil
	close(c.done)
}

// closeAfterQueue refuses new requests and stops once queued callbacks
// have run.
func (c *conn) closeAfterQueue() {
	c.mu.Lock()
	c.drain = true
	c.mu.Unlock()
	c.post(c.shutdown)
}

func (c *conn) run() {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		for {
			c.mu.Lock()
			if c.closed || len(c.queue) == 0 {
				c.mu.Unlock()
				break
			}
			fn := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()

			if d := c.t.config.Latency; d > 0 {
				select {
				case <-time.After(d):
				case <-c.done:
					return
				}
			}
			fn()
		}
	}
}

func (c *conn) capture(dir log.Direction, char uuid.UUID, b []byte) {
	c.t.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        log.LayerGATT,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleDevice,
		RemoteAddr:   "provisioner",
		Frame:        log.NewFrameEvent(char.String(), b),
	})
}
