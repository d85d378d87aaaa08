package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/meshprov/meshprov-go/pkg/gatt"
)

type fakeConn struct {
	addr        gatt.Address
	sink        gatt.EventSink
	discoveries int
	writes      [][]byte
	closed      int
	discoverErr error
	writeErr    error
}

func (c *fakeConn) Address() gatt.Address { return c.addr }

func (c *fakeConn) DiscoverServices() error {
	c.discoveries++
	return c.discoverErr
}

func (c *fakeConn) WriteCharacteristic(service, char uuid.UUID, value []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), value...))
	return nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

type fakeTransport struct {
	conns []*fakeConn
	err   error
}

func (t *fakeTransport) Connect(_ context.Context, addr gatt.Address, sink gatt.EventSink) (gatt.Conn, error) {
	if t.err != nil {
		return nil, t.err
	}
	c := &fakeConn{addr: addr, sink: sink}
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) last() *fakeConn {
	return t.conns[len(t.conns)-1]
}

type recorder struct {
	states        []string
	found         []gatt.Address
	notifications [][]byte
	written       []error
	reads         [][]byte
	messages      []string
	errs          []error
}

func (r *recorder) ConnectionStateChanged(addr gatt.Address, state gatt.ConnectionState) {
	r.states = append(r.states, string(addr)+":"+state.String())
}

func (r *recorder) ProvisioningServiceFound(addr gatt.Address) {
	r.found = append(r.found, addr)
}

func (r *recorder) Notification(value []byte) {
	r.notifications = append(r.notifications, value)
}

func (r *recorder) CharacteristicWritten(err error) {
	r.written = append(r.written, err)
}

func (r *recorder) CharacteristicRead(_ uuid.UUID, value []byte, err error) {
	if err == nil {
		r.reads = append(r.reads, value)
	}
}

func (r *recorder) Error(message string, err error) {
	r.messages = append(r.messages, message)
	r.errs = append(r.errs, err)
}

func (r *recorder) hasError(target error) bool {
	for _, err := range r.errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func provisioningCatalog() *gatt.Catalog {
	return gatt.NewCatalog(
		gatt.Service{UUID: gatt.ShortUUID(0x1800)},
		gatt.Service{
			UUID: gatt.ProvisioningServiceUUID,
			Characteristics: []gatt.Characteristic{
				{UUID: gatt.ShortUUID(0x2ADC), Properties: gatt.PropertyNotify},
				{UUID: gatt.ProvisioningDataInUUID, Properties: gatt.PropertyWriteNoResponse | gatt.PropertyNotify},
			},
		},
	)
}
