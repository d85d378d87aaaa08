package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/pdu"
)

const testAddr = gatt.Address("C0:FF:EE:00:00:01")

type sinkEvent struct {
	kind    string
	state   gatt.ConnectionState
	err     error
	catalog *gatt.Catalog
	char    uuid.UUID
	value   []byte
}

type chanSink chan sinkEvent

func (s chanSink) ConnectionStateChanged(state gatt.ConnectionState, err error) {
	s <- sinkEvent{kind: "state", state: state, err: err}
}

func (s chanSink) ServicesDiscovered(status gatt.Status, catalog *gatt.Catalog) {
	s <- sinkEvent{kind: "discovered", catalog: catalog}
}

func (s chanSink) CharacteristicWritten(char uuid.UUID, status gatt.Status) {
	s <- sinkEvent{kind: "written", char: char}
}

func (s chanSink) CharacteristicRead(char uuid.UUID, value []byte, status gatt.Status) {
	s <- sinkEvent{kind: "read", char: char, value: value}
}

func (s chanSink) CharacteristicChanged(char uuid.UUID, value []byte) {
	s <- sinkEvent{kind: "changed", char: char, value: value}
}

func (s chanSink) next(t *testing.T) sinkEvent {
	t.Helper()
	select {
	case ev := <-s:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return sinkEvent{}
	}
}

func (s chanSink) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-s:
		t.Fatalf("unexpected transport event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func connect(t *testing.T, tr *Transport) (gatt.Conn, chanSink) {
	t.Helper()
	sink := make(chanSink, 16)
	c, err := tr.Connect(context.Background(), testAddr, sink)
	require.NoError(t, err)
	ev := sink.next(t)
	require.Equal(t, "state", ev.kind)
	require.Equal(t, gatt.StateConnected, ev.state)
	return c, sink
}

func TestConnectUnknownDevice(t *testing.T) {
	tr := NewTransport(Config{})
	_, err := tr.Connect(context.Background(), testAddr, make(chanSink, 1))
	assert.ErrorIs(t, err, gatt.ErrDeviceNotFound)

	tr.AddDevice(&Device{Address: testAddr})
	tr.SetConnectError(gatt.ErrPermissionDenied)
	_, err = tr.Connect(context.Background(), testAddr, make(chanSink, 1))
	assert.ErrorIs(t, err, gatt.ErrPermissionDenied)
}

func TestDiscovery(t *testing.T) {
	tr := NewTransport(Config{}, &Device{Address: testAddr, DropDiscoveries: 1})
	c, sink := connect(t, tr)

	require.NoError(t, c.DiscoverServices())
	sink.none(t)

	require.NoError(t, c.DiscoverServices())
	ev := sink.next(t)
	require.Equal(t, "discovered", ev.kind)
	assert.True(t, ev.catalog.HasCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID))

	d, _ := tr.Device(testAddr)
	assert.Equal(t, 2, d.Discoveries())
}

func TestProvisioningExchange(t *testing.T) {
	plog := log.NewRecorder(0)
	dev := &Device{Address: testAddr}
	tr := NewTransport(Config{ProtocolLogger: plog}, dev)
	c, sink := connect(t, tr)

	write := func(p pdu.PDU) sinkEvent {
		t.Helper()
		b, err := pdu.Encode(p)
		require.NoError(t, err)
		require.NoError(t, c.WriteCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID, b))
		require.Equal(t, "written", sink.next(t).kind)
		return sink.next(t)
	}

	ev := write(pdu.Invite{AttentionDuration: 5})
	assert.Equal(t, gatt.ProvisioningDataInUUID, ev.char)
	assert.Equal(t, byte(pdu.OpCapabilities), ev.value[0])
	assert.Len(t, ev.value, 1+pdu.CapabilitiesSize)

	// Start has no answer.
	b, _ := pdu.Encode(pdu.Start{})
	require.NoError(t, c.WriteCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID, b))
	require.Equal(t, "written", sink.next(t).kind)
	sink.none(t)

	ev = write(pdu.PublicKey{Key: make([]byte, pdu.PublicKeySize)})
	assert.Equal(t, append([]byte{byte(pdu.OpPeerPublicKey)}, dev.PublicKey...), ev.value)
	ev = sink.next(t)
	assert.Equal(t, append([]byte{byte(pdu.OpConfirmation)}, dev.Confirmation...), ev.value)

	ev = write(pdu.Confirmation{Value: make([]byte, pdu.ConfirmationSize)})
	assert.Equal(t, append([]byte{byte(pdu.OpRandom)}, dev.Random...), ev.value)

	b, _ = pdu.Encode(pdu.Random{Value: make([]byte, pdu.RandomSize)})
	require.NoError(t, c.WriteCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID, b))
	require.Equal(t, "written", sink.next(t).kind)
	sink.none(t)

	data := make([]byte, pdu.DefaultDataSize)
	data[0] = 0x42
	ev = write(pdu.Data{Payload: data})
	assert.Equal(t, []byte{byte(pdu.OpComplete)}, ev.value)

	got, ok := dev.Provisioned()
	assert.True(t, ok)
	assert.Equal(t, data, got)
	assert.Len(t, dev.Received(), 6)

	role := log.RoleDevice
	for _, e := range plog.Events(log.Filter{}) {
		assert.Equal(t, role, e.LocalRole)
	}
	assert.Equal(t, 11, plog.Len())
}

func TestFailOn(t *testing.T) {
	dev := &Device{Address: testAddr, FailOn: pdu.OpConfirmation, FailReason: pdu.ReasonConfirmationFailed}
	tr := NewTransport(Config{}, dev)
	c, sink := connect(t, tr)

	b, _ := pdu.Encode(pdu.Confirmation{Value: make([]byte, pdu.ConfirmationSize)})
	require.NoError(t, c.WriteCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID, b))
	sink.next(t)
	ev := sink.next(t)
	assert.Equal(t, []byte{byte(pdu.OpFailed), byte(pdu.ReasonConfirmationFailed)}, ev.value)
}

func TestWriteErrors(t *testing.T) {
	tr := NewTransport(Config{}, &Device{Address: testAddr})
	c, _ := connect(t, tr)

	err := c.WriteCharacteristic(gatt.ProxyServiceUUID, gatt.ProvisioningDataInUUID, []byte{0})
	assert.ErrorIs(t, err, gatt.ErrCharacteristicNotFound)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.WriteCharacteristic(gatt.ProvisioningServiceUUID, gatt.ProvisioningDataInUUID, []byte{0}), gatt.ErrNotConnected)
	assert.ErrorIs(t, c.DiscoverServices(), gatt.ErrNotConnected)
}

func TestDropLink(t *testing.T) {
	tr := NewTransport(Config{}, &Device{Address: testAddr})
	c, sink := connect(t, tr)

	assert.True(t, tr.DropLink(testAddr))
	ev := sink.next(t)
	assert.Equal(t, gatt.StateDisconnected, ev.state)
	assert.True(t, errors.Is(ev.err, ErrLinkLost))
	assert.ErrorIs(t, c.DiscoverServices(), gatt.ErrNotConnected)

	assert.False(t, tr.DropLink(testAddr))
}

func TestNotify(t *testing.T) {
	tr := NewTransport(Config{}, &Device{Address: testAddr})
	_, sink := connect(t, tr)

	assert.True(t, tr.Notify(testAddr, gatt.ProvisioningDataInUUID, []byte{0x09, 0x03}))
	ev := sink.next(t)
	assert.Equal(t, []byte{0x09, 0x03}, ev.value)
}

func TestScan(t *testing.T) {
	tr := NewTransport(Config{AdvertiseInterval: 10 * time.Millisecond},
		&Device{Name: "node", Address: testAddr, RSSI: -40},
		&Device{Address: "C0:FF:EE:00:00:02", Services: []gatt.Service{{UUID: gatt.ShortUUID(0x180F)}}},
	)

	ads := make(chan gatt.Advertisement, 64)
	require.NoError(t, tr.Scan(context.Background(), func(a gatt.Advertisement) {
		select {
		case ads <- a:
		default:
		}
	}))

	first := <-ads
	assert.Equal(t, "node", first.Name)
	assert.True(t, first.IsMesh())
	second := <-ads
	assert.False(t, second.IsMesh())
	assert.Empty(t, second.ServiceUUIDs)

	require.NoError(t, tr.StopScan())

	tr.SetScanError(gatt.ErrPermissionDenied)
	assert.ErrorIs(t, tr.Scan(context.Background(), func(gatt.Advertisement) {}), gatt.ErrPermissionDenied)
}
