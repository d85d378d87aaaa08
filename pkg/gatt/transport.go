package gatt

import (
	"context"

	"github.com/google/uuid"
)

// Address is an opaque transport-level device identity, typically a MAC
// address string on Linux or a UUID on macOS.
type Address string

// String returns the address.
func (a Address) String() string { return string(a) }

// ConnectionState is the link state reported by a transport.
type ConnectionState uint8

const (
	// StateDisconnected means the link is down.
	StateDisconnected ConnectionState = iota

	// StateConnected means the link is up.
	StateConnected
)

// String returns the lowercase state name used in upward events.
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Status is a GATT operation status code.
type Status int

const (
	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = 0

	// StatusFailure is the generic failure status.
	StatusFailure Status = 0x101
)

// OK reports whether the status is StatusSuccess.
func (s Status) OK() bool { return s == StatusSuccess }

// Advertisement is one scan result.
type Advertisement struct {
	Name         string
	Address      Address
	RSSI         int
	ServiceUUIDs []uuid.UUID
}

// IsMesh reports whether the advertisement carries the Provisioning service.
func (a Advertisement) IsMesh() bool {
	for _, u := range a.ServiceUUIDs {
		if u == ProvisioningServiceUUID {
			return true
		}
	}
	return false
}

// EventSink receives the asynchronous outcomes of a connection. A transport
// may invoke it from any goroutine.
type EventSink interface {
	// ConnectionStateChanged reports a link state change. err is set when a
	// connection attempt failed or the link was lost abnormally.
	ConnectionStateChanged(state ConnectionState, err error)

	// ServicesDiscovered reports the outcome of DiscoverServices.
	ServicesDiscovered(status Status, catalog *Catalog)

	// CharacteristicWritten reports the outcome of WriteCharacteristic.
	CharacteristicWritten(char uuid.UUID, status Status)

	// CharacteristicRead reports the outcome of a characteristic read.
	CharacteristicRead(char uuid.UUID, value []byte, status Status)

	// CharacteristicChanged delivers a notification.
	CharacteristicChanged(char uuid.UUID, value []byte)
}

// Transport opens connections to peripherals.
type Transport interface {
	// Connect issues a connection request and returns a handle at once. The
	// outcome is reported through sink.ConnectionStateChanged. It fails
	// synchronously with ErrDeviceNotFound or ErrPermissionDenied.
	Connect(ctx context.Context, addr Address, sink EventSink) (Conn, error)
}

// Conn is one connection handle. Methods issue requests and return without
// waiting for the outcome.
type Conn interface {
	Address() Address
	DiscoverServices() error
	WriteCharacteristic(service, char uuid.UUID, value []byte) error
	Close() error
}

// Scanner is the optional scanning capability of a Transport.
type Scanner interface {
	// Scan starts scanning and calls fn for every advertisement until ctx is
	// done or StopScan is called. It returns once scanning has started.
	Scan(ctx context.Context, fn func(Advertisement)) error
	StopScan() error
}
