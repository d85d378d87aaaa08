package provisioner

import (
	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/pdu"
)

// EventType identifies the kind of event.
type EventType uint8

const (
	// EventDeviceFound - an advertisement passed the scan filter.
	EventDeviceFound EventType = iota + 1

	// EventConnectionStateChange - the session connected or ended.
	EventConnectionStateChange

	// EventProvisioningServiceFound - discovery resolved the provisioning
	// characteristic.
	EventProvisioningServiceFound

	// EventCapabilities - the device sent its capabilities.
	EventCapabilities

	// EventPublicKey - the device sent its public key.
	EventPublicKey

	// EventConfirmation - the device sent its confirmation.
	EventConfirmation

	// EventRandom - the device sent its random.
	EventRandom

	// EventComplete - the device reported success.
	EventComplete

	// EventFailed - the device reported failure.
	EventFailed

	// EventCharacteristicWrite - a write completed.
	EventCharacteristicWrite

	// EventCharacteristicRead - a read completed.
	EventCharacteristicRead

	// EventError - an asynchronous failure.
	EventError
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventDeviceFound:
		return "DEVICE_FOUND"
	case EventConnectionStateChange:
		return "CONNECTION_STATE_CHANGE"
	case EventProvisioningServiceFound:
		return "PROVISIONING_SERVICE_FOUND"
	case EventCapabilities:
		return "PROVISIONING_CAPABILITIES"
	case EventPublicKey:
		return "PROVISIONING_PUBLIC_KEY"
	case EventConfirmation:
		return "PROVISIONING_CONFIRMATION"
	case EventRandom:
		return "PROVISIONING_RANDOM"
	case EventComplete:
		return "PROVISIONING_COMPLETE"
	case EventFailed:
		return "PROVISIONING_FAILED"
	case EventCharacteristicWrite:
		return "CHARACTERISTIC_WRITE"
	case EventCharacteristicRead:
		return "CHARACTERISTIC_READ"
	case EventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Connection states reported by EventConnectionStateChange.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

// Device describes a scanned device.
type Device struct {
	// Name is the advertised local name, or "Unknown".
	Name string

	Address gatt.Address

	// IsMesh reports whether the device advertises the Provisioning service.
	IsMesh bool

	// ServiceUUID is the first advertised service UUID, or "None".
	ServiceUUID string

	RSSI int
}

// Event is delivered to handlers registered with OnEvent.
type Event struct {
	Type EventType

	// Device is set for EventDeviceFound.
	Device *Device

	// Address is the device address of the session the event belongs to.
	Address gatt.Address

	// ConnectionState is StateConnected or StateDisconnected.
	ConnectionState string

	// Payload holds the PDU payload for provisioning events and the value
	// for EventCharacteristicRead.
	Payload []byte

	// Capabilities is the parsed form of an EventCapabilities payload.
	Capabilities *pdu.DeviceCapabilities

	// Code is the failure reason for EventFailed.
	Code pdu.FailureReason

	// Success reports the outcome of EventCharacteristicWrite.
	Success bool

	// Message describes an EventError.
	Message string

	// Err is the underlying error for EventError, EventFailed and
	// unsuccessful writes or reads.
	Err error
}

// EventHandler receives events.
type EventHandler func(Event)
