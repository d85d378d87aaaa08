package provisioning

import "github.com/meshprov/meshprov-go/pkg/pdu"

// EventType identifies an inbound provisioning event.
type EventType uint8

const (
	// EventCapabilities is emitted when the device sends its capabilities.
	EventCapabilities EventType = iota + 1

	// EventPublicKey is emitted when the device sends its public key.
	EventPublicKey

	// EventConfirmation is emitted when the device sends its confirmation.
	EventConfirmation

	// EventRandom is emitted when the device sends its random.
	EventRandom

	// EventComplete is emitted when the device reports success.
	EventComplete

	// EventFailed is emitted when the device reports failure.
	EventFailed
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCapabilities:
		return "CAPABILITIES"
	case EventPublicKey:
		return "PUBLIC_KEY"
	case EventConfirmation:
		return "CONFIRMATION"
	case EventRandom:
		return "RANDOM"
	case EventComplete:
		return "COMPLETE"
	case EventFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Event is an inbound provisioning event.
type Event struct {
	Type EventType

	// Payload is the PDU payload after the opcode, copied from the
	// notification. Nil for EventComplete.
	Payload []byte

	// Capabilities is set for EventCapabilities when the payload is a
	// complete capabilities structure.
	Capabilities *pdu.DeviceCapabilities

	// Reason is the device's failure code for EventFailed.
	Reason pdu.FailureReason
}

// EventHandler receives provisioning events.
type EventHandler func(Event)
