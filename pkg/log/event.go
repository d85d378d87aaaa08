package log

import (
	"time"
)

// MaxFrameData is the number of frame bytes kept in a FrameEvent.
const MaxFrameData = 512

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the provisioner or a device.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer's Bluetooth address.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // GATT layer
	PDU         *PDUEvent         `cbor:"11,keyasint,omitempty"` // PDU layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Discovery   *DiscoveryEvent   `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerGATT is the characteristic layer (raw bytes).
	LayerGATT Layer = 0
	// LayerPDU is the provisioning PDU layer.
	LayerPDU Layer = 1
	// LayerSession is the session management layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerGATT:
		return "GATT"
	case LayerPDU:
		return "PDU"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame or PDU.
	CategoryMessage Category = 0
	// CategoryDiscovery indicates a service discovery step.
	CategoryDiscovery Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which side of the provisioning exchange logged the event.
type Role uint8

const (
	// RoleProvisioner indicates the provisioner.
	RoleProvisioner Role = 0
	// RoleDevice indicates the unprovisioned device.
	RoleDevice Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleProvisioner:
		return "PROVISIONER"
	case RoleDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw characteristic value.
type FrameEvent struct {
	// Size is the value size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Characteristic is the characteristic UUID.
	Characteristic string `cbor:"4,keyasint,omitempty"`
}

// NewFrameEvent copies up to MaxFrameData bytes of data.
func NewFrameEvent(char string, data []byte) *FrameEvent {
	n := len(data)
	if n > MaxFrameData {
		n = MaxFrameData
	}
	buf := make([]byte, n)
	copy(buf, data)
	return &FrameEvent{
		Size:           len(data),
		Data:           buf,
		Truncated:      n < len(data),
		Characteristic: char,
	}
}

// PDUEvent captures a decoded provisioning PDU.
type PDUEvent struct {
	// Opcode is the PDU opcode.
	Opcode uint8 `cbor:"1,keyasint"`

	// Name is the opcode name.
	Name string `cbor:"2,keyasint"`

	// Payload is the bytes after the opcode.
	Payload []byte `cbor:"3,keyasint,omitempty"`

	// Reason is the failure code of a FAILED PDU.
	Reason *uint8 `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a transport connection change.
	StateEntityConnection StateEntity = 0
	// StateEntityLink indicates a link lifecycle change.
	StateEntityLink StateEntity = 1
	// StateEntityDiscovery indicates a discovery flag change.
	StateEntityDiscovery StateEntity = 2
	// StateEntityProvisioning indicates a provisioning state change.
	StateEntityProvisioning StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityLink:
		return "LINK"
	case StateEntityDiscovery:
		return "DISCOVERY"
	case StateEntityProvisioning:
		return "PROVISIONING"
	default:
		return "UNKNOWN"
	}
}

// DiscoveryEvent captures one step of the discovery retry policy.
type DiscoveryEvent struct {
	// Outcome of the step.
	Outcome DiscoveryOutcome `cbor:"1,keyasint"`

	// Attempt is the 1-based attempt number.
	Attempt int `cbor:"2,keyasint"`

	// MaxAttempts is the retry budget.
	MaxAttempts int `cbor:"3,keyasint"`

	// Services lists discovered service UUIDs.
	Services []string `cbor:"4,keyasint,omitempty"`
}

// DiscoveryOutcome is the result of a discovery step.
type DiscoveryOutcome uint8

const (
	// DiscoveryStarted indicates an attempt was issued.
	DiscoveryStarted DiscoveryOutcome = 0
	// DiscoveryComplete indicates the provisioning pair was resolved.
	DiscoveryComplete DiscoveryOutcome = 1
	// DiscoveryIncomplete indicates services were found but not the pair.
	DiscoveryIncomplete DiscoveryOutcome = 2
	// DiscoveryFailed indicates the transport reported a failure status.
	DiscoveryFailed DiscoveryOutcome = 3
	// DiscoveryTimeout indicates an attempt timed out.
	DiscoveryTimeout DiscoveryOutcome = 4
	// DiscoveryExhausted indicates the retry budget ran out.
	DiscoveryExhausted DiscoveryOutcome = 5
)

// String returns the outcome name.
func (o DiscoveryOutcome) String() string {
	switch o {
	case DiscoveryStarted:
		return "STARTED"
	case DiscoveryComplete:
		return "COMPLETE"
	case DiscoveryIncomplete:
		return "INCOMPLETE"
	case DiscoveryFailed:
		return "FAILED"
	case DiscoveryTimeout:
		return "TIMEOUT"
	case DiscoveryExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
