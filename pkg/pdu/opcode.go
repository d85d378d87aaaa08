package pdu

import "fmt"

// Opcode is the first byte of a provisioning PDU.
type Opcode uint8

// Provisioning opcodes.
const (
	// OpInvite starts provisioning and sets the attention timer.
	OpInvite Opcode = 0x00

	// OpCapabilities carries the device's capabilities (inbound).
	OpCapabilities Opcode = 0x01

	// OpStart selects algorithm and authentication method.
	OpStart Opcode = 0x02

	// OpPublicKey carries the provisioner's public key (outbound).
	OpPublicKey Opcode = 0x03

	// OpPeerPublicKey carries the device's public key (inbound).
	OpPeerPublicKey Opcode = 0x04

	// OpConfirmation carries a confirmation value.
	OpConfirmation Opcode = 0x05

	// OpRandom carries a random value.
	OpRandom Opcode = 0x06

	// OpData carries the encrypted provisioning data.
	OpData Opcode = 0x07

	// OpComplete signals successful provisioning (inbound).
	OpComplete Opcode = 0x08

	// OpFailed signals a failure; the payload holds the reason code (inbound).
	OpFailed Opcode = 0x09
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpInvite:
		return "INVITE"
	case OpCapabilities:
		return "CAPABILITIES"
	case OpStart:
		return "START"
	case OpPublicKey:
		return "PUBLIC_KEY"
	case OpPeerPublicKey:
		return "PEER_PUBLIC_KEY"
	case OpConfirmation:
		return "CONFIRMATION"
	case OpRandom:
		return "RANDOM"
	case OpData:
		return "DATA"
	case OpComplete:
		return "COMPLETE"
	case OpFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(o))
	}
}

// Known reports whether o is one of the defined opcodes.
func (o Opcode) Known() bool {
	return o <= OpFailed
}

// Payload sizes.
const (
	// InvitePayloadSize is the invite payload: a reserved zero byte followed
	// by the attention duration in seconds.
	InvitePayloadSize = 2

	// StartPayloadSize is algorithm, public key type, auth method, auth
	// action and auth size.
	StartPayloadSize = 5

	// CapabilitiesSize is the length of a complete capabilities payload.
	CapabilitiesSize = 11

	// PublicKeySize is an uncompressed P-256 point without the 0x04 prefix.
	PublicKeySize = 64

	// ConfirmationSize is the confirmation value length.
	ConfirmationSize = 16

	// RandomSize is the random value length.
	RandomSize = 16

	// DefaultDataSize is the default encrypted provisioning data length.
	DefaultDataSize = 32
)
