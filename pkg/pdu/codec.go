package pdu

import (
	"fmt"
)

// Encode validates p and returns its wire bytes: the opcode followed by the
// payload. Fixed-size payloads must have exactly their required length;
// Data payloads must be non-empty.
func Encode(p PDU) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil PDU", ErrInvalidPDU)
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	payload := Payload(p)
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(p.Opcode()))
	return append(out, payload...), nil
}

func validate(p PDU) error {
	switch m := p.(type) {
	case Invite, Start, Complete, Failed:
		return nil
	case Capabilities:
		return checkLen(OpCapabilities, len(m.Raw), CapabilitiesSize)
	case PublicKey:
		return checkLen(OpPublicKey, len(m.Key), PublicKeySize)
	case PeerPublicKey:
		return checkLen(OpPeerPublicKey, len(m.Key), PublicKeySize)
	case Confirmation:
		return checkLen(OpConfirmation, len(m.Value), ConfirmationSize)
	case Random:
		return checkLen(OpRandom, len(m.Value), RandomSize)
	case Data:
		if len(m.Payload) == 0 {
			return fmt.Errorf("%w: %w: %s payload is empty", ErrInvalidPDU, ErrInvalidLength, OpData)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidPDU, p)
	}
}

func checkLen(op Opcode, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %w: %s payload is %d bytes, want %d", ErrInvalidPDU, ErrInvalidLength, op, got, want)
	}
	return nil
}

// Decode parses a received PDU. The payload of variable-content messages is
// the remainder of b after the opcode and aliases b. A Failed PDU without a
// reason byte decodes with Code 0. Unknown opcodes yield ErrInvalidPDU.
func Decode(b []byte) (PDU, error) {
	if len(b) == 0 {
		return nil, ErrEmpty
	}

	op := Opcode(b[0])
	rest := b[1:]

	switch op {
	case OpInvite:
		if len(rest) < InvitePayloadSize {
			return nil, fmt.Errorf("%w: %w: %s payload is %d bytes", ErrInvalidPDU, ErrInvalidLength, op, len(rest))
		}
		return Invite{AttentionDuration: rest[1]}, nil

	case OpCapabilities:
		return Capabilities{Raw: rest}, nil

	case OpStart:
		if len(rest) < StartPayloadSize {
			return nil, fmt.Errorf("%w: %w: %s payload is %d bytes", ErrInvalidPDU, ErrInvalidLength, op, len(rest))
		}
		return Start{
			Algorithm:     rest[0],
			PublicKeyType: rest[1],
			AuthMethod:    rest[2],
			AuthAction:    rest[3],
			AuthSize:      rest[4],
		}, nil

	case OpPublicKey:
		return PublicKey{Key: rest}, nil

	case OpPeerPublicKey:
		return PeerPublicKey{Key: rest}, nil

	case OpConfirmation:
		return Confirmation{Value: rest}, nil

	case OpRandom:
		return Random{Value: rest}, nil

	case OpData:
		return Data{Payload: rest}, nil

	case OpComplete:
		return Complete{}, nil

	case OpFailed:
		var code FailureReason
		if len(rest) > 0 {
			code = FailureReason(rest[0])
		}
		return Failed{Code: code}, nil

	default:
		return nil, fmt.Errorf("%w: unknown opcode 0x%02x", ErrInvalidPDU, uint8(op))
	}
}
