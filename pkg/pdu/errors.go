package pdu

import "errors"

// Codec errors.
var (
	// ErrInvalidPDU is the base error for malformed PDUs.
	ErrInvalidPDU = errors.New("invalid provisioning PDU")

	// ErrEmpty is returned when decoding zero bytes.
	ErrEmpty = errors.New("empty provisioning PDU")

	// ErrInvalidLength is returned when a payload has the wrong size.
	ErrInvalidLength = errors.New("invalid payload length")
)
