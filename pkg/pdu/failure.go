package pdu

import "fmt"

// FailureReason is the error code carried by a Failed PDU.
type FailureReason uint8

// Failure reasons defined by the Mesh Profile.
const (
	ReasonProhibited            FailureReason = 0x00
	ReasonInvalidPDU            FailureReason = 0x01
	ReasonInvalidFormat         FailureReason = 0x02
	ReasonUnexpectedPDU         FailureReason = 0x03
	ReasonConfirmationFailed    FailureReason = 0x04
	ReasonOutOfResources        FailureReason = 0x05
	ReasonDecryptionFailed      FailureReason = 0x06
	ReasonUnexpectedError       FailureReason = 0x07
	ReasonCannotAssignAddresses FailureReason = 0x08
	ReasonInvalidData           FailureReason = 0x09
)

var reasonNames = map[FailureReason]string{
	ReasonProhibited:            "prohibited",
	ReasonInvalidPDU:            "invalid PDU",
	ReasonInvalidFormat:         "invalid format",
	ReasonUnexpectedPDU:         "unexpected PDU",
	ReasonConfirmationFailed:    "confirmation failed",
	ReasonOutOfResources:        "out of resources",
	ReasonDecryptionFailed:      "decryption failed",
	ReasonUnexpectedError:       "unexpected error",
	ReasonCannotAssignAddresses: "cannot assign addresses",
	ReasonInvalidData:           "invalid data",
}

// String returns a human-readable reason.
func (r FailureReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reserved (0x%02x)", uint8(r))
}
