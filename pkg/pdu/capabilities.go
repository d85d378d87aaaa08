package pdu

import (
	"encoding/binary"
	"fmt"
)

// Algorithm bits in DeviceCapabilities.Algorithms.
const (
	AlgorithmP256CMACAES128 uint16 = 0x0001
	AlgorithmP256HMACSHA256 uint16 = 0x0002
)

// DeviceCapabilities is the decoded form of a Capabilities payload.
type DeviceCapabilities struct {
	NumElements     uint8
	Algorithms      uint16
	PublicKeyType   uint8
	StaticOOBType   uint8
	OutputOOBSize   uint8
	OutputOOBAction uint16
	InputOOBSize    uint8
	InputOOBAction  uint16
}

// Parse decodes the raw payload. It fails when fewer than CapabilitiesSize
// bytes were received.
func (c Capabilities) Parse() (DeviceCapabilities, error) {
	b := c.Raw
	if len(b) < CapabilitiesSize {
		return DeviceCapabilities{}, fmt.Errorf("%w: %w: capabilities payload is %d bytes, want %d",
			ErrInvalidPDU, ErrInvalidLength, len(b), CapabilitiesSize)
	}
	return DeviceCapabilities{
		NumElements:     b[0],
		Algorithms:      binary.BigEndian.Uint16(b[1:3]),
		PublicKeyType:   b[3],
		StaticOOBType:   b[4],
		OutputOOBSize:   b[5],
		OutputOOBAction: binary.BigEndian.Uint16(b[6:8]),
		InputOOBSize:    b[8],
		InputOOBAction:  binary.BigEndian.Uint16(b[9:11]),
	}, nil
}

// Bytes encodes the capabilities into an 11-byte payload.
func (d DeviceCapabilities) Bytes() []byte {
	b := make([]byte, CapabilitiesSize)
	b[0] = d.NumElements
	binary.BigEndian.PutUint16(b[1:3], d.Algorithms)
	b[3] = d.PublicKeyType
	b[4] = d.StaticOOBType
	b[5] = d.OutputOOBSize
	binary.BigEndian.PutUint16(b[6:8], d.OutputOOBAction)
	b[8] = d.InputOOBSize
	binary.BigEndian.PutUint16(b[9:11], d.InputOOBAction)
	return b
}

// PublicKeyOOB reports whether the device offers its public key out of band.
func (d DeviceCapabilities) PublicKeyOOB() bool {
	return d.PublicKeyType&0x01 != 0
}
