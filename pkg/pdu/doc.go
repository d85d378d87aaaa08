// Package pdu implements the Bluetooth Mesh provisioning PDU codec.
//
// A PDU is one opcode byte followed by an opcode-defined payload. Each opcode
// has its own Go type implementing the sealed PDU interface, so a type switch
// over PDU values covers every message the engine knows about.
//
//	b, err := pdu.Encode(pdu.Invite{AttentionDuration: 10})
//	// b == []byte{0x00, 0x00, 0x0A}
//
//	p, err := pdu.Decode([]byte{0x09, 0x02})
//	// p == pdu.Failed{Code: 2}
//
// Outbound PDUs are validated strictly: Encode rejects any payload whose
// length differs from the opcode's required size. Decode is lenient about
// trailing bytes and hands the remainder of the notification to the caller.
package pdu
