package pdu

// PDU is one provisioning message. The set of implementations is closed.
type PDU interface {
	// Opcode returns the message opcode.
	Opcode() Opcode

	sealed()
}

// Invite starts provisioning.
// Wire: 0x00 | 0x00 | attentionDuration
type Invite struct {
	AttentionDuration uint8
}

// Capabilities is the device's capabilities message. Raw holds the payload
// exactly as received.
// Wire: 0x01 | capabilities (11 bytes)
type Capabilities struct {
	Raw []byte
}

// Start selects the provisioning algorithm and authentication.
// Wire: 0x02 | algorithm | publicKeyType | authMethod | authAction | authSize
type Start struct {
	Algorithm     uint8
	PublicKeyType uint8
	AuthMethod    uint8
	AuthAction    uint8
	AuthSize      uint8
}

// PublicKey is the provisioner's public key.
// Wire: 0x03 | X (32) | Y (32)
type PublicKey struct {
	Key []byte
}

// PeerPublicKey is the device's public key.
// Wire: 0x04 | key
type PeerPublicKey struct {
	Key []byte
}

// Confirmation carries a confirmation value.
// Wire: 0x05 | confirmation (16)
type Confirmation struct {
	Value []byte
}

// Random carries a random value.
// Wire: 0x06 | random (16)
type Random struct {
	Value []byte
}

// Data carries encrypted provisioning data and its MIC.
// Wire: 0x07 | data
type Data struct {
	Payload []byte
}

// Complete signals that provisioning succeeded.
// Wire: 0x08
type Complete struct{}

// Failed signals that provisioning failed.
// Wire: 0x09 | reason
type Failed struct {
	Code FailureReason
}

func (Invite) Opcode() Opcode        { return OpInvite }
func (Capabilities) Opcode() Opcode  { return OpCapabilities }
func (Start) Opcode() Opcode         { return OpStart }
func (PublicKey) Opcode() Opcode     { return OpPublicKey }
func (PeerPublicKey) Opcode() Opcode { return OpPeerPublicKey }
func (Confirmation) Opcode() Opcode  { return OpConfirmation }
func (Random) Opcode() Opcode        { return OpRandom }
func (Data) Opcode() Opcode          { return OpData }
func (Complete) Opcode() Opcode      { return OpComplete }
func (Failed) Opcode() Opcode        { return OpFailed }

func (Invite) sealed()        {}
func (Capabilities) sealed()  {}
func (Start) sealed()         {}
func (PublicKey) sealed()     {}
func (PeerPublicKey) sealed() {}
func (Confirmation) sealed()  {}
func (Random) sealed()        {}
func (Data) sealed()          {}
func (Complete) sealed()      {}
func (Failed) sealed()        {}

// Payload returns the bytes that follow the opcode on the wire. Payloads of
// variable-length messages are returned without copying.
func Payload(p PDU) []byte {
	switch m := p.(type) {
	case Invite:
		return []byte{0x00, m.AttentionDuration}
	case Capabilities:
		return m.Raw
	case Start:
		return []byte{m.Algorithm, m.PublicKeyType, m.AuthMethod, m.AuthAction, m.AuthSize}
	case PublicKey:
		return m.Key
	case PeerPublicKey:
		return m.Key
	case Confirmation:
		return m.Value
	case Random:
		return m.Value
	case Data:
		return m.Payload
	case Complete:
		return nil
	case Failed:
		return []byte{byte(m.Code)}
	default:
		return nil
	}
}
