package pdu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func TestEncode_Vectors(t *testing.T) {
	key := seq(PublicKeySize, 1)

	tests := []struct {
		name string
		pdu  PDU
		want []byte
	}{
		{"invite", Invite{AttentionDuration: 10}, []byte{0x00, 0x00, 0x0A}},
		{"invite zero", Invite{}, []byte{0x00, 0x00, 0x00}},
		{"invite max", Invite{AttentionDuration: 255}, []byte{0x00, 0x00, 0xFF}},
		{"start defaults", Start{}, []byte{0x02, 0, 0, 0, 0, 0}},
		{"start", Start{Algorithm: 1, PublicKeyType: 1, AuthMethod: 2, AuthAction: 3, AuthSize: 4}, []byte{0x02, 1, 1, 2, 3, 4}},
		{"public key", PublicKey{Key: key}, append([]byte{0x03}, key...)},
		{"confirmation", Confirmation{Value: seq(16, 0xA0)}, append([]byte{0x05}, seq(16, 0xA0)...)},
		{"random", Random{Value: seq(16, 0x10)}, append([]byte{0x06}, seq(16, 0x10)...)},
		{"data", Data{Payload: seq(32, 0)}, append([]byte{0x07}, seq(32, 0)...)},
		{"complete", Complete{}, []byte{0x08}},
		{"failed", Failed{Code: ReasonInvalidFormat}, []byte{0x09, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.pdu)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_DoesNotAliasInput(t *testing.T) {
	key := seq(PublicKeySize, 1)
	b, err := Encode(PublicKey{Key: key})
	require.NoError(t, err)

	key[0] = 0xFF
	assert.Equal(t, byte(0x01), b[1])
}

func TestEncode_InvalidLength(t *testing.T) {
	tests := []struct {
		name string
		pdu  PDU
	}{
		{"key 63", PublicKey{Key: make([]byte, 63)}},
		{"key 65", PublicKey{Key: make([]byte, 65)}},
		{"confirmation 15", Confirmation{Value: make([]byte, 15)}},
		{"random 17", Random{Value: make([]byte, 17)}},
		{"data empty", Data{}},
		{"capabilities short", Capabilities{Raw: make([]byte, 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.pdu)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPDU))
			assert.True(t, errors.Is(err, ErrInvalidLength))
		})
	}

	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrInvalidPDU)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want PDU
	}{
		{"complete", []byte{0x08}, Complete{}},
		{"failed", []byte{0x09, 0x02}, Failed{Code: 2}},
		{"failed no reason", []byte{0x09}, Failed{Code: 0}},
		{"capabilities", []byte{0x01, 1, 2, 3}, Capabilities{Raw: []byte{1, 2, 3}}},
		{"peer public key", []byte{0x04, 0xAA, 0xBB}, PeerPublicKey{Key: []byte{0xAA, 0xBB}}},
		{"confirmation", []byte{0x05, 0x01}, Confirmation{Value: []byte{0x01}}},
		{"random", []byte{0x06, 0x02}, Random{Value: []byte{0x02}}},
		{"invite", []byte{0x00, 0x00, 0x05}, Invite{AttentionDuration: 5}},
		{"start", []byte{0x02, 1, 2, 3, 4, 5}, Start{1, 2, 3, 4, 5}},
		{"data", []byte{0x07, 9}, Data{Payload: []byte{9}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Decode([]byte{0x0A})
	assert.ErrorIs(t, err, ErrInvalidPDU)

	_, err = Decode([]byte{0xFF, 0x01})
	assert.ErrorIs(t, err, ErrInvalidPDU)

	_, err = Decode([]byte{0x02, 0x00})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = Decode([]byte{0x00})
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestEncodeDecode_Outbound(t *testing.T) {
	in := Start{Algorithm: 0, PublicKeyType: 1, AuthMethod: 2, AuthAction: 0, AuthSize: 4}
	b, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPayload(t *testing.T) {
	assert.Nil(t, Payload(Complete{}))
	assert.True(t, bytes.Equal([]byte{0x00, 0x07}, Payload(Invite{AttentionDuration: 7})))
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpInvite, "INVITE"},
		{OpCapabilities, "CAPABILITIES"},
		{OpPeerPublicKey, "PEER_PUBLIC_KEY"},
		{OpFailed, "FAILED"},
		{Opcode(0x42), "UNKNOWN(0x42)"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Opcode(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}

	assert.True(t, OpFailed.Known())
	assert.False(t, Opcode(0x0A).Known())
}

func TestFailureReasonString(t *testing.T) {
	assert.Equal(t, "prohibited", ReasonProhibited.String())
	assert.Equal(t, "invalid format", FailureReason(2).String())
	assert.Equal(t, "cannot assign addresses", ReasonCannotAssignAddresses.String())
	assert.Equal(t, "reserved (0x20)", FailureReason(0x20).String())
}
