package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities_Parse(t *testing.T) {
	raw := []byte{
		0x02,       // elements
		0x00, 0x01, // algorithms
		0x01,       // public key type
		0x01,       // static OOB
		0x04,       // output OOB size
		0x00, 0x18, // output OOB action
		0x00,       // input OOB size
		0x00, 0x00, // input OOB action
	}

	caps, err := Capabilities{Raw: raw}.Parse()
	require.NoError(t, err)

	assert.Equal(t, DeviceCapabilities{
		NumElements:     2,
		Algorithms:      AlgorithmP256CMACAES128,
		PublicKeyType:   1,
		StaticOOBType:   1,
		OutputOOBSize:   4,
		OutputOOBAction: 0x0018,
	}, caps)
	assert.True(t, caps.PublicKeyOOB())
	assert.Equal(t, raw, caps.Bytes())
}

func TestCapabilities_ParseShort(t *testing.T) {
	_, err := Capabilities{Raw: []byte{1, 2, 3}}.Parse()
	assert.ErrorIs(t, err, ErrInvalidLength)
}
