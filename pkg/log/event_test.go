package log

import (
	"bytes"
	"testing"
)

func TestDirectionString(t *testing.T) {
	tests := []struct {
		d    Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		l    Layer
		want string
	}{
		{LayerGATT, "GATT"},
		{LayerPDU, "PDU"},
		{LayerSession, "SESSION"},
		{Layer(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.l, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryDiscovery, "DISCOVERY"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestStateEntityString(t *testing.T) {
	tests := []struct {
		s    StateEntity
		want string
	}{
		{StateEntityConnection, "CONNECTION"},
		{StateEntityLink, "LINK"},
		{StateEntityDiscovery, "DISCOVERY"},
		{StateEntityProvisioning, "PROVISIONING"},
		{StateEntity(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("StateEntity(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestDiscoveryOutcomeString(t *testing.T) {
	tests := []struct {
		o    DiscoveryOutcome
		want string
	}{
		{DiscoveryStarted, "STARTED"},
		{DiscoveryComplete, "COMPLETE"},
		{DiscoveryIncomplete, "INCOMPLETE"},
		{DiscoveryFailed, "FAILED"},
		{DiscoveryTimeout, "TIMEOUT"},
		{DiscoveryExhausted, "EXHAUSTED"},
		{DiscoveryOutcome(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("DiscoveryOutcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func TestRoleString(t *testing.T) {
	if got := RoleProvisioner.String(); got != "PROVISIONER" {
		t.Errorf("RoleProvisioner.String() = %q", got)
	}
	if got := RoleDevice.String(); got != "DEVICE" {
		t.Errorf("RoleDevice.String() = %q", got)
	}
}

func TestNewFrameEvent(t *testing.T) {
	data := []byte{0x00, 0x00, 0x0A}
	f := NewFrameEvent("2adb", data)
	data[2] = 0xFF

	if f.Size != 3 || f.Truncated {
		t.Errorf("got size %d truncated %v", f.Size, f.Truncated)
	}
	if !bytes.Equal(f.Data, []byte{0x00, 0x00, 0x0A}) {
		t.Errorf("Data aliased input: %x", f.Data)
	}

	big := make([]byte, MaxFrameData+10)
	f = NewFrameEvent("", big)
	if !f.Truncated || len(f.Data) != MaxFrameData || f.Size != len(big) {
		t.Errorf("truncation: size=%d len=%d truncated=%v", f.Size, len(f.Data), f.Truncated)
	}
}
