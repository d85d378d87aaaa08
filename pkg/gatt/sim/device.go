// Package sim provides an in-memory GATT transport with simulated
// unprovisioned devices. It backs end-to-end tests and the CLI's
// -simulate mode.
package sim

import (
	"bytes"
	"crypto/rand"
	"sync"

	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/pdu"
)

// Device is a simulated unprovisioned node.
//
// The device answers Invite with Capabilities, the provisioner's Public Key
// with its own public key followed by its confirmation, the provisioner's
// Confirmation with its random and Data with Complete. Start and Random get
// no answer. Set FailOn to answer that opcode with Failed instead.
type Device struct {
	Name    string
	Address gatt.Address
	RSSI    int

	// Services is the advertised GATT database. Nil selects the
	// Provisioning service with the Data In and Data Out characteristics.
	Services []gatt.Service

	Capabilities pdu.DeviceCapabilities

	// PublicKey, Confirmation and Random are the device's values. Nil
	// values are filled with random bytes when the device is added.
	PublicKey    []byte
	Confirmation []byte
	Random       []byte

	// FailOn, if non-zero, answers the PDU with this opcode with Failed.
	FailOn     pdu.Opcode
	FailReason pdu.FailureReason

	// Silent opcodes get no answer.
	Silent []pdu.Opcode

	// DropDiscoveries is the number of initial discovery requests that
	// never complete.
	DropDiscoveries int

	mu          sync.Mutex
	received    [][]byte
	discoveries int
	provisioned bool
	data        []byte
}

// DefaultServices returns the GATT database of an unprovisioned device.
func DefaultServices() []gatt.Service {
	return []gatt.Service{
		{
			UUID: gatt.ShortUUID(0x1800),
			Characteristics: []gatt.Characteristic{
				{UUID: gatt.ShortUUID(0x2A00), Properties: gatt.PropertyRead},
			},
		},
		{
			UUID: gatt.ProvisioningServiceUUID,
			Characteristics: []gatt.Characteristic{
				{UUID: gatt.ProvisioningDataInUUID, Properties: gatt.PropertyWriteNoResponse | gatt.PropertyNotify},
				{UUID: ProvisioningDataOutUUID, Properties: gatt.PropertyNotify},
			},
		},
	}
}

// ProvisioningDataOutUUID is the Mesh Provisioning Data Out characteristic.
var ProvisioningDataOutUUID = gatt.ShortUUID(0x2ADC)

func (d *Device) init() {
	if d.Services == nil {
		d.Services = DefaultServices()
	}
	if d.Capabilities == (pdu.DeviceCapabilities{}) {
		d.Capabilities = pdu.DeviceCapabilities{NumElements: 1, Algorithms: pdu.AlgorithmP256CMACAES128}
	}
	if d.PublicKey == nil {
		d.PublicKey = randomBytes(pdu.PublicKeySize)
	}
	if d.Confirmation == nil {
		d.Confirmation = randomBytes(pdu.ConfirmationSize)
	}
	if d.Random == nil {
		d.Random = randomBytes(pdu.RandomSize)
	}
}

func (d *Device) advertisement() gatt.Advertisement {
	adv := gatt.Advertisement{Name: d.Name, Address: d.Address, RSSI: d.RSSI}
	for _, svc := range d.Services {
		if svc.Type() != gatt.ServiceUnknown {
			adv.ServiceUUIDs = append(adv.ServiceUUIDs, svc.UUID)
		}
	}
	return adv
}

// Received returns the PDUs written to the device, in order.
func (d *Device) Received() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.received))
	for i, b := range d.received {
		out[i] = bytes.Clone(b)
	}
	return out
}

// Discoveries returns the number of discovery requests received.
func (d *Device) Discoveries() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discoveries
}

// Provisioned reports whether the device accepted provisioning data, and
// returns that data.
func (d *Device) Provisioned() ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return bytes.Clone(d.data), d.provisioned
}

// discover records a discovery request and reports whether it is answered.
func (d *Device) discover() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discoveries++
	return d.discoveries > d.DropDiscoveries
}

// handle processes one written PDU and returns the answers, in order.
func (d *Device) handle(b []byte) [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, bytes.Clone(b))

	p, err := pdu.Decode(b)
	if err != nil {
		return answer(pdu.Failed{Code: pdu.ReasonInvalidPDU})
	}
	op := p.Opcode()
	for _, s := range d.Silent {
		if s == op {
			return nil
		}
	}
	if d.FailOn != 0 && d.FailOn == op {
		return answer(pdu.Failed{Code: d.FailReason})
	}

	switch msg := p.(type) {
	case pdu.Invite:
		return answer(pdu.Capabilities{Raw: d.Capabilities.Bytes()})
	case pdu.PublicKey:
		return answer(pdu.PeerPublicKey{Key: d.PublicKey}, pdu.Confirmation{Value: d.Confirmation})
	case pdu.Confirmation:
		return answer(pdu.Random{Value: d.Random})
	case pdu.Data:
		d.provisioned = true
		d.data = bytes.Clone(msg.Payload)
		return answer(pdu.Complete{})
	default:
		return nil
	}
}

func answer(pdus ...pdu.PDU) [][]byte {
	out := make([][]byte, 0, len(pdus))
	for _, p := range pdus {
		b, err := pdu.Encode(p)
		if err != nil {
			// Misconfigured device values.
			b, _ = pdu.Encode(pdu.Failed{Code: pdu.ReasonUnexpectedError})
			return append(out, b)
		}
		out = append(out, b)
	}
	return out
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}
