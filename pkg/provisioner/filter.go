package provisioner

import (
	"strings"

	"github.com/meshprov/meshprov-go/pkg/gatt"
)

// ScanFilter selects advertisements. The zero value accepts everything.
type ScanFilter struct {
	// Address, if set, accepts only this device (case-insensitive).
	Address gatt.Address

	// MinRSSI, if non-zero, drops advertisements weaker than this.
	MinRSSI int

	// MeshOnly drops devices that do not advertise the Provisioning service.
	MeshOnly bool
}

// Match reports whether adv passes the filter.
func (f ScanFilter) Match(adv gatt.Advertisement) bool {
	if f.Address != "" && !strings.EqualFold(string(f.Address), string(adv.Address)) {
		return false
	}
	if f.MinRSSI != 0 && adv.RSSI < f.MinRSSI {
		return false
	}
	if f.MeshOnly && !adv.IsMesh() {
		return false
	}
	return true
}

func deviceFromAdvertisement(adv gatt.Advertisement) *Device {
	d := &Device{
		Name:        adv.Name,
		Address:     adv.Address,
		IsMesh:      adv.IsMesh(),
		ServiceUUID: "None",
		RSSI:        adv.RSSI,
	}
	if d.Name == "" {
		d.Name = "Unknown"
	}
	if len(adv.ServiceUUIDs) > 0 {
		d.ServiceUUID = adv.ServiceUUIDs[0].String()
	}
	return d
}
