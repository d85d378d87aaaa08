package gatt

import (
	"github.com/google/uuid"
)

// baseUUID is the Bluetooth Base UUID onto which 16-bit assigned numbers are
// mapped: 0000xxxx-0000-1000-8000-00805f9b34fb.
var baseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// Well-known Bluetooth Mesh identifiers.
var (
	// ProvisioningServiceUUID is the Mesh Provisioning Service (0x1827).
	ProvisioningServiceUUID = ShortUUID(0x1827)

	// ProxyServiceUUID is the Mesh Proxy Service (0x1828).
	ProxyServiceUUID = ShortUUID(0x1828)

	// ProvisioningDataInUUID is the Mesh Provisioning Data In characteristic
	// (0x2ADB). It carries provisioning PDUs in both directions here.
	ProvisioningDataInUUID = ShortUUID(0x2ADB)
)

// ShortUUID expands a 16-bit assigned number onto the Bluetooth Base UUID.
func ShortUUID(n uint16) uuid.UUID {
	u := baseUUID
	u[2] = byte(n >> 8)
	u[3] = byte(n)
	return u
}

// ServiceType classifies a GATT service for provisioning purposes.
type ServiceType uint8

const (
	// ServiceUnknown is any service that is neither Provisioning nor Proxy.
	ServiceUnknown ServiceType = iota

	// ServiceProvisioning is the Mesh Provisioning Service.
	ServiceProvisioning

	// ServiceProxy is the Mesh Proxy Service.
	ServiceProxy
)

// String returns the service type name.
func (t ServiceType) String() string {
	switch t {
	case ServiceProvisioning:
		return "PROVISIONING"
	case ServiceProxy:
		return "PROXY"
	default:
		return "UNKNOWN"
	}
}

// ClassifyService returns the ServiceType for a service identifier.
func ClassifyService(id uuid.UUID) ServiceType {
	switch id {
	case ProvisioningServiceUUID:
		return ServiceProvisioning
	case ProxyServiceUUID:
		return ServiceProxy
	default:
		return ServiceUnknown
	}
}
