package gatt

import (
	"strings"

	"github.com/google/uuid"
)

// Property is a bitmask of GATT characteristic properties.
type Property uint8

// Characteristic property bits as defined by the Core Specification.
const (
	PropertyBroadcast       Property = 0x01
	PropertyRead            Property = 0x02
	PropertyWriteNoResponse Property = 0x04
	PropertyWrite           Property = 0x08
	PropertyNotify          Property = 0x10
	PropertyIndicate        Property = 0x20
)

var propertyNames = []struct {
	bit  Property
	name string
}{
	{PropertyBroadcast, "BROADCAST"},
	{PropertyRead, "READ"},
	{PropertyWriteNoResponse, "WRITE_NO_RESPONSE"},
	{PropertyWrite, "WRITE"},
	{PropertyNotify, "NOTIFY"},
	{PropertyIndicate, "INDICATE"},
}

// Has reports whether all bits of q are set in p.
func (p Property) Has(q Property) bool {
	return p&q == q
}

// String lists the set property names, e.g. "READ, WRITE, NOTIFY".
func (p Property) String() string {
	if p == 0 {
		return "NONE"
	}
	var parts []string
	for _, n := range propertyNames {
		if p.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

// Characteristic describes one characteristic of a discovered service.
type Characteristic struct {
	UUID       uuid.UUID
	Properties Property
}

// Service describes one discovered GATT service.
type Service struct {
	UUID            uuid.UUID
	Characteristics []Characteristic
}

// Type classifies the service.
func (s Service) Type() ServiceType {
	return ClassifyService(s.UUID)
}

// Characteristic returns the characteristic with the given UUID.
func (s Service) Characteristic(id uuid.UUID) (Characteristic, bool) {
	for _, c := range s.Characteristics {
		if c.UUID == id {
			return c, true
		}
	}
	return Characteristic{}, false
}

// Catalog is the result of one service discovery pass. It is immutable once
// built; a new discovery pass produces a new Catalog.
type Catalog struct {
	services []Service
	index    map[uuid.UUID]int
}

// NewCatalog builds a catalog from services in discovery order. When a
// service UUID repeats, the first occurrence wins.
func NewCatalog(services ...Service) *Catalog {
	c := &Catalog{
		services: make([]Service, 0, len(services)),
		index:    make(map[uuid.UUID]int, len(services)),
	}
	for _, s := range services {
		if _, dup := c.index[s.UUID]; dup {
			continue
		}
		chars := make([]Characteristic, len(s.Characteristics))
		copy(chars, s.Characteristics)
		c.index[s.UUID] = len(c.services)
		c.services = append(c.services, Service{UUID: s.UUID, Characteristics: chars})
	}
	return c
}

// Services returns the services in discovery order.
func (c *Catalog) Services() []Service {
	if c == nil {
		return nil
	}
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.services)
}

// Service returns the service with the given UUID.
func (c *Catalog) Service(id uuid.UUID) (Service, bool) {
	if c == nil {
		return Service{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// HasCharacteristic reports whether service svc contains characteristic char.
func (c *Catalog) HasCharacteristic(svc, char uuid.UUID) bool {
	s, ok := c.Service(svc)
	if !ok {
		return false
	}
	_, ok = s.Characteristic(char)
	return ok
}

// MeshService returns the service a provisioner should use. The
// Provisioning service is preferred; the Proxy service is the fallback.
func (c *Catalog) MeshService() (Service, bool) {
	if s, ok := c.Service(ProvisioningServiceUUID); ok {
		return s, true
	}
	return c.Service(ProxyServiceUUID)
}
