// Package gatt defines the GATT vocabulary shared by the provisioning engine.
//
// It holds the well-known Bluetooth Mesh service and characteristic
// identifiers, the service catalog produced by a discovery pass, and the
// transport capability the engine consumes. Concrete radios live in
// sub-packages (blue for tinygo bluetooth, sim for an in-process peripheral).
//
// # Transport Model
//
// Every operation on a Conn returns as soon as the request has been issued.
// Outcomes arrive later on the EventSink passed to Transport.Connect:
//
//	conn, err := transport.Connect(ctx, addr, sink)
//	// sink.ConnectionStateChanged(StateConnected, nil)
//	conn.DiscoverServices()
//	// sink.ServicesDiscovered(StatusSuccess, catalog)
//	conn.WriteCharacteristic(svc, char, pdu)
//	// sink.CharacteristicWritten(char, StatusSuccess)
//
// Sinks may be called from any goroutine. Consumers are expected to marshal
// events onto their own execution context before touching shared state.
package gatt
