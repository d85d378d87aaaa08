package gatt

import "errors"

// Transport errors.
var (
	// ErrPermissionDenied is returned when the platform has not granted the
	// Bluetooth capabilities the operation needs.
	ErrPermissionDenied = errors.New("bluetooth permission denied")

	// ErrDeviceNotFound is returned when an address cannot be resolved.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrServiceNotFound is returned when the resolved service is missing
	// from the current catalog.
	ErrServiceNotFound = errors.New("service not found")

	// ErrCharacteristicNotFound is returned when the resolved characteristic
	// is missing from the current catalog.
	ErrCharacteristicNotFound = errors.New("characteristic not found")

	// ErrWriteFailed is returned when a characteristic write could not be
	// initiated or completed.
	ErrWriteFailed = errors.New("characteristic write failed")

	// ErrScanFailed is returned when scanning could not be started.
	ErrScanFailed = errors.New("scan failed")

	// ErrNotConnected is returned by a Conn that is not (or no longer)
	// connected.
	ErrNotConnected = errors.New("not connected")

	// ErrLinkLost is reported when an established link drops without a
	// local disconnect.
	ErrLinkLost = errors.New("link lost")
)
