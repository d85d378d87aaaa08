// Package log provides structured protocol capture for the provisioner.
//
// This package defines the Logger interface and Event types for recording
// what happened on a provisioning session at each layer: raw GATT frames,
// decoded provisioning PDUs, discovery attempts and state changes. It is
// separate from operational logging (slog). Protocol capture is a complete
// machine-readable trace for debugging interoperability with peer firmware.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field captures: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/session.plog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(adapter, fileLogger)
//
// # Event Types
//
//   - GATT layer: raw characteristic values (FrameEvent)
//   - PDU layer: decoded provisioning messages (PDUEvent)
//   - Session layer: discovery attempts (DiscoveryEvent) and state
//     changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .plog
// extension. The meshprov-log tool views, filters and exports them.
package log
